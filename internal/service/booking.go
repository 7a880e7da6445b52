package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pull-events/pull-api/internal/apperr"
	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/internal/model"
	"github.com/pull-events/pull-api/internal/queue"
	"github.com/pull-events/pull-api/internal/repository"
	"github.com/pull-events/pull-api/internal/utils"
)

const (
	// reservationAmount is what every booking request is priced at until
	// venues configure their own rates.
	reservationAmount = 1000.0

	reservationTypeTable   = 1
	reservationTypeGeneral = 2

	maxGuestNameLen = 100
	defaultPageSize = 10
	maxPageSize     = 100
)

var ownerDPIRe = regexp.MustCompile(`^\d{13}$`)

// BookingDeps wires a BookingService.
type BookingDeps struct {
	Tx               database.TxRunner
	Reservations     ReservationStore
	Guests           GuestStore
	Catalog          CatalogStore
	Identity         *IdentityResolver
	Codec            *codec.Codec
	Tokens           *utils.TokenIssuer
	Publisher        EventPublisher
	Log              *slog.Logger
	BcryptCost       int
	ReservationTable model.StatusTable
	GuestTable       model.StatusTable
}

type statusIDs struct {
	pending, confirmed, modified                        uint64
	gConfirmed, gRemoved, gPendingRemove, gPendingAdd uint64
}

// BookingService owns the reservation lifecycle and the guest
// modification workflow.  Every multi-row change runs in one transaction
// after locking the reservation row.
type BookingService struct {
	BookingDeps
	ids statusIDs
	now func() time.Time
}

// NewBookingService checks that both status tables name every canonical
// status and resolves their IDs once.
func NewBookingService(d BookingDeps) (*BookingService, error) {
	if err := d.ReservationTable.RequireReservations(); err != nil {
		return nil, err
	}
	if err := d.GuestTable.RequireGuests(); err != nil {
		return nil, err
	}
	if d.Publisher == nil {
		d.Publisher = NopPublisher{}
	}
	rid := func(s model.ReservationStatus) uint64 { id, _ := d.ReservationTable.ReservationID(s); return id }
	gid := func(s model.GuestStatus) uint64 { id, _ := d.GuestTable.GuestID(s); return id }
	return &BookingService{
		BookingDeps: d,
		ids: statusIDs{
			pending:        rid(model.ReservationPending),
			confirmed:      rid(model.ReservationConfirmed),
			modified:       rid(model.ReservationModified),
			gConfirmed:     gid(model.GuestConfirmed),
			gRemoved:       gid(model.GuestRemoved),
			gPendingRemove: gid(model.GuestPendingRemove),
			gPendingAdd:    gid(model.GuestPendingAdd),
		},
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *BookingService) decodeBooking(encoded string) (uint64, error) {
	if strings.TrimSpace(encoded) == "" {
		return 0, apperr.Validation("missing booking id")
	}
	id, err := s.Codec.DecodeID(encoded)
	if err != nil {
		return 0, apperr.Malformed("invalid booking id", err)
	}
	return id, nil
}

func (s *BookingService) statusName(id uint64) string {
	if n, ok := s.ReservationTable.Name(id); ok {
		return n
	}
	return model.ReservationUnknown.String()
}

func (s *BookingService) event(typ string, r *model.Reservation, statusID uint64, guests, previous int) queue.BookingEvent {
	return queue.BookingEvent{
		Type:           typ,
		BookingID:      s.Codec.EncodeID(r.ID),
		VenueID:        s.Codec.EncodeID(r.VenueID),
		Status:         s.statusName(statusID),
		Guests:         guests,
		PreviousGuests: previous,
		OccurredAt:     s.now(),
	}
}

// ---- create ----

// CreateReservationInput is a booking request from the public site.
type CreateReservationInput struct {
	Creator       PersonInput
	VenueSlug     string
	Date          string // 2006-01-02
	StartTime     string // 15:04
	EndTime       string // 15:04
	PaymentTermID string // opaque, optional
	Table         bool
	GuestNames    []string
}

// CreateReservationResult is the new booking.
type CreateReservationResult struct {
	BookingID string
	Status    string
	Guests    int
}

func parseWindow(date, start, end string) (time.Time, time.Time, error) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("invalid date")
	}
	clock := func(v string) (time.Duration, error) {
		t, err := time.Parse("15:04", strings.TrimSpace(v))
		if err != nil {
			return 0, err
		}
		return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
	}
	from, err := clock(start)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("invalid startTime")
	}
	to, err := clock(end)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("invalid endTime")
	}
	startAt, endAt := day.Add(from), day.Add(to)
	if !endAt.After(startAt) {
		// the booking runs past midnight
		endAt = endAt.Add(24 * time.Hour)
	}
	return startAt, endAt, nil
}

// CreateReservation records a pending booking.  The creator and every
// named guest start confirmed, and the guest count is the roster size.
func (s *BookingService) CreateReservation(ctx context.Context, in CreateReservationInput) (*CreateReservationResult, error) {
	c := in.Creator
	var bad []string
	if strings.TrimSpace(c.Name) == "" {
		bad = append(bad, "name")
	}
	if strings.TrimSpace(c.Surname) == "" {
		bad = append(bad, "surname")
	}
	if !emailRe.MatchString(strings.TrimSpace(c.Email)) {
		bad = append(bad, "email")
	}
	if !ownerDPIRe.MatchString(strings.TrimSpace(c.DPI)) {
		bad = append(bad, "dpi")
	}
	if strings.TrimSpace(in.VenueSlug) == "" {
		bad = append(bad, "venueId")
	}
	if len(bad) > 0 {
		return nil, apperr.Validationf("invalid fields: %s", strings.Join(bad, ", "))
	}
	startAt, endAt, err := parseWindow(in.Date, in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}
	if startAt.Before(s.now().Truncate(24 * time.Hour)) {
		return nil, apperr.Validation("date must not be in the past")
	}
	var names []string
	for _, n := range in.GuestNames {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if len(n) > maxGuestNameLen {
			return nil, apperr.Validationf("guest name longer than %d characters", maxGuestNameLen)
		}
		names = append(names, n)
	}
	var paymentTerm *uint64
	if in.PaymentTermID != "" {
		id, err := s.Codec.DecodeID(in.PaymentTermID)
		if err != nil {
			return nil, apperr.Malformed("invalid paymentTerm", err)
		}
		paymentTerm = &id
	}
	resType := uint64(reservationTypeGeneral)
	if in.Table {
		resType = reservationTypeTable
	}

	var res model.Reservation
	err = s.Tx.WithinTx(ctx, func(q database.Querier) error {
		venue, err := s.Catalog.VenueBySlug(ctx, q, strings.TrimSpace(in.VenueSlug))
		if err != nil {
			return notFoundAs(err, "venue not found")
		}
		creatorID, err := s.Identity.Resolve(ctx, q, c)
		if err != nil {
			return err
		}
		res = model.Reservation{
			VenueID:           venue.ID,
			OrganizationID:    venue.OrganizationID,
			CreatorID:         creatorID,
			ReservationTypeID: resType,
			PaymentTermID:     paymentTerm,
			StatusID:          s.ids.pending,
			Guests:            1 + len(names),
			TotalAmount:       reservationAmount,
			StartDate:         startAt,
			EndDate:           endAt,
		}
		if err := s.Reservations.Create(ctx, q, &res); err != nil {
			return err
		}
		roster := make([]model.ReservationGuest, 0, res.Guests)
		roster = append(roster, model.ReservationGuest{ReservationID: res.ID, UserID: &creatorID, StatusID: s.ids.gConfirmed})
		for i := range names {
			roster = append(roster, model.ReservationGuest{ReservationID: res.ID, TempName: &names[i], StatusID: s.ids.gConfirmed})
		}
		return s.Guests.Insert(ctx, q, roster)
	})
	if err != nil {
		return nil, internalErr(s.Log, "create reservation", err, "venue", in.VenueSlug)
	}
	publishAfterCommit(ctx, s.Publisher, s.Log, s.event(queue.BookingRequested, &res, res.StatusID, res.Guests, 0))
	return &CreateReservationResult{
		BookingID: s.Codec.EncodeID(res.ID),
		Status:    s.statusName(res.StatusID),
		Guests:    res.Guests,
	}, nil
}

// ---- staff status update ----

// UpdateStatusResult is the new status.  ManagementPassword is set only
// when this call confirmed a pending booking; it is never retrievable
// again.
type UpdateStatusResult struct {
	BookingID          string
	Status             string
	ManagementPassword string
}

func (s *BookingService) lockOwned(ctx context.Context, q database.Querier, staff model.StaffIdentity, id uint64) (*model.Reservation, error) {
	r, err := s.Reservations.Lock(ctx, q, id)
	if err != nil {
		return nil, notFoundAs(err, "booking not found")
	}
	if !staff.Owns(r.VenueID, r.OrganizationID) {
		return nil, apperr.AccessDenied("booking does not belong to your venue")
	}
	return r, nil
}

// UpdateStatus moves a booking to the status with the given name.  Names
// are looked up in the status table, so venue specific statuses work;
// the canonical states keep their rules:
//   - terminal bookings never change
//   - modified is entered only by submitting guest changes and left only
//     by processing them
//   - confirmed never returns to pending
//   - pending → confirmed issues a new 6-digit management password
func (s *BookingService) UpdateStatus(ctx context.Context, staff model.StaffIdentity, encodedID, statusName string) (*UpdateStatusResult, error) {
	id, err := s.decodeBooking(encodedID)
	if err != nil {
		return nil, err
	}
	targetID, ok := s.ReservationTable.ID(statusName)
	if !ok {
		return nil, apperr.Validationf("unknown status %q", strings.TrimSpace(statusName))
	}
	target := s.ReservationTable.Reservation(targetID)
	if target == model.ReservationModified {
		return nil, apperr.Validation("modified is only reached by submitting guest changes")
	}

	var (
		res      *model.Reservation
		password string
	)
	err = s.Tx.WithinTx(ctx, func(q database.Querier) error {
		r, err := s.lockOwned(ctx, q, staff, id)
		if err != nil {
			return err
		}
		res = r
		current := s.ReservationTable.Reservation(r.StatusID)
		switch {
		case current.Terminal():
			return apperr.StatusMessage(fmt.Sprintf("booking is %s and can no longer change", current))
		case current == model.ReservationModified:
			return apperr.StatusMessage("booking has pending modifications, process them first")
		case current == model.ReservationConfirmed && target == model.ReservationPending:
			return apperr.StatusMessage("a confirmed booking cannot return to pending")
		}

		var hash *string
		if target == model.ReservationConfirmed && current == model.ReservationPending {
			password, err = utils.GenerateManagementPassword()
			if err != nil {
				return err
			}
			h, err := utils.HashPassword(password, s.BcryptCost)
			if err != nil {
				return err
			}
			hash = &h
		}
		return s.Reservations.SetStatus(ctx, q, id, targetID, hash)
	})
	if err != nil {
		return nil, internalErr(s.Log, "update booking status", err, "booking", encodedID)
	}
	publishAfterCommit(ctx, s.Publisher, s.Log, s.event(queue.BookingStatusChanged, res, targetID, res.Guests, 0))
	return &UpdateStatusResult{BookingID: encodedID, Status: s.statusName(targetID), ManagementPassword: password}, nil
}

// ---- owner guest changes ----

// GuestChange is one requested roster change.  Add carries GuestName,
// delete carries the opaque GuestID.
type GuestChange struct {
	Action    string
	GuestName string
	GuestID   string
}

// SubmitResult summarizes a submitted change request.
type SubmitResult struct {
	Status        string
	PendingRemove int
	PendingAdd    int
}

// SubmitGuestChanges files a guest change request on a confirmed booking.
// Deletions mark confirmed guests pending_remove, additions insert
// name-only pending_add guests and the booking becomes modified, all in
// one transaction.  Any other status fails with a message naming it.
func (s *BookingService) SubmitGuestChanges(ctx context.Context, bookingID uint64, changes []GuestChange) (*SubmitResult, error) {
	if len(changes) == 0 {
		return nil, apperr.Validation("guestChanges must not be empty")
	}
	var (
		removals []uint64
		adds     []string
		seen     = map[uint64]bool{}
	)
	for i, ch := range changes {
		switch strings.ToLower(strings.TrimSpace(ch.Action)) {
		case "add":
			name := strings.TrimSpace(ch.GuestName)
			if name == "" || len(name) > maxGuestNameLen {
				return nil, apperr.Validationf("change %d: guestName is required and at most %d characters", i+1, maxGuestNameLen)
			}
			adds = append(adds, name)
		case "delete":
			if strings.TrimSpace(ch.GuestID) == "" {
				return nil, apperr.Validationf("change %d: guestId is required", i+1)
			}
			gid, err := s.Codec.DecodeID(ch.GuestID)
			if err != nil {
				return nil, apperr.Malformed(fmt.Sprintf("change %d: invalid guestId", i+1), err)
			}
			if !seen[gid] {
				seen[gid] = true
				removals = append(removals, gid)
			}
		default:
			return nil, apperr.Validationf("change %d: action must be add or delete", i+1)
		}
	}

	var res *model.Reservation
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		r, err := s.Reservations.Lock(ctx, q, bookingID)
		if err != nil {
			return notFoundAs(err, "booking not found")
		}
		res = r
		if st := s.ReservationTable.Reservation(r.StatusID); st != model.ReservationConfirmed {
			return apperr.StatusMessage("booking cannot be modified: " + st.ModifyBlockedReason())
		}

		n, err := s.Guests.SetStatusFor(ctx, q, bookingID, removals, s.ids.gConfirmed, s.ids.gPendingRemove)
		if err != nil {
			return err
		}
		if int(n) != len(removals) {
			return apperr.NotFound("one or more guests are not confirmed guests of this booking")
		}

		rows := make([]model.ReservationGuest, len(adds))
		for i := range adds {
			rows[i] = model.ReservationGuest{ReservationID: bookingID, TempName: &adds[i], StatusID: s.ids.gPendingAdd}
		}
		if err := s.Guests.Insert(ctx, q, rows); err != nil {
			return err
		}
		return s.Reservations.SetStatus(ctx, q, bookingID, s.ids.modified, nil)
	})
	if err != nil {
		return nil, internalErr(s.Log, "submit guest changes", err, "booking", s.Codec.EncodeID(bookingID))
	}
	publishAfterCommit(ctx, s.Publisher, s.Log, s.event(queue.BookingModificationSubmitted, res, s.ids.modified, res.Guests, 0))
	return &SubmitResult{Status: s.statusName(s.ids.modified), PendingRemove: len(removals), PendingAdd: len(adds)}, nil
}

// ---- staff processing ----

// ProcessResult reports the guest count before and after.
type ProcessResult struct {
	UpdatedGuests  int
	PreviousGuests int
}

// ProcessModifications resolves a modified booking back to confirmed.
// accept removes pending_remove guests and confirms pending_add ones;
// reject does the inverse.  The guest count is recounted from confirmed
// rows.
func (s *BookingService) ProcessModifications(ctx context.Context, staff model.StaffIdentity, encodedID, action string) (*ProcessResult, error) {
	action = strings.ToLower(strings.TrimSpace(action))
	if action != "accept" && action != "reject" {
		return nil, apperr.Validation("action must be accept or reject")
	}
	id, err := s.decodeBooking(encodedID)
	if err != nil {
		return nil, err
	}

	var (
		res *model.Reservation
		out ProcessResult
	)
	err = s.Tx.WithinTx(ctx, func(q database.Querier) error {
		r, err := s.lockOwned(ctx, q, staff, id)
		if err != nil {
			return err
		}
		res = r
		if s.ReservationTable.Reservation(r.StatusID) != model.ReservationModified {
			return apperr.StatusMessage("booking has no pending modifications")
		}

		removeTo, addTo := s.ids.gRemoved, s.ids.gConfirmed
		if action == "reject" {
			removeTo, addTo = s.ids.gConfirmed, s.ids.gRemoved
		}
		if _, err := s.Guests.Remap(ctx, q, id, s.ids.gPendingRemove, removeTo); err != nil {
			return err
		}
		if _, err := s.Guests.Remap(ctx, q, id, s.ids.gPendingAdd, addTo); err != nil {
			return err
		}
		count, err := s.Guests.CountByStatus(ctx, q, id, s.ids.gConfirmed)
		if err != nil {
			return err
		}
		if err := s.Reservations.SetStatusAndGuests(ctx, q, id, s.ids.confirmed, count); err != nil {
			return err
		}
		out = ProcessResult{UpdatedGuests: count, PreviousGuests: r.Guests}
		return nil
	})
	if err != nil {
		return nil, internalErr(s.Log, "process modifications", err, "booking", encodedID)
	}
	publishAfterCommit(ctx, s.Publisher, s.Log,
		s.event(queue.BookingModificationsProcessed, res, s.ids.confirmed, out.UpdatedGuests, out.PreviousGuests))
	return &out, nil
}

// ---- owner authentication ----

// OwnerAuthResult is a reservation-owner session.
type OwnerAuthResult struct {
	Token utils.AccessToken
	Name  string
	Email string
}

// Authenticate proves a booking owner knows the creator's DPI and the
// booking's management password, and issues a token bound to that one
// booking.
func (s *BookingService) Authenticate(ctx context.Context, encodedID, dpi, password string) (*OwnerAuthResult, error) {
	dpi = strings.TrimSpace(dpi)
	if !ownerDPIRe.MatchString(dpi) {
		return nil, apperr.Validation("dpi must be exactly 13 digits")
	}
	if password == "" {
		return nil, apperr.Validation("password is required")
	}
	id, err := s.decodeBooking(encodedID)
	if err != nil {
		return nil, err
	}
	r, err := s.Reservations.Get(ctx, s.Tx.Querier(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Auth("invalid credentials")
		}
		return nil, internalErr(s.Log, "authenticate booking owner", err)
	}
	hash := s.Identity.HashDPI(dpi)
	dpiOK := subtle.ConstantTimeCompare([]byte(hash), []byte(r.Creator.DPIHashed)) == 1
	passOK := r.PasswordHash != nil && utils.VerifyPassword(*r.PasswordHash, password)
	if !dpiOK || !passOK {
		return nil, apperr.Auth("invalid credentials")
	}
	tok, err := s.Tokens.IssueReservation(s.Codec.EncodeID(r.ID), s.Codec.EncodeID(r.CreatorID))
	if err != nil {
		return nil, internalErr(s.Log, "sign reservation token", err)
	}
	return &OwnerAuthResult{Token: tok, Name: r.Creator.FullName(), Email: r.Creator.Email}, nil
}

// ---- read side ----

// BookingPage is one page of a venue's upcoming bookings.
type BookingPage struct {
	Items []model.Reservation
	Total int
	Page  int
	Limit int
}

// TotalPages is the page count for Total items.
func (p BookingPage) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// ListVenueBookings pages through a venue's bookings that start today or
// later.  An empty status or "all" means any status.
func (s *BookingService) ListVenueBookings(ctx context.Context, staff model.StaffIdentity, encodedVenueID, status string, page, limit int) (*BookingPage, error) {
	venueID, err := s.Codec.DecodeID(encodedVenueID)
	if err != nil {
		return nil, apperr.Malformed("invalid venue id", err)
	}
	if venueID != staff.VenueID {
		return nil, apperr.AccessDenied("venue does not belong to you")
	}
	var statusID uint64
	if st := strings.TrimSpace(status); st != "" && !strings.EqualFold(st, "all") {
		id, ok := s.ReservationTable.ID(st)
		if !ok {
			return nil, apperr.Validationf("unknown status %q", st)
		}
		statusID = id
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	items, total, err := s.Reservations.ListByVenue(ctx, s.Tx.Querier(), repository.VenueListFilter{
		VenueID:  venueID,
		StatusID: statusID,
		From:     s.now().Truncate(24 * time.Hour),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		return nil, internalErr(s.Log, "list venue bookings", err)
	}
	return &BookingPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// ModificationCounts summarizes a pending change request.
type ModificationCounts struct {
	GuestsToRemove   int
	GuestsToAdd      int
	HasModifications bool
}

// BookingDetail is the staff view of one booking.
type BookingDetail struct {
	Reservation   model.Reservation
	Guests        []model.ReservationGuest
	Modifications *ModificationCounts
}

// BookingDetail loads a booking owned by the staff member's venue.  Counts
// of pending changes are included while it is modified.
func (s *BookingService) BookingDetail(ctx context.Context, staff model.StaffIdentity, encodedID string) (*BookingDetail, error) {
	id, err := s.decodeBooking(encodedID)
	if err != nil {
		return nil, err
	}
	q := s.Tx.Querier()
	r, err := s.Reservations.Get(ctx, q, id)
	if err != nil {
		return nil, internalErr(s.Log, "booking detail", notFoundAs(err, "booking not found"))
	}
	if !staff.Owns(r.VenueID, r.OrganizationID) {
		return nil, apperr.AccessDenied("booking does not belong to your venue")
	}
	guests, err := s.Guests.ListVisible(ctx, q, id, s.ids.gRemoved)
	if err != nil {
		return nil, internalErr(s.Log, "list guests", err)
	}
	d := &BookingDetail{Reservation: *r, Guests: sortCreatorFirst(*r, guests)}
	if s.ReservationTable.Reservation(r.StatusID) == model.ReservationModified {
		rm, err := s.Guests.CountByStatus(ctx, q, id, s.ids.gPendingRemove)
		if err != nil {
			return nil, internalErr(s.Log, "count pending removals", err)
		}
		add, err := s.Guests.CountByStatus(ctx, q, id, s.ids.gPendingAdd)
		if err != nil {
			return nil, internalErr(s.Log, "count pending additions", err)
		}
		d.Modifications = &ModificationCounts{GuestsToRemove: rm, GuestsToAdd: add, HasModifications: rm+add > 0}
	}
	return d, nil
}

// PaymentSummary splits the booking total evenly across its guests.
type PaymentSummary struct {
	TotalPaid       float64
	TotalPending    float64
	TotalAmount     float64
	PaymentProgress int // percent
}

// OwnerView is what a booking owner sees.
type OwnerView struct {
	Reservation model.Reservation
	Guests      []model.ReservationGuest
	Payment     PaymentSummary
}

// OwnerDetail loads the booking bound to a reservation-owner token.
func (s *BookingService) OwnerDetail(ctx context.Context, bookingID uint64) (*OwnerView, error) {
	q := s.Tx.Querier()
	r, err := s.Reservations.Get(ctx, q, bookingID)
	if err != nil {
		return nil, internalErr(s.Log, "owner detail", notFoundAs(err, "booking not found"))
	}
	guests, err := s.Guests.ListVisible(ctx, q, bookingID, s.ids.gRemoved)
	if err != nil {
		return nil, internalErr(s.Log, "list guests", err)
	}
	return &OwnerView{Reservation: *r, Guests: sortCreatorFirst(*r, guests), Payment: paymentSummary(*r, guests)}, nil
}

// sortCreatorFirst moves the creator to the front and keeps everyone
// else in their original order.
func sortCreatorFirst(r model.Reservation, guests []model.ReservationGuest) []model.ReservationGuest {
	sort.SliceStable(guests, func(i, j int) bool {
		return guests[i].IsCreatorOf(r) && !guests[j].IsCreatorOf(r)
	})
	return guests
}

func paymentSummary(r model.Reservation, guests []model.ReservationGuest) PaymentSummary {
	ps := PaymentSummary{TotalAmount: r.TotalAmount, TotalPending: r.TotalAmount}
	if r.Guests <= 0 || r.TotalAmount <= 0 {
		return ps
	}
	perGuest := r.TotalAmount / float64(r.Guests)
	paid := 0
	for _, g := range guests {
		if g.PaidAt != nil {
			paid++
		}
	}
	ps.TotalPaid = math.Min(round2(perGuest*float64(paid)), r.TotalAmount)
	ps.TotalPending = round2(r.TotalAmount - ps.TotalPaid)
	ps.PaymentProgress = int(math.Round(ps.TotalPaid / r.TotalAmount * 100))
	return ps
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
