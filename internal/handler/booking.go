package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pull-events/pull-api/internal/apperr"
	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/middleware"
	"github.com/pull-events/pull-api/internal/model"
	"github.com/pull-events/pull-api/internal/service"
)

// Bookings is the reservation workflow as seen by HTTP.
type Bookings interface {
	CreateReservation(ctx context.Context, in service.CreateReservationInput) (*service.CreateReservationResult, error)
	UpdateStatus(ctx context.Context, staff model.StaffIdentity, encodedID, statusName string) (*service.UpdateStatusResult, error)
	SubmitGuestChanges(ctx context.Context, bookingID uint64, changes []service.GuestChange) (*service.SubmitResult, error)
	ProcessModifications(ctx context.Context, staff model.StaffIdentity, encodedID, action string) (*service.ProcessResult, error)
	Authenticate(ctx context.Context, encodedID, dpi, password string) (*service.OwnerAuthResult, error)
	ListVenueBookings(ctx context.Context, staff model.StaffIdentity, encodedVenueID, status string, page, limit int) (*service.BookingPage, error)
	BookingDetail(ctx context.Context, staff model.StaffIdentity, encodedID string) (*service.BookingDetail, error)
	OwnerDetail(ctx context.Context, bookingID uint64) (*service.OwnerView, error)
}

// BookingHandler serves /bookings and POST /venues/request-reservation.
type BookingHandler struct {
	Bookings Bookings
	Codec    *codec.Codec
}

func NewBookingHandler(b Bookings, cd *codec.Codec) *BookingHandler {
	return &BookingHandler{Bookings: b, Codec: cd}
}

type reservationReq struct {
	User struct {
		Name      string `json:"name"`
		Surname   string `json:"surname"`
		Email     string `json:"email"`
		DPI       string `json:"dpi"`
		BirthDate string `json:"birth_date"`
	} `json:"user"`
	Reservation struct {
		VenueID     string `json:"venueId"` // venue slug
		Date        string `json:"date"`
		StartTime   string `json:"startTime"`
		EndTime     string `json:"endTime"`
		PaymentTerm string `json:"paymentTerm"`
		Table       bool   `json:"table"`
	} `json:"reservation"`
	GuestNames []string `json:"guestNames"`
}

// RequestReservation handles POST /venues/request-reservation.
func (h *BookingHandler) RequestReservation(c echo.Context) error {
	var req reservationReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.GuestNames == nil {
		return apperr.Validation("incomplete or malformed data")
	}
	in := service.CreateReservationInput{
		Creator: service.PersonInput{
			DPI:     req.User.DPI,
			Name:    req.User.Name,
			Surname: req.User.Surname,
			Email:   req.User.Email,
		},
		VenueSlug:     req.Reservation.VenueID,
		Date:          req.Reservation.Date,
		StartTime:     req.Reservation.StartTime,
		EndTime:       req.Reservation.EndTime,
		PaymentTermID: req.Reservation.PaymentTerm,
		Table:         req.Reservation.Table,
		GuestNames:    req.GuestNames,
	}
	if b := strings.TrimSpace(req.User.BirthDate); b != "" {
		t, err := time.Parse("2006-01-02", b)
		if err != nil {
			return apperr.Validation("invalid birth_date")
		}
		in.Creator.BirthDate = &t
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Bookings.CreateReservation(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status":        http.StatusCreated,
		"message":       "reservation requested successfully",
		"reservationId": res.BookingID,
		"bookingStatus": res.Status,
		"guests":        res.Guests,
	})
}

func (h *BookingHandler) customerName(r model.Reservation) string { return r.Creator.FullName() }

// GetBookings handles GET /bookings/get-bookings/:venue_id (staff).
func (h *BookingHandler) GetBookings(c echo.Context) error {
	staff, _ := middleware.Staff(c)
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Bookings.ListVenueBookings(ctx, staff, c.Param("venue_id"), c.QueryParam("status"), page, limit)
	if err != nil {
		return err
	}
	out := make([]echo.Map, 0, len(p.Items))
	for _, r := range p.Items {
		out = append(out, echo.Map{
			"id":            h.Codec.EncodeID(r.ID),
			"customerName":  h.customerName(r),
			"email":         r.Creator.Email,
			"guests":        r.Guests,
			"totalAmount":   r.TotalAmount,
			"status":        r.StatusName,
			"type":          r.TypeName,
			"date":          dateOnly(r.StartDate),
			"startDateTime": r.StartDate.UTC(),
			"endDateTime":   r.EndDate.UTC(),
			"createdAt":     r.CreatedAt.UTC(),
		})
	}
	pages := p.TotalPages()
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"bookings": out,
		"pagination": echo.Map{
			"currentPage": p.Page,
			"totalPages":  pages,
			"totalCount":  p.Total,
			"hasMore":     p.Page < pages,
			"limit":       p.Limit,
		},
	})
}

// GetBookingDetails handles GET /bookings/get-booking-details/:booking_id (staff).
func (h *BookingHandler) GetBookingDetails(c echo.Context) error {
	staff, _ := middleware.Staff(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Bookings.BookingDetail(ctx, staff, c.Param("booking_id"))
	if err != nil {
		return err
	}
	r := d.Reservation
	var mods any
	if m := d.Modifications; m != nil {
		mods = echo.Map{
			"guestsToRemove":   m.GuestsToRemove,
			"guestsToAdd":      m.GuestsToAdd,
			"hasModifications": m.HasModifications,
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"booking": echo.Map{
			"id":            h.Codec.EncodeID(r.ID),
			"customerName":  h.customerName(r),
			"email":         r.Creator.Email,
			"guests":        r.Guests,
			"totalAmount":   r.TotalAmount,
			"status":        r.StatusName,
			"type":          r.TypeName,
			"date":          dateOnly(r.StartDate),
			"time":          hhmm(r.StartDate),
			"endTime":       hhmm(r.EndDate),
			"startDateTime": r.StartDate.UTC(),
			"endDateTime":   r.EndDate.UTC(),
			"createdAt":     r.CreatedAt.UTC(),
			"assistants":    h.guests(r, d.Guests),
		},
		"modifications": mods,
	})
}

type updateStatusReq struct {
	staffBody
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /bookings/update-status/:booking_id (staff).
// The management password is only present when the booking was confirmed
// by this call.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	staff, _ := middleware.Staff(c)
	var req updateStatusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Status) == "" {
		return apperr.Validation("status is required")
	}
	if err := req.check(h.Codec, staff); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Bookings.UpdateStatus(ctx, staff, c.Param("booking_id"), req.Status)
	if err != nil {
		return err
	}
	body := echo.Map{
		"success": true,
		"message": "Booking " + res.Status + " successfully",
		"status":  res.Status,
	}
	if res.ManagementPassword != "" {
		body["managementPassword"] = res.ManagementPassword
	}
	return c.JSON(http.StatusOK, body)
}

type processReq struct {
	staffBody
	Action string `json:"action"`
}

// ProcessModifications handles PATCH /bookings/process-modifications/:booking_id (staff).
func (h *BookingHandler) ProcessModifications(c echo.Context) error {
	staff, _ := middleware.Staff(c)
	var req processReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Action) == "" {
		return apperr.Validation("action is required")
	}
	if err := req.check(h.Codec, staff); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Bookings.ProcessModifications(ctx, staff, c.Param("booking_id"), req.Action)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Modifications " + strings.ToLower(req.Action) + "ed successfully",
		"data": echo.Map{
			"previousGuests": res.PreviousGuests,
			"updatedGuests":  res.UpdatedGuests,
			"bookingStatus":  "confirmed",
		},
	})
}

type ownerAuthReq struct {
	DPI      string `json:"dpi"`
	Password string `json:"password"`
}

// Auth handles POST /bookings/:bookingId/auth.
func (h *BookingHandler) Auth(c echo.Context) error {
	var req ownerAuthReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.DPI == "" || req.Password == "" {
		return apperr.Validation("dpi and password are required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Bookings.Authenticate(ctx, c.Param("bookingId"), req.DPI, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "Authentication successful",
		"token":     res.Token.Token,
		"expiresAt": res.Token.Exp,
		"user":      echo.Map{"name": res.Name, "email": res.Email},
	})
}

// Details handles GET /bookings/:bookingId/details (reservation owner).
func (h *BookingHandler) Details(c echo.Context) error {
	id, ok := middleware.BookingID(c)
	if !ok {
		return apperr.NoToken()
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Bookings.OwnerDetail(ctx, id)
	if err != nil {
		return err
	}
	r := v.Reservation
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"booking": echo.Map{
			"id":           h.Codec.EncodeID(r.ID),
			"venueId":      h.Codec.EncodeID(r.VenueID),
			"venueName":    r.VenueName,
			"customerName": h.customerName(r),
			"email":        r.Creator.Email,
			"guests":       r.Guests,
			"totalAmount":  r.TotalAmount,
			"status":       r.StatusName,
			"type":         r.TypeName,
			"startDate":    r.StartDate.UTC(),
			"endDate":      r.EndDate.UTC(),
			"createdAt":    r.CreatedAt.UTC(),
			"assistants":   h.guests(r, v.Guests),
			"paymentSummary": echo.Map{
				"totalPaid":       v.Payment.TotalPaid,
				"totalPending":    v.Payment.TotalPending,
				"totalAmount":     v.Payment.TotalAmount,
				"paymentProgress": v.Payment.PaymentProgress,
			},
		},
	})
}

type guestChangeReq struct {
	GuestChanges []struct {
		Action    string `json:"action"`
		GuestName string `json:"guestName"`
		GuestID   string `json:"guestId"`
	} `json:"guestChanges"`
}

// ModifyGuests handles PUT /bookings/:bookingId/modify-guests (reservation owner).
func (h *BookingHandler) ModifyGuests(c echo.Context) error {
	id, ok := middleware.BookingID(c)
	if !ok {
		return apperr.NoToken()
	}
	var req guestChangeReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.GuestChanges == nil {
		return apperr.Validation("guest changes array is required")
	}
	changes := make([]service.GuestChange, len(req.GuestChanges))
	for i, gc := range req.GuestChanges {
		changes[i] = service.GuestChange{Action: gc.Action, GuestName: gc.GuestName, GuestID: gc.GuestID}
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Bookings.SubmitGuestChanges(ctx, id, changes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Booking modification submitted successfully",
		"data": echo.Map{
			"bookingStatus": res.Status,
			"pendingRemove": res.PendingRemove,
			"pendingAdd":    res.PendingAdd,
			"note":          "Changes are pending venue approval. You will be notified when they are reviewed.",
		},
	})
}

func (h *BookingHandler) guests(r model.Reservation, guests []model.ReservationGuest) []echo.Map {
	out := make([]echo.Map, 0, len(guests))
	for _, g := range guests {
		var email *string
		if g.Person != nil && g.Person.Email != "" {
			e := g.Person.Email
			email = &e
		}
		status := g.StatusName
		if status == "" {
			status = "pending"
		}
		out = append(out, echo.Map{
			"id":               h.Codec.EncodeID(g.GuestID),
			"name":             g.DisplayName(),
			"email":            email,
			"paidAt":           g.PaidAt,
			"status":           status,
			"isRegisteredUser": g.UserID != nil,
			"isCreator":        g.IsCreatorOf(r),
		})
	}
	return out
}
