package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pull-events/pull-api/internal/apperr"
	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/internal/model"
	"github.com/pull-events/pull-api/internal/repository"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\d{6,15}$`)
	dpiRe   = regexp.MustCompile(`^\d{6,20}$`)
)

// HolderInput is one ticket of a purchase as submitted by the client.
type HolderInput struct {
	Name      string
	LastName  string
	Email     string
	Phone     string
	DPI       string
	BirthDate string
}

// ReserveInput is a purchase of len(Holders) tickets of one type.
type ReserveInput struct {
	EventSlug    string
	TicketTypeID string // opaque
	Holders      []HolderInput
}

// ReserveResult describes a committed order.
type ReserveResult struct {
	OrderID string // opaque
	Total   float64
	Tickets []model.Ticket
}

// TicketInfo is a ticket as shown to its holder.  QRToken is the opaque
// form of the stored token and is also the QR payload.
type TicketInfo struct {
	OwnerFullName string          `json:"owner_full_name"`
	OwnerEmail    string          `json:"owner_email"`
	EventName     string          `json:"event_name"`
	EventDate     string          `json:"event_date"`
	StartTime     *string         `json:"start_time"`
	TicketType    string          `json:"ticket_type"`
	Benefits      json.RawMessage `json:"benefits"`
	QRToken       string          `json:"qr_token"`
}

// OrderService sells tickets.  Stock, identities, the order and its
// tickets are written in one transaction.
type OrderService struct {
	tx        database.TxRunner
	catalog   CatalogStore
	inventory InventoryStore
	orders    OrderStore
	identity  *IdentityResolver
	codec     *codec.Codec
	log       *slog.Logger
	now       func() time.Time
	newToken  func() string
}

func NewOrderService(tx database.TxRunner, catalog CatalogStore, inventory InventoryStore, orders OrderStore,
	identity *IdentityResolver, c *codec.Codec, log *slog.Logger) *OrderService {
	s := &OrderService{
		tx:        tx,
		catalog:   catalog,
		inventory: inventory,
		orders:    orders,
		identity:  identity,
		codec:     c,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
	s.newToken = s.qrToken
	return s
}

// qrToken is a random UUID joined with the current Unix millisecond.  The
// UUID carries all the unpredictability; the suffix only separates
// tokens should two UUIDs ever collide.
func (s *OrderService) qrToken() string {
	return uuid.NewString() + "-" + strconv.FormatInt(s.now().UnixMilli(), 10)
}

// ValidateHolders checks every ticket's fields and reports the first
// ticket with problems, naming its 1-based position and the bad fields.
func ValidateHolders(holders []HolderInput, now time.Time) ([]time.Time, error) {
	births := make([]time.Time, len(holders))
	for i, h := range holders {
		var bad []string
		if strings.TrimSpace(h.Name) == "" {
			bad = append(bad, "owner_name")
		}
		if strings.TrimSpace(h.LastName) == "" {
			bad = append(bad, "owner_last_name")
		}
		if !emailRe.MatchString(h.Email) {
			bad = append(bad, "owner_email")
		}
		if !phoneRe.MatchString(h.Phone) {
			bad = append(bad, "owner_phone")
		}
		if !dpiRe.MatchString(h.DPI) {
			bad = append(bad, "owner_dpi")
		}
		b, err := parseBirthDate(h.BirthDate)
		if err != nil || b.After(now) {
			bad = append(bad, "owner_birthdate")
		}
		if len(bad) > 0 {
			return nil, apperr.Validationf("ticket %d has invalid fields: %s", i+1, strings.Join(bad, ", "))
		}
		births[i] = b
	}
	return births, nil
}

func parseBirthDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Reserve sells one ticket per holder.  The stock check, identity
// resolution, order, ticket rows and stock decrement commit together or
// not at all.
func (s *OrderService) Reserve(ctx context.Context, in ReserveInput) (*ReserveResult, error) {
	slug := strings.TrimSpace(in.EventSlug)
	if slug == "" || in.TicketTypeID == "" || len(in.Holders) == 0 {
		return nil, apperr.Validation("incomplete data, please review it")
	}
	ticketTypeID, err := s.codec.DecodeID(in.TicketTypeID)
	if err != nil {
		return nil, apperr.Malformed("invalid ticket_type_id", err)
	}
	births, err := ValidateHolders(in.Holders, s.now())
	if err != nil {
		return nil, err
	}

	var out ReserveResult
	err = s.tx.WithinTx(ctx, func(q database.Querier) error {
		ev, err := s.catalog.EventBySlug(ctx, q, slug)
		if err != nil {
			return notFoundAs(err, "event not found")
		}
		tt, err := s.catalog.TicketTypeForEvent(ctx, q, ticketTypeID, ev.ID)
		if err != nil {
			return notFoundAs(err, "ticket type not found")
		}

		qty := len(in.Holders)
		if err := s.inventory.Reserve(ctx, q, tt.ID, ev.ID, qty); err != nil {
			switch {
			case errors.Is(err, repository.ErrInsufficientInventory):
				return apperr.InsufficientInventory()
			case errors.Is(err, repository.ErrNotFound):
				return apperr.NotFound("ticket type not found")
			}
			return err
		}

		holderIDs := make([]uint64, qty)
		for i, h := range in.Holders {
			b := births[i]
			id, err := s.identity.Resolve(ctx, q, PersonInput{
				DPI: h.DPI, Name: h.Name, Surname: h.LastName, Email: h.Email, BirthDate: &b,
			})
			if err != nil {
				return err
			}
			holderIDs[i] = id
		}

		order := &model.Order{
			EventID:      ev.ID,
			TicketTypeID: tt.ID,
			UserID:       holderIDs[0],
			Quantity:     qty,
			Total:        math.Round(tt.Price*float64(qty)*100) / 100,
			Status:       model.OrderStatusPaid,
		}
		if err := s.orders.Create(ctx, q, order); err != nil {
			return err
		}

		tickets := make([]model.Ticket, qty)
		for i, holder := range holderIDs {
			tickets[i] = model.Ticket{
				OrderID:      order.ID,
				EventID:      ev.ID,
				TicketTypeID: tt.ID,
				HolderID:     holder,
				QRToken:      s.newToken(),
			}
		}
		if err := s.orders.CreateTickets(ctx, q, tickets); err != nil {
			return err
		}

		out = ReserveResult{OrderID: s.codec.EncodeID(order.ID), Total: order.Total, Tickets: tickets}
		return nil
	})
	if err != nil {
		return nil, internalErr(s.log, "reserve tickets", err, "event", slug)
	}
	return &out, nil
}

// OrderTickets lists the tickets of an order for the event with the given
// slug.
func (s *OrderService) OrderTickets(ctx context.Context, encodedOrderID, eventSlug string) ([]TicketInfo, error) {
	orderID, err := s.decodeOrder(encodedOrderID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(eventSlug) == "" {
		return nil, apperr.Validation("missing event slug")
	}
	q := s.tx.Querier()
	ev, err := s.catalog.EventBySlug(ctx, q, strings.TrimSpace(eventSlug))
	if err != nil {
		return nil, internalErr(s.log, "order tickets", notFoundAs(err, "event not found"))
	}
	return s.ticketInfos(ctx, q, orderID, ev.ID)
}

// OrderDocument lists every ticket of an order, for rendering.
func (s *OrderService) OrderDocument(ctx context.Context, encodedOrderID string) ([]TicketInfo, error) {
	orderID, err := s.decodeOrder(encodedOrderID)
	if err != nil {
		return nil, err
	}
	return s.ticketInfos(ctx, s.tx.Querier(), orderID, 0)
}

func (s *OrderService) decodeOrder(encoded string) (uint64, error) {
	if strings.TrimSpace(encoded) == "" {
		return 0, apperr.Validation("missing order id")
	}
	id, err := s.codec.DecodeID(encoded)
	if err != nil {
		return 0, apperr.Malformed("invalid order id", err)
	}
	return id, nil
}

func (s *OrderService) ticketInfos(ctx context.Context, q database.Querier, orderID, eventID uint64) ([]TicketInfo, error) {
	views, err := s.orders.TicketViews(ctx, q, orderID, eventID)
	if err != nil {
		return nil, internalErr(s.log, "list order tickets", err)
	}
	if len(views) == 0 {
		return nil, apperr.NotFound("no tickets found for this order")
	}
	out := make([]TicketInfo, len(views))
	for i, v := range views {
		out[i] = TicketInfo{
			OwnerFullName: strings.TrimSpace(fmt.Sprintf("%s %s", v.HolderName, v.HolderSurname)),
			OwnerEmail:    v.HolderEmail,
			EventName:     v.EventName,
			EventDate:     v.EventDate.Format("2006-01-02"),
			StartTime:     v.StartTime,
			TicketType:    v.TicketTypeName,
			Benefits:      v.Benefits,
			QRToken:       s.codec.EncodeString(v.QRToken),
		}
	}
	return out, nil
}
