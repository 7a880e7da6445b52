// Package service holds the business rules of the ticketing and
// reservation backend.  Services depend on the narrow store interfaces
// below; the MySQL repositories satisfy them and tests use in-memory
// fakes.  Every store method receives the database.Querier it must run
// on, so a service decides which calls share a transaction.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pull-events/pull-api/internal/apperr"
	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/internal/model"
	"github.com/pull-events/pull-api/internal/repository"
)

type PersonStore interface {
	FindByDPIHash(ctx context.Context, q database.Querier, hash string) (*model.Person, error)
	UpdateEmail(ctx context.Context, q database.Querier, id uint64, email string) error
	InsertOrFetch(ctx context.Context, q database.Querier, p *model.Person) (uint64, error)
}

type CatalogStore interface {
	VenueBySlug(ctx context.Context, q database.Querier, slug string) (*model.Venue, error)
	EventBySlug(ctx context.Context, q database.Querier, slug string) (*model.Event, error)
	TicketTypeForEvent(ctx context.Context, q database.Querier, id, eventID uint64) (*model.TicketType, error)
}

type InventoryStore interface {
	Reserve(ctx context.Context, q database.Querier, ticketTypeID, eventID uint64, qty int) error
}

type OrderStore interface {
	Create(ctx context.Context, q database.Querier, o *model.Order) error
	CreateTickets(ctx context.Context, q database.Querier, tickets []model.Ticket) error
	TicketViews(ctx context.Context, q database.Querier, orderID, eventID uint64) ([]model.TicketView, error)
}

type TicketStore interface {
	LockByToken(ctx context.Context, q database.Querier, token string) (*model.TicketCheck, error)
	MarkValidated(ctx context.Context, q database.Querier, ticketID uint64) error
}

type ReservationStore interface {
	Create(ctx context.Context, q database.Querier, r *model.Reservation) error
	Get(ctx context.Context, q database.Querier, id uint64) (*model.Reservation, error)
	Lock(ctx context.Context, q database.Querier, id uint64) (*model.Reservation, error)
	SetStatus(ctx context.Context, q database.Querier, id, statusID uint64, passwordHash *string) error
	SetStatusAndGuests(ctx context.Context, q database.Querier, id, statusID uint64, guests int) error
	ListByVenue(ctx context.Context, q database.Querier, f repository.VenueListFilter) ([]model.Reservation, int, error)
}

type GuestStore interface {
	Insert(ctx context.Context, q database.Querier, guests []model.ReservationGuest) error
	SetStatusFor(ctx context.Context, q database.Querier, reservationID uint64, guestIDs []uint64, fromStatusID, toStatusID uint64) (int64, error)
	Remap(ctx context.Context, q database.Querier, reservationID, from, to uint64) (int64, error)
	CountByStatus(ctx context.Context, q database.Querier, reservationID, statusID uint64) (int, error)
	ListVisible(ctx context.Context, q database.Querier, reservationID, hiddenStatusID uint64) ([]model.ReservationGuest, error)
}

type WorkerStore interface {
	ByEmail(ctx context.Context, q database.Querier, email string) (*model.Worker, error)
}

// internalErr passes application errors through unchanged.  Anything else
// is an unexpected store failure: it is logged with op and hidden behind
// a generic InternalError.
func internalErr(log *slog.Logger, op string, err error, attrs ...any) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	log.Error(op+" failed", append(attrs, "err", err)...)
	return apperr.Internal(err)
}

// notFoundAs maps repository.ErrNotFound to a NotFound with msg and leaves
// other errors alone.
func notFoundAs(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}
