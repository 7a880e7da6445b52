package repository

import (
	"context"
	"database/sql"

	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/internal/model"
)

// TicketRepo performs door validation of tickets.
type TicketRepo struct{}

func NewTicketRepo() *TicketRepo { return &TicketRepo{} }

// LockByToken loads the ticket with the given raw QR token joined with its
// event and type, taking a row lock on the ticket.  Call it inside a
// transaction so concurrent scans of the same QR code serialize.
func (r *TicketRepo) LockByToken(ctx context.Context, q database.Querier, token string) (*model.TicketCheck, error) {
	const sel = `SELECT t.id, t.validated_at, e.name, e.organization_id, e.venue_id, tt.name
                 FROM tickets t
                 JOIN events e ON e.id = t.event_id
                 JOIN ticket_types tt ON tt.id = t.ticket_type_id
                 WHERE t.qr_token = ?
                 FOR UPDATE`
	var c model.TicketCheck
	var validated sql.NullTime
	err := q.QueryRowContext(ctx, sel, token).Scan(
		&c.TicketID, &validated, &c.EventName, &c.EventOrganizationID, &c.EventVenueID, &c.TicketTypeName,
	)
	if err != nil {
		return nil, notFound(err)
	}
	if validated.Valid {
		v := validated.Time
		c.ValidatedAt = &v
	}
	return &c, nil
}

// MarkValidated stamps validated_at if it is still NULL.  Zero affected
// rows means someone else validated first and yields ErrAlreadyValidated.
func (r *TicketRepo) MarkValidated(ctx context.Context, q database.Querier, ticketID uint64) error {
	res, err := q.ExecContext(ctx,
		`UPDATE tickets SET validated_at = UTC_TIMESTAMP() WHERE id = ? AND validated_at IS NULL`, ticketID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyValidated
	}
	return nil
}
