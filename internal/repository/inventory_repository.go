package repository

import (
	"context"
	"database/sql"

	"github.com/pull-events/pull-api/internal/database"
)

// InventoryRepo owns ticket_types.available_quantity.  Stock is only ever
// taken with a single conditional UPDATE so concurrent purchases cannot
// oversell: the row lock taken by the UPDATE serializes competing
// transactions and the WHERE clause re-checks the quantity under it.
type InventoryRepo struct{}

func NewInventoryRepo() *InventoryRepo { return &InventoryRepo{} }

// Reserve takes qty tickets of ticketTypeID, scoped to eventID.  It returns
// ErrNotFound when the ticket type does not belong to the event and
// ErrInsufficientInventory when fewer than qty remain.  Run it in the same
// transaction that creates the order so a later failure returns the stock.
func (r *InventoryRepo) Reserve(ctx context.Context, q database.Querier, ticketTypeID, eventID uint64, qty int) error {
	const upd = `UPDATE ticket_types
                 SET available_quantity = available_quantity - ?
                 WHERE id = ? AND event_id = ? AND available_quantity >= ?`
	res, err := q.ExecContext(ctx, upd, qty, ticketTypeID, eventID, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var available int
	err = q.QueryRowContext(ctx,
		`SELECT available_quantity FROM ticket_types WHERE id = ? AND event_id = ?`,
		ticketTypeID, eventID).Scan(&available)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInsufficientInventory
}
