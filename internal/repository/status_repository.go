package repository

import (
	"context"

	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/internal/model"
)

// StatusRepo reads the reservation_statuses and guest_statuses lookup
// tables.
type StatusRepo struct{}

func NewStatusRepo() *StatusRepo { return &StatusRepo{} }

// ReservationStatuses returns every row of reservation_statuses.
func (r *StatusRepo) ReservationStatuses(ctx context.Context, q database.Querier) ([]model.StatusRow, error) {
	return r.list(ctx, q, `SELECT id, name FROM reservation_statuses ORDER BY id`)
}

// GuestStatuses returns every row of guest_statuses.
func (r *StatusRepo) GuestStatuses(ctx context.Context, q database.Querier) ([]model.StatusRow, error) {
	return r.list(ctx, q, `SELECT id, name FROM guest_statuses ORDER BY id`)
}

func (r *StatusRepo) list(ctx context.Context, q database.Querier, query string) ([]model.StatusRow, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.StatusRow
	for rows.Next() {
		var s model.StatusRow
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
