package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/pull-events/pull-api/internal/database"
    "github.com/pull-events/pull-api/internal/model"
)

// GuestRepo stores reservation_guests.  Every statement is scoped by
// reservation_id so a guest ID belonging to another booking is never
// touched.
type GuestRepo struct{}

func NewGuestRepo() *GuestRepo { return &GuestRepo{} }

// Insert adds guest rows in a single statement.  Passing an empty slice
// has no effect.
func (r *GuestRepo) Insert(ctx context.Context, q database.Querier, guests []model.ReservationGuest) error {
    if len(guests) == 0 {
        return nil
    }
    var sb strings.Builder
    sb.WriteString(`INSERT INTO reservation_guests (reservation_id, user_id, temp_name, status_id, is_cancelled) VALUES `)
    args := make([]any, 0, len(guests)*5)
    for i, g := range guests {
        if i > 0 {
            sb.WriteString(",")
        }
        sb.WriteString("(?, ?, ?, ?, ?)")
        args = append(args, g.ReservationID, g.UserID, g.TempName, g.StatusID, g.IsCancelled)
    }
    _, err := q.ExecContext(ctx, sb.String(), args...)
    return err
}

// SetStatusFor moves the listed, non-cancelled guests of a reservation
// that are currently in fromStatusID to toStatusID and returns how many
// rows changed.
func (r *GuestRepo) SetStatusFor(ctx context.Context, q database.Querier, reservationID uint64, guestIDs []uint64, fromStatusID, toStatusID uint64) (int64, error) {
    if len(guestIDs) == 0 {
        return 0, nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(guestIDs)), ",")
    args := make([]any, 0, len(guestIDs)+3)
    args = append(args, toStatusID, reservationID, fromStatusID)
    for _, id := range guestIDs {
        args = append(args, id)
    }
    res, err := q.ExecContext(ctx,
        `UPDATE reservation_guests SET status_id = ?
         WHERE reservation_id = ? AND is_cancelled = FALSE AND status_id = ? AND guest_id IN (`+placeholders+`)`, args...)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// Remap moves every guest of a reservation in status from to status to.
func (r *GuestRepo) Remap(ctx context.Context, q database.Querier, reservationID, from, to uint64) (int64, error) {
    res, err := q.ExecContext(ctx,
        `UPDATE reservation_guests SET status_id = ? WHERE reservation_id = ? AND status_id = ?`,
        to, reservationID, from)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// CountByStatus counts a reservation's guests in statusID.
func (r *GuestRepo) CountByStatus(ctx context.Context, q database.Querier, reservationID, statusID uint64) (int, error) {
    var n int
    err := q.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM reservation_guests WHERE reservation_id = ? AND status_id = ?`,
        reservationID, statusID).Scan(&n)
    return n, err
}

// ListVisible returns the non-cancelled guests of a reservation whose
// status is not hiddenStatusID, in insertion order.
func (r *GuestRepo) ListVisible(ctx context.Context, q database.Querier, reservationID, hiddenStatusID uint64) ([]model.ReservationGuest, error) {
    const sel = `SELECT g.guest_id, g.reservation_id, g.user_id, g.temp_name, g.status_id, COALESCE(gs.name, ''),
                        g.is_cancelled, g.paid_at, p.name, p.surname, p.email
                 FROM reservation_guests g
                 LEFT JOIN guest_statuses gs ON gs.id = g.status_id
                 LEFT JOIN public_users p ON p.id = g.user_id
                 WHERE g.reservation_id = ? AND g.is_cancelled = FALSE AND g.status_id <> ?
                 ORDER BY g.guest_id`
    rows, err := q.QueryContext(ctx, sel, reservationID, hiddenStatusID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.ReservationGuest
    for rows.Next() {
        var g model.ReservationGuest
        var (
            userID               sql.NullInt64
            temp, name, sur, eml sql.NullString
            paid                 sql.NullTime
        )
        if err := rows.Scan(&g.GuestID, &g.ReservationID, &userID, &temp, &g.StatusID, &g.StatusName,
            &g.IsCancelled, &paid, &name, &sur, &eml); err != nil {
            return nil, err
        }
        if userID.Valid {
            u := uint64(userID.Int64)
            g.UserID = &u
            g.Person = &model.Person{ID: u, Name: name.String, Surname: sur.String, Email: eml.String}
        }
        g.TempName = nullStr(temp)
        if paid.Valid {
            t := paid.Time
            g.PaidAt = &t
        }
        out = append(out, g)
    }
    return out, rows.Err()
}
