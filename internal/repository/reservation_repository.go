package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/pull-events/pull-api/internal/database"
    "github.com/pull-events/pull-api/internal/model"
)

// ReservationRepo provides access to reservations.  Guest rows live in
// GuestRepo; status names are resolved through StatusRepo.  All timestamp
// fields are stored in UTC.
type ReservationRepo struct{}

// NewReservationRepo returns a new ReservationRepo.
func NewReservationRepo() *ReservationRepo { return &ReservationRepo{} }

// Create inserts a new reservation and populates its ID.  The caller
// decides the initial status (pending for requests coming from the public
// site).
func (r *ReservationRepo) Create(ctx context.Context, q database.Querier, res *model.Reservation) error {
    const ins = `INSERT INTO reservations
                 (venue_id, creator_id, reservation_type, payment_term_id, status_id, guests, total_amount, start_date, end_date)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := q.ExecContext(ctx, ins, res.VenueID, res.CreatorID, res.ReservationTypeID, res.PaymentTermID,
        res.StatusID, res.Guests, res.TotalAmount, res.StartDate.UTC(), res.EndDate.UTC())
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    return nil
}

const reservationSelect = `SELECT r.id, r.venue_id, v.organization_id, v.name, r.creator_id, r.reservation_type,
        COALESCE(rt.name, ''), r.payment_term_id, r.status_id, rs.name, r.guests, r.total_amount,
        r.start_date, r.end_date, r.password, r.created_at,
        p.id, p.dpi_hashed, p.name, p.surname, p.email
    FROM reservations r
    JOIN venues v ON v.id = r.venue_id
    JOIN reservation_statuses rs ON rs.id = r.status_id
    JOIN public_users p ON p.id = r.creator_id
    LEFT JOIN reservation_types rt ON rt.id = r.reservation_type`

func scanReservation(s rowScanner) (*model.Reservation, error) {
    var res model.Reservation
    var term sql.NullInt64
    var pwd sql.NullString
    err := s.Scan(&res.ID, &res.VenueID, &res.OrganizationID, &res.VenueName, &res.CreatorID,
        &res.ReservationTypeID, &res.TypeName, &term, &res.StatusID, &res.StatusName, &res.Guests,
        &res.TotalAmount, &res.StartDate, &res.EndDate, &pwd, &res.CreatedAt,
        &res.Creator.ID, &res.Creator.DPIHashed, &res.Creator.Name, &res.Creator.Surname, &res.Creator.Email)
    if err != nil {
        return nil, err
    }
    if term.Valid {
        t := uint64(term.Int64)
        res.PaymentTermID = &t
    }
    if pwd.Valid {
        p := pwd.String
        res.PasswordHash = &p
    }
    return &res, nil
}

// Get returns a reservation with its venue, status and creator.
func (r *ReservationRepo) Get(ctx context.Context, q database.Querier, id uint64) (*model.Reservation, error) {
    res, err := scanReservation(q.QueryRowContext(ctx, reservationSelect+` WHERE r.id = ?`, id))
    if err != nil {
        return nil, notFound(err)
    }
    return res, nil
}

// Lock takes a row lock on the reservation and returns it.  Must run
// inside a transaction; the status read under the lock is what the
// following transition is based on.
func (r *ReservationRepo) Lock(ctx context.Context, q database.Querier, id uint64) (*model.Reservation, error) {
    res, err := scanReservation(q.QueryRowContext(ctx, reservationSelect+` WHERE r.id = ? FOR UPDATE OF r`, id))
    if err != nil {
        return nil, notFound(err)
    }
    return res, nil
}

// SetStatus moves the reservation to statusID.  A non-nil passwordHash
// replaces the stored management password.
func (r *ReservationRepo) SetStatus(ctx context.Context, q database.Querier, id, statusID uint64, passwordHash *string) error {
    if passwordHash != nil {
        _, err := q.ExecContext(ctx, `UPDATE reservations SET status_id = ?, password = ? WHERE id = ?`,
            statusID, *passwordHash, id)
        return err
    }
    _, err := q.ExecContext(ctx, `UPDATE reservations SET status_id = ? WHERE id = ?`, statusID, id)
    return err
}

// SetStatusAndGuests stores a new status together with a recounted guest
// total.
func (r *ReservationRepo) SetStatusAndGuests(ctx context.Context, q database.Querier, id, statusID uint64, guests int) error {
    _, err := q.ExecContext(ctx, `UPDATE reservations SET status_id = ?, guests = ? WHERE id = ?`, statusID, guests, id)
    return err
}

// VenueListFilter narrows ListByVenue.  StatusID zero means any status.
type VenueListFilter struct {
    VenueID  uint64
    StatusID uint64
    From     time.Time
    Limit    int
    Offset   int
}

// ListByVenue returns a page of a venue's reservations starting at or
// after f.From, soonest first, plus the total number of matches.
func (r *ReservationRepo) ListByVenue(ctx context.Context, q database.Querier, f VenueListFilter) ([]model.Reservation, int, error) {
    where := ` WHERE r.venue_id = ? AND r.start_date >= ?`
    args := []any{f.VenueID, f.From.UTC()}
    if f.StatusID != 0 {
        where += ` AND r.status_id = ?`
        args = append(args, f.StatusID)
    }

    var total int
    if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations r`+where, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    rows, err := q.QueryContext(ctx, reservationSelect+where+` ORDER BY r.start_date ASC, r.id ASC LIMIT ? OFFSET ?`,
        append(args, f.Limit, f.Offset)...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    var out []model.Reservation
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, 0, err
        }
        out = append(out, *res)
    }
    return out, total, rows.Err()
}
