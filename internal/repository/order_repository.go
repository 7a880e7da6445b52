package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/pull-events/pull-api/internal/database"
    "github.com/pull-events/pull-api/internal/model"
)

// OrderRepo stores orders and the tickets they own.
type OrderRepo struct{}

func NewOrderRepo() *OrderRepo { return &OrderRepo{} }

// Create inserts an order and populates its ID.
func (r *OrderRepo) Create(ctx context.Context, q database.Querier, o *model.Order) error {
    const ins = `INSERT INTO orders (event_id, ticket_type_id, user_id, quantity, total, status)
                 VALUES (?, ?, ?, ?, ?, ?)`
    res, err := q.ExecContext(ctx, ins, o.EventID, o.TicketTypeID, o.UserID, o.Quantity, o.Total, o.Status)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    o.ID = uint64(id)
    return nil
}

// CreateTickets inserts all tickets of an order in one statement.  Passing
// an empty slice has no effect.  A duplicate qr_token surfaces as
// ErrConflict.
func (r *OrderRepo) CreateTickets(ctx context.Context, q database.Querier, tickets []model.Ticket) error {
    if len(tickets) == 0 {
        return nil
    }
    var sb strings.Builder
    sb.WriteString(`INSERT INTO tickets (order_id, event_id, ticket_type_id, holder_id, qr_token) VALUES `)
    args := make([]any, 0, len(tickets)*5)
    for i, t := range tickets {
        if i > 0 {
            sb.WriteString(",")
        }
        sb.WriteString("(?, ?, ?, ?, ?)")
        args = append(args, t.OrderID, t.EventID, t.TicketTypeID, t.HolderID, t.QRToken)
    }
    if _, err := q.ExecContext(ctx, sb.String(), args...); err != nil {
        if isDuplicate(err) {
            return ErrConflict
        }
        return err
    }
    return nil
}

// Get returns an order by ID.
func (r *OrderRepo) Get(ctx context.Context, q database.Querier, id uint64) (*model.Order, error) {
    var o model.Order
    err := q.QueryRowContext(ctx,
        `SELECT id, event_id, ticket_type_id, user_id, quantity, total, status, created_at FROM orders WHERE id = ?`,
        id).Scan(&o.ID, &o.EventID, &o.TicketTypeID, &o.UserID, &o.Quantity, &o.Total, &o.Status, &o.CreatedAt)
    if err != nil {
        return nil, notFound(err)
    }
    return &o, nil
}

// TicketViews lists the tickets of an order joined with holder, event and
// ticket type.  When eventID is non-zero only tickets of that event are
// returned.
func (r *OrderRepo) TicketViews(ctx context.Context, q database.Querier, orderID, eventID uint64) ([]model.TicketView, error) {
    query := `SELECT t.id, t.qr_token, p.name, p.surname, p.email, e.name, e.event_date, e.start_time,
                     tt.name, tt.benefits
              FROM tickets t
              JOIN public_users p ON p.id = t.holder_id
              JOIN events e ON e.id = t.event_id
              JOIN ticket_types tt ON tt.id = t.ticket_type_id
              WHERE t.order_id = ?`
    args := []any{orderID}
    if eventID != 0 {
        query += ` AND t.event_id = ?`
        args = append(args, eventID)
    }
    query += ` ORDER BY t.id`
    rows, err := q.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.TicketView
    for rows.Next() {
        var v model.TicketView
        var start sql.NullString
        var benefits []byte
        if err := rows.Scan(&v.TicketID, &v.QRToken, &v.HolderName, &v.HolderSurname, &v.HolderEmail,
            &v.EventName, &v.EventDate, &start, &v.TicketTypeName, &benefits); err != nil {
            return nil, err
        }
        v.StartTime = nullStr(start)
        v.Benefits = rawJSON(benefits)
        out = append(out, v)
    }
    return out, rows.Err()
}
