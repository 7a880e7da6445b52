package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "time"

    "github.com/pull-events/pull-api/internal/database"
    "github.com/pull-events/pull-api/internal/model"
)

// CatalogRepo reads venues, events and ticket types.  Nothing here
// mutates inventory; the conditional decrement lives in InventoryRepo.
type CatalogRepo struct {
    db *sql.DB
}

// NewCatalogRepo returns a CatalogRepo bound to db.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

const venueColumns = `id, organization_id, slug, name, image, email, capacity, open_time, close_time,
    location, latitude, longitude, description, reservation_types, days`

type rowScanner interface {
    Scan(dest ...any) error
}

func scanVenue(s rowScanner) (*model.Venue, error) {
    var v model.Venue
    var (
        image, email, openT, closeT, loc, desc sql.NullString
        capacity                                 sql.NullInt64
        lat, lng                                 sql.NullFloat64
        resTypes, days                           []byte
    )
    if err := s.Scan(&v.ID, &v.OrganizationID, &v.Slug, &v.Name, &image, &email, &capacity,
        &openT, &closeT, &loc, &lat, &lng, &desc, &resTypes, &days); err != nil {
        return nil, err
    }
    v.Image = nullStr(image)
    v.Email = nullStr(email)
    v.OpenTime = nullStr(openT)
    v.CloseTime = nullStr(closeT)
    v.Location = nullStr(loc)
    v.Description = nullStr(desc)
    v.Capacity = nullInt(capacity)
    if lat.Valid {
        v.Latitude = &lat.Float64
    }
    if lng.Valid {
        v.Longitude = &lng.Float64
    }
    v.ReservationTypes = rawJSON(resTypes)
    v.Days = rawJSON(days)
    return &v, nil
}

// ListVenues returns every venue ordered by name.
func (r *CatalogRepo) ListVenues(ctx context.Context) ([]model.Venue, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT `+venueColumns+` FROM venues ORDER BY name`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Venue
    for rows.Next() {
        v, err := scanVenue(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *v)
    }
    return out, rows.Err()
}

// VenueBySlug returns the venue with the given slug.
func (r *CatalogRepo) VenueBySlug(ctx context.Context, q database.Querier, slug string) (*model.Venue, error) {
    v, err := scanVenue(q.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE slug = ? LIMIT 1`, slug))
    if err != nil {
        return nil, notFound(err)
    }
    return v, nil
}

// VenueByID returns the venue with the given ID.
func (r *CatalogRepo) VenueByID(ctx context.Context, id uint64) (*model.Venue, error) {
    v, err := scanVenue(r.db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ? LIMIT 1`, id))
    if err != nil {
        return nil, notFound(err)
    }
    return v, nil
}

const eventColumns = `e.id, e.venue_id, e.organization_id, e.slug, e.name, e.description, e.image,
    e.event_date, e.start_time, e.end_time, e.ticket_limit, e.min_age, e.dress_code,
    e.custom_location, et.type, e.requirements, v.name`

const eventFrom = ` FROM events e
    JOIN venues v ON v.id = e.venue_id
    LEFT JOIN event_types et ON et.id = e.access_type`

func scanEvent(s rowScanner) (*model.Event, error) {
    var e model.Event
    var (
        desc, image, startT, endT, dress, loc, access sql.NullString
        limit, minAge                                 sql.NullInt64
        reqs                                          []byte
    )
    if err := s.Scan(&e.ID, &e.VenueID, &e.OrganizationID, &e.Slug, &e.Name, &desc, &image,
        &e.EventDate, &startT, &endT, &limit, &minAge, &dress, &loc, &access, &reqs, &e.VenueName); err != nil {
        return nil, err
    }
    e.Description = nullStr(desc)
    e.Image = nullStr(image)
    e.StartTime = nullStr(startT)
    e.EndTime = nullStr(endT)
    e.DressCode = nullStr(dress)
    e.CustomLocation = nullStr(loc)
    e.AccessType = nullStr(access)
    e.TicketLimit = nullInt(limit)
    e.MinAge = nullInt(minAge)
    e.Requirements = rawJSON(reqs)
    return &e, nil
}

func (r *CatalogRepo) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Event
    for rows.Next() {
        e, err := scanEvent(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *e)
    }
    return out, rows.Err()
}

// ListEvents returns all events with their venue names.
func (r *CatalogRepo) ListEvents(ctx context.Context) ([]model.Event, error) {
    return r.queryEvents(ctx, `SELECT `+eventColumns+eventFrom+` ORDER BY e.event_date DESC, e.id DESC`)
}

// EventsByVenue returns the newest events of a venue, at most limit.
func (r *CatalogRepo) EventsByVenue(ctx context.Context, venueID uint64, limit int) ([]model.Event, error) {
    return r.queryEvents(ctx,
        `SELECT `+eventColumns+eventFrom+` WHERE e.venue_id = ? ORDER BY e.event_date DESC, e.id DESC LIMIT ?`,
        venueID, limit)
}

// EventBySlug returns the event with the given slug.
func (r *CatalogRepo) EventBySlug(ctx context.Context, q database.Querier, slug string) (*model.Event, error) {
    e, err := scanEvent(q.QueryRowContext(ctx, `SELECT `+eventColumns+eventFrom+` WHERE e.slug = ? LIMIT 1`, slug))
    if err != nil {
        return nil, notFound(err)
    }
    return e, nil
}

// EventByID returns the event with the given ID.
func (r *CatalogRepo) EventByID(ctx context.Context, id uint64) (*model.Event, error) {
    e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+eventFrom+` WHERE e.id = ? LIMIT 1`, id))
    if err != nil {
        return nil, notFound(err)
    }
    return e, nil
}

// UpcomingEvents lists a venue's events dated on or after from, soonest
// first, with the number of tickets issued so far.
func (r *CatalogRepo) UpcomingEvents(ctx context.Context, venueID uint64, from time.Time, limit int) ([]model.UpcomingEvent, error) {
    const q = `SELECT e.id, e.name, e.image, e.event_date, e.start_time, e.end_time, e.ticket_limit,
                      (SELECT COUNT(*) FROM tickets t WHERE t.event_id = e.id)
               FROM events e
               WHERE e.venue_id = ? AND e.event_date >= ?
               ORDER BY e.event_date ASC, e.start_time ASC
               LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, venueID, from.UTC().Format("2006-01-02"), limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.UpcomingEvent
    for rows.Next() {
        var u model.UpcomingEvent
        var image, startT, endT sql.NullString
        var limitN sql.NullInt64
        if err := rows.Scan(&u.ID, &u.Name, &image, &u.EventDate, &startT, &endT, &limitN, &u.TicketsSold); err != nil {
            return nil, err
        }
        u.Image = nullStr(image)
        u.StartTime = nullStr(startT)
        u.EndTime = nullStr(endT)
        u.TicketLimit = nullInt(limitN)
        out = append(out, u)
    }
    return out, rows.Err()
}

const ticketTypeColumns = `id, event_id, name, price, initial_quantity, available_quantity, benefits, expenses`

func scanTicketType(s rowScanner, extra ...any) (*model.TicketType, error) {
    var t model.TicketType
    var benefits []byte
    dest := append([]any{&t.ID, &t.EventID, &t.Name, &t.Price, &t.InitialQuantity,
        &t.AvailableQuantity, &benefits, &t.Expenses}, extra...)
    if err := s.Scan(dest...); err != nil {
        return nil, err
    }
    t.Benefits = rawJSON(benefits)
    return &t, nil
}

// TicketTypesByEvent lists the ticket types of an event.
func (r *CatalogRepo) TicketTypesByEvent(ctx context.Context, eventID uint64) ([]model.TicketType, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+ticketTypeColumns+` FROM ticket_types WHERE event_id = ? ORDER BY price, id`, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.TicketType
    for rows.Next() {
        t, err := scanTicketType(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *t)
    }
    return out, rows.Err()
}

// TicketTypeStats lists an event's ticket types with issued ticket counts.
func (r *CatalogRepo) TicketTypeStats(ctx context.Context, eventID uint64) ([]model.TicketTypeStats, error) {
    const q = `SELECT tt.id, tt.event_id, tt.name, tt.price, tt.initial_quantity, tt.available_quantity,
                      tt.benefits, tt.expenses, COUNT(t.id)
               FROM ticket_types tt
               LEFT JOIN tickets t ON t.ticket_type_id = tt.id
               WHERE tt.event_id = ?
               GROUP BY tt.id
               ORDER BY tt.price, tt.id`
    rows, err := r.db.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.TicketTypeStats
    for rows.Next() {
        var sold int
        t, err := scanTicketType(rows, &sold)
        if err != nil {
            return nil, err
        }
        out = append(out, model.TicketTypeStats{TicketType: *t, Sold: sold})
    }
    return out, rows.Err()
}

// TicketTypeForEvent returns a ticket type only if it belongs to eventID,
// so an ID from another event is reported as not found.
func (r *CatalogRepo) TicketTypeForEvent(ctx context.Context, q database.Querier, id, eventID uint64) (*model.TicketType, error) {
    t, err := scanTicketType(q.QueryRowContext(ctx,
        `SELECT `+ticketTypeColumns+` FROM ticket_types WHERE id = ? AND event_id = ? LIMIT 1`, id, eventID))
    if err != nil {
        return nil, notFound(err)
    }
    return t, nil
}

// DB exposes the pool for callers that need a Querier outside a
// transaction.
func nullStr(s sql.NullString) *string {
    if !s.Valid {
        return nil
    }
    v := s.String
    return &v
}

func nullInt(n sql.NullInt64) *int {
    if !n.Valid {
        return nil
    }
    v := int(n.Int64)
    return &v
}

func rawJSON(b []byte) json.RawMessage {
    if len(b) == 0 {
        return nil
    }
    out := make(json.RawMessage, len(b))
    copy(out, b)
    return out
}
