package model

import "time"

// Reservation is a booking of a table or general admission at a venue.
// It exclusively owns its guest rows.  Guests always equals the number of
// guests in confirmed state after any modification is processed, because
// it is recounted rather than adjusted.
//
// Fields:
//  ID                 – primary key identifier.
//  VenueID            – venue the booking belongs to.
//  OrganizationID     – owning organization of the venue (joined).
//  CreatorID          – person who requested the booking.
//  ReservationTypeID  – table (1) or general (2), configurable per venue.
//  TypeName           – reservation_types.name (joined).
//  PaymentTermID      – optional payment term chosen by the creator.
//  StatusID           – reservation_statuses.id.
//  StatusName         – reservation_statuses.name (joined).
//  Guests             – confirmed guest count.
//  TotalAmount        – amount owed for the booking.
//  StartDate/EndDate  – booked time window (UTC).
//  PasswordHash       – bcrypt hash of the management password, set on
//                       confirmation.
//  CreatedAt          – creation timestamp.
type Reservation struct {
    ID                uint64     // reservations.id
    VenueID           uint64     // reservations.venue_id
    OrganizationID    uint64     // venues.organization_id
    VenueName         string     // venues.name
    CreatorID         uint64     // reservations.creator_id
    ReservationTypeID uint64     // reservations.reservation_type
    TypeName          string     // reservation_types.name
    PaymentTermID     *uint64    // reservations.payment_term_id (nullable)
    StatusID          uint64     // reservations.status_id
    StatusName        string     // reservation_statuses.name
    Guests            int        // reservations.guests
    TotalAmount       float64    // reservations.total_amount
    StartDate         time.Time  // reservations.start_date
    EndDate           time.Time  // reservations.end_date
    PasswordHash      *string    // reservations.password (nullable)
    CreatedAt         time.Time  // reservations.created_at
    Creator           Person     // public_users row of the creator
}

// ReservationGuest is one attendee of a reservation.  Registered guests
// reference a Person; unregistered ones only carry TempName.
//
// Fields:
//  GuestID       – primary key identifier.
//  ReservationID – owning reservation.
//  UserID        – registered person, nil for name-only guests.
//  TempName      – free text name for unregistered guests.
//  StatusID      – guest_statuses.id.
//  StatusName    – guest_statuses.name (joined).
//  IsCancelled   – soft cancellation flag.
//  PaidAt        – when this guest's share was paid, if ever.
//  Person        – joined person details when UserID is set.
type ReservationGuest struct {
    GuestID       uint64     // reservation_guests.guest_id
    ReservationID uint64     // reservation_guests.reservation_id
    UserID        *uint64    // reservation_guests.user_id (nullable)
    TempName      *string    // reservation_guests.temp_name (nullable)
    StatusID      uint64     // reservation_guests.status_id
    StatusName    string     // guest_statuses.name
    IsCancelled   bool       // reservation_guests.is_cancelled
    PaidAt        *time.Time // reservation_guests.paid_at (nullable)
    Person        *Person    // joined public_users row
}

// DisplayName is the person's full name for registered guests and the
// temporary name otherwise.
func (g ReservationGuest) DisplayName() string {
    if g.UserID != nil && g.Person != nil {
        return g.Person.FullName()
    }
    if g.TempName != nil && *g.TempName != "" {
        return *g.TempName
    }
    return "Unknown Guest"
}

// IsCreatorOf reports whether the guest is the reservation's creator.
func (g ReservationGuest) IsCreatorOf(r Reservation) bool {
    return g.UserID != nil && *g.UserID == r.CreatorID
}
