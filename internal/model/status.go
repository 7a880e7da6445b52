package model

import (
    "fmt"
    "strings"
)

// ReservationStatus is the lifecycle state of a reservation.  The numeric
// IDs stored in MySQL are venue configurable; code works with this variant
// and translates through a StatusTable at the storage boundary.
type ReservationStatus uint8

const (
    ReservationUnknown ReservationStatus = iota
    ReservationPending
    ReservationConfirmed
    ReservationCancelled
    ReservationRejected
    ReservationCompleted
    ReservationModified
)

var reservationStatusNames = map[ReservationStatus]string{
    ReservationPending:   "pending",
    ReservationConfirmed: "confirmed",
    ReservationCancelled: "cancelled",
    ReservationRejected:  "rejected",
    ReservationCompleted: "completed",
    ReservationModified:  "modified",
}

func (s ReservationStatus) String() string {
    if n, ok := reservationStatusNames[s]; ok {
        return n
    }
    return "unknown"
}

// ParseReservationStatus maps a status name to its canonical variant.
// Names a venue added on its own map to ReservationUnknown.
func ParseReservationStatus(name string) ReservationStatus {
    name = strings.ToLower(strings.TrimSpace(name))
    for s, n := range reservationStatusNames {
        if n == name {
            return s
        }
    }
    return ReservationUnknown
}

// Terminal reports whether no further transition is allowed.
func (s ReservationStatus) Terminal() bool {
    return s == ReservationCancelled || s == ReservationRejected || s == ReservationCompleted
}

// ModifyBlockedReason explains why guest changes cannot be submitted in
// state s.  Only confirmed reservations accept changes.
func (s ReservationStatus) ModifyBlockedReason() string {
    switch s {
    case ReservationConfirmed:
        return ""
    case ReservationPending:
        return "pending approval"
    case ReservationCancelled:
        return "cancelled"
    case ReservationRejected:
        return "rejected"
    case ReservationCompleted:
        return "completed"
    case ReservationModified:
        return "already has pending modifications"
    default:
        return "unknown"
    }
}

// GuestStatus is the state of one guest row.
type GuestStatus uint8

const (
    GuestUnknown GuestStatus = iota
    GuestConfirmed
    GuestRemoved
    GuestPendingRemove
    GuestPendingAdd
)

var guestStatusNames = map[GuestStatus]string{
    GuestConfirmed:     "confirmed",
    GuestRemoved:       "removed",
    GuestPendingRemove: "pending_remove",
    GuestPendingAdd:    "pending_add",
}

func (s GuestStatus) String() string {
    if n, ok := guestStatusNames[s]; ok {
        return n
    }
    return "unknown"
}

// StatusRow is one row of reservation_statuses or guest_statuses.
type StatusRow struct {
    ID   uint64
    Name string
}

// StatusTable translates status names to IDs and back.  It is built once
// from the database at startup and never mutated afterwards.
type StatusTable struct {
    byName map[string]uint64
    byID   map[uint64]string
}

// NewStatusTable indexes rows by lower-cased name and by ID.
func NewStatusTable(rows []StatusRow) StatusTable {
    t := StatusTable{
        byName: make(map[string]uint64, len(rows)),
        byID:   make(map[uint64]string, len(rows)),
    }
    for _, r := range rows {
        n := strings.ToLower(strings.TrimSpace(r.Name))
        t.byName[n] = r.ID
        t.byID[r.ID] = n
    }
    return t
}

// ID returns the ID for a status name.
func (t StatusTable) ID(name string) (uint64, bool) {
    id, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
    return id, ok
}

// Name returns the status name stored for id.
func (t StatusTable) Name(id uint64) (string, bool) {
    n, ok := t.byID[id]
    return n, ok
}

// Reservation resolves a stored ID to the canonical reservation variant.
func (t StatusTable) Reservation(id uint64) ReservationStatus {
    n, ok := t.byID[id]
    if !ok {
        return ReservationUnknown
    }
    return ParseReservationStatus(n)
}

// ReservationID returns the stored ID of a canonical reservation status.
func (t StatusTable) ReservationID(s ReservationStatus) (uint64, bool) {
    return t.ID(s.String())
}

// GuestID returns the stored ID of a canonical guest status.
func (t StatusTable) GuestID(s GuestStatus) (uint64, bool) {
    return t.ID(s.String())
}

// RequireReservations checks that every canonical reservation status has
// a row.
func (t StatusTable) RequireReservations() error {
    for s := ReservationPending; s <= ReservationModified; s++ {
        if _, ok := t.ReservationID(s); !ok {
            return fmt.Errorf("reservation status %q missing from status table", s)
        }
    }
    return nil
}

// RequireGuests checks that every canonical guest status has a row.
func (t StatusTable) RequireGuests() error {
    for s := GuestConfirmed; s <= GuestPendingAdd; s++ {
        if _, ok := t.GuestID(s); !ok {
            return fmt.Errorf("guest status %q missing from status table", s)
        }
    }
    return nil
}
