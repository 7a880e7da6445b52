package model

import (
	"encoding/json"
	"time"
)

// OrderStatusPaid is the only status produced today; there is no payment
// gateway behind it.
const OrderStatusPaid = "paid"

// Order groups the tickets bought together for one ticket type.  UserID is
// the purchasing person, i.e. the holder of the first ticket.
type Order struct {
	ID           uint64
	EventID      uint64
	TicketTypeID uint64
	UserID       uint64
	Quantity     int
	Total        float64
	Status       string
	CreatedAt    time.Time
}

// Ticket is a single admission.  QRToken is generated fresh per ticket and
// only ever leaves the process encrypted.  ValidatedAt moves from nil to a
// timestamp exactly once.
type Ticket struct {
	ID           uint64
	OrderID      uint64
	EventID      uint64
	TicketTypeID uint64
	HolderID     uint64
	QRToken      string
	ValidatedAt  *time.Time
	CreatedAt    time.Time
}

// TicketView is a ticket joined with its holder, event and type, used by
// order lookups and PDF rendering.
type TicketView struct {
	TicketID       uint64
	QRToken        string
	HolderName     string
	HolderSurname  string
	HolderEmail    string
	EventName      string
	EventDate      time.Time
	StartTime      *string
	TicketTypeName string
	Benefits       json.RawMessage
}

// TicketCheck is the row locked during door validation.
type TicketCheck struct {
	TicketID            uint64
	ValidatedAt         *time.Time
	EventName           string
	EventOrganizationID uint64
	EventVenueID        uint64
	TicketTypeName      string
}
