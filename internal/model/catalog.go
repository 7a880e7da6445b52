package model

import (
	"encoding/json"
	"time"
)

// Venue is a place that hosts events and accepts table reservations.  It
// belongs to one organization; staff accounts are scoped to both.
type Venue struct {
	ID               uint64
	OrganizationID   uint64
	Slug             string
	Name             string
	Image            *string
	Email            *string
	Capacity         *int
	OpenTime         *string
	CloseTime        *string
	Location         *string
	Latitude         *float64
	Longitude        *float64
	Description      *string
	ReservationTypes json.RawMessage // JSON array configured per venue
	Days             json.RawMessage // JSON object of opening days
}

// Event is a dated happening at a venue with its own ticket types.
type Event struct {
	ID             uint64
	VenueID        uint64
	OrganizationID uint64
	Slug           string
	Name           string
	Description    *string
	Image          *string
	EventDate      time.Time
	StartTime      *string
	EndTime        *string
	TicketLimit    *int
	MinAge         *int
	DressCode      *string
	CustomLocation *string
	AccessType     *string
	Requirements   json.RawMessage
	VenueName      string // joined from venues.name when listed
}

// TicketType is a priced tier of an event.  AvailableQuantity never goes
// below zero; it is decremented only through a conditional update.
type TicketType struct {
	ID                uint64
	EventID           uint64
	Name              string
	Price             float64
	InitialQuantity   int
	AvailableQuantity int
	Benefits          json.RawMessage
	Expenses          float64
}

// TicketTypeStats pairs a ticket type with the number of tickets issued for
// it, as shown on the staff event dashboard.
type TicketTypeStats struct {
	TicketType
	Sold int
}

// UpcomingEvent is the staff dashboard row for an event at their venue.
type UpcomingEvent struct {
	ID          uint64
	Name        string
	Image       *string
	EventDate   time.Time
	StartTime   *string
	EndTime     *string
	TicketLimit *int
	TicketsSold int
}
