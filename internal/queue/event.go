// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// BookingQueueName is the durable queue booking lifecycle events go to.
const BookingQueueName = "booking.events"

// Booking event types.
const (
    BookingRequested              = "booking.requested"
    BookingStatusChanged          = "booking.status_changed"
    BookingModificationSubmitted  = "booking.modification_submitted"
    BookingModificationsProcessed = "booking.modifications_processed"
)

// BookingEvent is published after a reservation lifecycle change commits.
// It carries enough information for downstream consumers to log or notify
// without querying the primary database.  IDs are opaque codec tokens.
type BookingEvent struct {
    Type           string    `json:"type"`
    BookingID      string    `json:"booking_id"`
    VenueID        string    `json:"venue_id"`
    Status         string    `json:"status"`
    Guests         int       `json:"guests"`
    PreviousGuests int       `json:"previous_guests,omitempty"`
    OccurredAt     time.Time `json:"occurred_at"`
}
