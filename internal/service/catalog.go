package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pull-events/pull-api/internal/apperr"
	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/internal/model"
)

const (
	defaultVenueEvents = 10
	maxVenueEvents     = 100
	upcomingLimit      = 5
)

// CatalogReader is the read side of venues, events and ticket types.
type CatalogReader interface {
	CatalogStore
	ListVenues(ctx context.Context) ([]model.Venue, error)
	VenueByID(ctx context.Context, id uint64) (*model.Venue, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	EventsByVenue(ctx context.Context, venueID uint64, limit int) ([]model.Event, error)
	EventByID(ctx context.Context, id uint64) (*model.Event, error)
	UpcomingEvents(ctx context.Context, venueID uint64, from time.Time, limit int) ([]model.UpcomingEvent, error)
	TicketTypesByEvent(ctx context.Context, eventID uint64) ([]model.TicketType, error)
	TicketTypeStats(ctx context.Context, eventID uint64) ([]model.TicketTypeStats, error)
}

// CatalogService serves the public venue and event pages and the staff
// event dashboard.
type CatalogService struct {
	catalog CatalogReader
	db      database.Querier
	codec   *codec.Codec
	log     *slog.Logger
	now     func() time.Time
}

func NewCatalogService(catalog CatalogReader, db database.Querier, c *codec.Codec, log *slog.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		db:      db,
		codec:   c,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *CatalogService) Venues(ctx context.Context) ([]model.Venue, error) {
	v, err := s.catalog.ListVenues(ctx)
	return v, internalErr(s.log, "list venues", err)
}

// Venue returns the venue with the given slug.
func (s *CatalogService) Venue(ctx context.Context, slug string) (*model.Venue, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperr.Validation("missing venue slug")
	}
	v, err := s.catalog.VenueBySlug(ctx, s.db, slug)
	if err != nil {
		return nil, internalErr(s.log, "get venue", notFoundAs(err, "venue not found"), "slug", slug)
	}
	return v, nil
}

// VenueDescription is NotFound when the venue has no description.
func (s *CatalogService) VenueDescription(ctx context.Context, slug string) (string, error) {
	v, err := s.Venue(ctx, slug)
	if err != nil {
		return "", err
	}
	if v.Description == nil || strings.TrimSpace(*v.Description) == "" {
		return "", apperr.NotFound("venue not found or has no description")
	}
	return *v.Description, nil
}

// VenueEvents returns the venue and its newest events, at most take
// (default 10).
func (s *CatalogService) VenueEvents(ctx context.Context, slug string, take int) (*model.Venue, []model.Event, error) {
	v, err := s.Venue(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if take <= 0 {
		take = defaultVenueEvents
	}
	if take > maxVenueEvents {
		take = maxVenueEvents
	}
	evs, err := s.catalog.EventsByVenue(ctx, v.ID, take)
	if err != nil {
		return nil, nil, internalErr(s.log, "list venue events", err, "venue", s.codec.EncodeID(v.ID))
	}
	return v, evs, nil
}

// ReservationTypes returns the venue behind an opaque ID, for its
// reservation types and opening days.
func (s *CatalogService) ReservationTypes(ctx context.Context, encodedVenueID string) (*model.Venue, error) {
	id, err := s.decode(encodedVenueID, "venue")
	if err != nil {
		return nil, err
	}
	v, err := s.catalog.VenueByID(ctx, id)
	if err != nil {
		return nil, internalErr(s.log, "get reservation types", notFoundAs(err, "venue not found"))
	}
	return v, nil
}

func (s *CatalogService) Events(ctx context.Context) ([]model.Event, error) {
	evs, err := s.catalog.ListEvents(ctx)
	return evs, internalErr(s.log, "list events", err)
}

// Event returns the event with the given slug.
func (s *CatalogService) Event(ctx context.Context, slug string) (*model.Event, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperr.Validation("missing event slug")
	}
	e, err := s.catalog.EventBySlug(ctx, s.db, slug)
	if err != nil {
		return nil, internalErr(s.log, "get event", notFoundAs(err, "event not found"), "slug", slug)
	}
	return e, nil
}

// TicketTypes lists the ticket types of the event with the given slug.
func (s *CatalogService) TicketTypes(ctx context.Context, slug string) ([]model.TicketType, error) {
	e, err := s.Event(ctx, slug)
	if err != nil {
		return nil, err
	}
	tts, err := s.catalog.TicketTypesByEvent(ctx, e.ID)
	return tts, internalErr(s.log, "list ticket types", err, "slug", slug)
}

// TicketType returns one ticket type, which must belong to the event with
// the given slug.
func (s *CatalogService) TicketType(ctx context.Context, slug, encodedID string) (*model.TicketType, error) {
	id, err := s.decode(encodedID, "ticket type")
	if err != nil {
		return nil, err
	}
	e, err := s.Event(ctx, slug)
	if err != nil {
		return nil, err
	}
	tt, err := s.catalog.TicketTypeForEvent(ctx, s.db, id, e.ID)
	if err != nil {
		return nil, internalErr(s.log, "get ticket type", notFoundAs(err, "ticket type not found"))
	}
	return tt, nil
}

// UpcomingEvents lists the next events of the staff member's own venue.
func (s *CatalogService) UpcomingEvents(ctx context.Context, staff model.StaffIdentity, encodedVenueID string) ([]model.UpcomingEvent, error) {
	venueID, err := s.decode(encodedVenueID, "venue")
	if err != nil {
		return nil, err
	}
	if venueID != staff.VenueID {
		return nil, apperr.AccessDenied("venue does not belong to your account")
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	evs, err := s.catalog.UpcomingEvents(ctx, venueID, today, upcomingLimit)
	return evs, internalErr(s.log, "list upcoming events", err, "venue", encodedVenueID)
}

// EventDetails returns an event of the staff member's venue with per type
// sales.
func (s *CatalogService) EventDetails(ctx context.Context, staff model.StaffIdentity, encodedEventID string) (*model.Event, []model.TicketTypeStats, error) {
	id, err := s.decode(encodedEventID, "event")
	if err != nil {
		return nil, nil, err
	}
	e, err := s.catalog.EventByID(ctx, id)
	if err != nil {
		return nil, nil, internalErr(s.log, "get event details", notFoundAs(err, "event not found"))
	}
	if !staff.Owns(e.VenueID, e.OrganizationID) {
		return nil, nil, apperr.AccessDenied("event does not belong to your venue")
	}
	stats, err := s.catalog.TicketTypeStats(ctx, e.ID)
	if err != nil {
		return nil, nil, internalErr(s.log, "ticket type stats", err, "event", encodedEventID)
	}
	return e, stats, nil
}

func (s *CatalogService) decode(encoded, what string) (uint64, error) {
	if strings.TrimSpace(encoded) == "" {
		return 0, apperr.Validationf("missing %s id", what)
	}
	id, err := s.codec.DecodeID(encoded)
	if err != nil {
		return 0, apperr.Malformed("invalid "+what+" id", err)
	}
	return id, nil
}
