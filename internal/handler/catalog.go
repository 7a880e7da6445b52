package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/middleware"
	"github.com/pull-events/pull-api/internal/model"
)

// Catalog is the read side used by the venue and event pages.
type Catalog interface {
	Venues(ctx context.Context) ([]model.Venue, error)
	Venue(ctx context.Context, slug string) (*model.Venue, error)
	VenueDescription(ctx context.Context, slug string) (string, error)
	VenueEvents(ctx context.Context, slug string, take int) (*model.Venue, []model.Event, error)
	ReservationTypes(ctx context.Context, encodedVenueID string) (*model.Venue, error)
	Events(ctx context.Context) ([]model.Event, error)
	Event(ctx context.Context, slug string) (*model.Event, error)
	TicketTypes(ctx context.Context, slug string) ([]model.TicketType, error)
	TicketType(ctx context.Context, slug, encodedID string) (*model.TicketType, error)
	UpcomingEvents(ctx context.Context, staff model.StaffIdentity, encodedVenueID string) ([]model.UpcomingEvent, error)
	EventDetails(ctx context.Context, staff model.StaffIdentity, encodedEventID string) (*model.Event, []model.TicketTypeStats, error)
}

// CatalogHandler serves /venues and /event.
type CatalogHandler struct {
	Catalog Catalog
	Codec   *codec.Codec
}

func NewCatalogHandler(cat Catalog, cd *codec.Codec) *CatalogHandler {
	return &CatalogHandler{Catalog: cat, Codec: cd}
}

// jsonOr returns raw, or def when the column was NULL.
func jsonOr(raw json.RawMessage, def string) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage(def)
	}
	return raw
}

func (h *CatalogHandler) eventCard(e model.Event) echo.Map {
	return echo.Map{
		"event_id":        h.Codec.EncodeID(e.ID),
		"event_slug":      e.Slug,
		"event_img":       e.Image,
		"event_name":      e.Name,
		"venue_name":      e.VenueName,
		"start_time":      e.StartTime,
		"end_time":        e.EndTime,
		"event_date":      dateOnly(e.EventDate),
		"custom_location": e.CustomLocation,
		"requirements":    jsonOr(e.Requirements, "[]"),
	}
}

// ---- venues ----

// GetAllVenues handles GET /venues/get-all-venues.
func (h *CatalogHandler) GetAllVenues(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	venues, err := h.Catalog.Venues(ctx)
	if err != nil {
		return err
	}
	out := make([]echo.Map, 0, len(venues))
	for _, v := range venues {
		out = append(out, echo.Map{
			"id":         h.Codec.EncodeID(v.ID),
			"slug":       v.Slug,
			"venue_name": v.Name,
			"image":      v.Image,
			"open_time":  v.OpenTime,
			"close_time": v.CloseTime,
			"location":   v.Location,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// GetVenueEvents handles GET /venues/events/get-all-events/:slugId?takeNumber=N.
func (h *CatalogHandler) GetVenueEvents(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	take, _ := strconv.Atoi(c.QueryParam("takeNumber"))
	v, events, err := h.Catalog.VenueEvents(ctx, c.Param("slugId"), take)
	if err != nil {
		return err
	}
	out := make([]echo.Map, 0, len(events))
	for _, e := range events {
		e.VenueName = v.Name
		out = append(out, h.eventCard(e))
	}
	return c.JSON(http.StatusOK, out)
}

// GetVenueInfo handles GET /venues/events/get-venue-info/:slugId.
func (h *CatalogHandler) GetVenueInfo(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Catalog.Venue(ctx, c.Param("slugId"))
	if err != nil {
		return err
	}
	var lat, lng float64
	if v.Latitude != nil {
		lat = *v.Latitude
	}
	if v.Longitude != nil {
		lng = *v.Longitude
	}
	return c.JSON(http.StatusOK, echo.Map{
		"name":          v.Name,
		"capacity":      v.Capacity,
		"email":         v.Email,
		"image":         v.Image,
		"open_time":     v.OpenTime,
		"close_time":    v.CloseTime,
		"long_location": v.Location,
		"latitude":      lat,
		"longitud":      lng,
	})
}

// GetVenueDescription handles GET /venues/events/get-venue-description/:slugId.
func (h *CatalogHandler) GetVenueDescription(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Catalog.VenueDescription(ctx, c.Param("slugId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"description": d})
}

// GetReservationTypes handles GET /venues/get-reservation-types/:encryptedVenueId.
func (h *CatalogHandler) GetReservationTypes(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Catalog.ReservationTypes(ctx, c.Param("encryptedVenueId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"venue_id":          h.Codec.EncodeID(v.ID),
		"reservation_types": jsonOr(v.ReservationTypes, "[]"),
		"days":              jsonOr(v.Days, "{}"),
	})
}

// ---- events ----

// GetAllEvents handles GET /event/get-all-events.
func (h *CatalogHandler) GetAllEvents(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	events, err := h.Catalog.Events(ctx)
	if err != nil {
		return err
	}
	out := make([]echo.Map, 0, len(events))
	for _, e := range events {
		out = append(out, h.eventCard(e))
	}
	return c.JSON(http.StatusOK, out)
}

// GetDetailedEventInfo handles GET /event/get-detailed-event-info/:eventSlugId.
func (h *CatalogHandler) GetDetailedEventInfo(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Catalog.Event(ctx, c.Param("eventSlugId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_name":   e.Name,
		"event_img":    e.Image,
		"date":         dateOnly(e.EventDate),
		"open_time":    e.StartTime,
		"close_time":   e.EndTime,
		"location":     e.VenueName,
		"requirements": jsonOr(e.Requirements, "[]"),
	})
}

// GetEventInfo handles GET /event/get-event-info/:eventSlugId.
func (h *CatalogHandler) GetEventInfo(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Catalog.Event(ctx, c.Param("eventSlugId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_name": e.Name,
		"event_img":  e.Image,
		"date":       dateOnly(e.EventDate),
		"open_time":  e.StartTime,
		"close_time": e.EndTime,
		"location":   e.CustomLocation,
	})
}

// GetTicketTypes handles GET /event/get-tickets-types/:eventSlugId.
func (h *CatalogHandler) GetTicketTypes(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	slug := c.Param("eventSlugId")
	tts, err := h.Catalog.TicketTypes(ctx, slug)
	if err != nil {
		return err
	}
	out := make([]echo.Map, 0, len(tts))
	for _, t := range tts {
		out = append(out, echo.Map{
			"ticket_type_id":     h.Codec.EncodeID(t.ID),
			"slug":               slug,
			"ticket_name":        t.Name,
			"ticket_price":       t.Price,
			"ticket_description": jsonOr(t.Benefits, "[]"),
			"ticket_quantity":    t.AvailableQuantity,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// GetTicketInfo handles GET /event/get-ticket-info/:eventSlug/:ticketId.
func (h *CatalogHandler) GetTicketInfo(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Catalog.TicketType(ctx, c.Param("eventSlug"), c.Param("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"ticket_name":        t.Name,
		"ticket_price":       t.Price,
		"ticket_description": jsonOr(t.Benefits, "[]"),
		"ticket_quantity":    t.AvailableQuantity,
		"ticket_expenses":    t.Expenses,
	})
}

// GetUpcomingEvents handles GET /event/upcoming-events/:venue_id (staff).
func (h *CatalogHandler) GetUpcomingEvents(c echo.Context) error {
	staff, _ := middleware.Staff(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	events, err := h.Catalog.UpcomingEvents(ctx, staff, c.Param("venue_id"))
	if err != nil {
		return err
	}
	out := make([]echo.Map, 0, len(events))
	for _, e := range events {
		var available *int
		if e.TicketLimit != nil {
			n := *e.TicketLimit - e.TicketsSold
			available = &n
		}
		out = append(out, echo.Map{
			"id":                h.Codec.EncodeID(e.ID),
			"name":              e.Name,
			"image":             e.Image,
			"event_date":        dateOnly(e.EventDate),
			"start_time":        e.StartTime,
			"end_time":          e.EndTime,
			"ticket_limit":      e.TicketLimit,
			"tickets_sold":      e.TicketsSold,
			"tickets_available": available,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "events": out, "total_events": len(out)})
}

// GetEventDetails handles GET /event/get-event-details/:event_id (staff).
func (h *CatalogHandler) GetEventDetails(c echo.Context) error {
	staff, _ := middleware.Staff(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, stats, err := h.Catalog.EventDetails(ctx, staff, c.Param("event_id"))
	if err != nil {
		return err
	}
	sold := 0
	types := make([]echo.Map, 0, len(stats))
	for _, s := range stats {
		sold += s.Sold
		var desc any = jsonOr(s.Benefits, "null")
		if len(s.Benefits) == 0 {
			desc = s.Name + " ticket"
		}
		types = append(types, echo.Map{
			"id":          h.Codec.EncodeID(s.ID),
			"name":        s.Name,
			"price":       s.Price,
			"description": desc,
			"max":         s.InitialQuantity,
			"commission":  s.Expenses,
			"sold":        s.Sold,
			"available":   s.AvailableQuantity,
		})
	}
	access := "public"
	if e.AccessType != nil && *e.AccessType != "" {
		access = *e.AccessType
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"event": echo.Map{
			"id":             h.Codec.EncodeID(e.ID),
			"name":           e.Name,
			"description":    e.Description,
			"poster":         e.Image,
			"date":           dateOnly(e.EventDate),
			"startTime":      e.StartTime,
			"endTime":        e.EndTime,
			"accessType":     access,
			"minAge":         e.MinAge,
			"maxTickets":     e.TicketLimit,
			"ticketsSold":    sold,
			"dressCode":      e.DressCode,
			"customLocation": e.CustomLocation,
			"requirements":   jsonOr(e.Requirements, "null"),
			"ticketTypes":    types,
		},
	})
}
