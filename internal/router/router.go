package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/handler"
	"github.com/pull-events/pull-api/internal/middleware"
	"github.com/pull-events/pull-api/internal/utils"
)

// Prefix is the mount point of every API route.
const Prefix = "/api/v1"

// Deps carries what route registration needs.  Cache wraps the public
// catalog routes; Limiter guards the brute-forceable endpoints.
type Deps struct {
	Catalog  *handler.CatalogHandler
	Orders   *handler.OrderHandler
	Auth     *handler.AuthHandler
	Tickets  *handler.TicketHandler
	Bookings *handler.BookingHandler

	Tokens  *utils.TokenIssuer
	Codec   *codec.Codec
	Cache   echo.MiddlewareFunc
	Limiter *middleware.IPLimiter

	// BookingAdminRoles restricts the staff booking mutations to these
	// roles.  Empty allows any authenticated worker.
	BookingAdminRoles []string
}

// RegisterRoutes registers every route of the API on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)

	api := e.Group(Prefix)
	RegisterPublic(api, d)
	RegisterAuth(api, d)
	RegisterStaff(api, d)
	RegisterBookingOwner(api, d)
}

// RegisterPublic registers the unauthenticated catalog, order and
// reservation request routes.  Catalog reads go through the response
// cache.
func RegisterPublic(api *echo.Group, d Deps) {
	cache := d.Cache
	if cache == nil {
		cache = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	v := api.Group("/venues")
	v.GET("/get-all-venues", d.Catalog.GetAllVenues, cache)
	v.GET("/events/get-all-events/:slugId", d.Catalog.GetVenueEvents, cache)
	v.GET("/events/get-venue-info/:slugId", d.Catalog.GetVenueInfo, cache)
	v.GET("/events/get-venue-description/:slugId", d.Catalog.GetVenueDescription, cache)
	v.GET("/get-reservation-types/:encryptedVenueId", d.Catalog.GetReservationTypes, cache)
	v.POST("/request-reservation", d.Bookings.RequestReservation)

	ev := api.Group("/event")
	ev.GET("/get-all-events", d.Catalog.GetAllEvents, cache)
	ev.GET("/get-detailed-event-info/:eventSlugId", d.Catalog.GetDetailedEventInfo, cache)
	ev.GET("/get-tickets-types/:eventSlugId", d.Catalog.GetTicketTypes)
	ev.GET("/get-event-info/:eventSlugId", d.Catalog.GetEventInfo, cache)
	ev.GET("/get-ticket-info/:eventSlug/:ticketId", d.Catalog.GetTicketInfo)

	o := api.Group("/orders")
	o.POST("/reserve", d.Orders.Reserve)
	o.GET("/:encryptedOrderId/pdf", d.Orders.PDF)
	o.GET("/:encryptedOrderId/:slugId", d.Orders.TicketInfo)

	// Door scanners post here; the legacy path is kept for older clients.
	limit := d.Limiter.Middleware()
	api.POST("/tickets/validate-ticket", d.Tickets.Validate, limit)
	api.POST("/ticketsValidation/validate-ticket", d.Tickets.Validate, limit)
}

// RegisterAuth registers staff login and session routes.
func RegisterAuth(api *echo.Group, d Deps) {
	g := api.Group("/auth")
	g.POST("/login-workers", d.Auth.LoginWorkers, d.Limiter.Middleware())
	g.POST("/refresh-token", d.Auth.RefreshToken)
	g.GET("/verify-token", d.Auth.VerifyToken, middleware.StaffAuth(d.Tokens, d.Codec))
}
