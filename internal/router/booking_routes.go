package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pull-events/pull-api/internal/middleware"
)

// RegisterBookingOwner registers the routes of a reservation owner.  The
// owner proves DPI and management password once, then every call carries
// a token bound to that single booking.
func RegisterBookingOwner(api *echo.Group, d Deps) {
	api.POST("/bookings/:bookingId/auth", d.Bookings.Auth, d.Limiter.Middleware())

	g := api.Group("/bookings/:bookingId",
		middleware.ReservationAuth(d.Tokens, d.Codec),
		middleware.BookingAccess(d.Codec, "bookingId"),
	)
	g.GET("/details", d.Bookings.Details)
	g.PUT("/modify-guests", d.Bookings.ModifyGuests)
}
