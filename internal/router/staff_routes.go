package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pull-events/pull-api/internal/middleware"
)

// RegisterStaff registers worker endpoints.  All routes require a staff
// session token; booking mutations additionally require one of
// d.BookingAdminRoles when it is set.
func RegisterStaff(api *echo.Group, d Deps) {
	auth := middleware.StaffAuth(d.Tokens, d.Codec)

	ev := api.Group("/event", auth)
	ev.GET("/upcoming-events/:venue_id", d.Catalog.GetUpcomingEvents)
	ev.GET("/get-event-details/:event_id", d.Catalog.GetEventDetails)

	b := api.Group("/bookings", auth)
	b.GET("/get-bookings/:venue_id", d.Bookings.GetBookings)
	b.GET("/get-booking-details/:booking_id", d.Bookings.GetBookingDetails)

	var mutate []echo.MiddlewareFunc
	if len(d.BookingAdminRoles) > 0 {
		mutate = append(mutate, middleware.RequireRole(d.BookingAdminRoles...))
	}
	b.PATCH("/update-status/:booking_id", d.Bookings.UpdateStatus, mutate...)
	b.PATCH("/process-modifications/:booking_id", d.Bookings.ProcessModifications, mutate...)
}
