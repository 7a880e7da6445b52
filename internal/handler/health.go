package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a simple health check endpoint used by load balancers and
// monitoring systems.  It returns "ok" with a 200 status.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Root describes the API and its route groups.
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "pull api is running",
		"version": "1.0.0",
		"endpoints": echo.Map{
			"venues":   "/api/v1/venues/*",
			"events":   "/api/v1/event/*",
			"orders":   "/api/v1/orders/*",
			"auth":     "/api/v1/auth/*",
			"tickets":  "/api/v1/tickets/*",
			"bookings": "/api/v1/bookings/*",
		},
	})
}
