// Package handler exposes the HTTP handlers of the API.  Handlers bind and
// shape requests, call a service and render JSON; every failure is
// returned as an error and rendered by middleware.ErrorHandler.
package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pull-events/pull-api/internal/apperr"
	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/model"
)

const requestTimeout = 5 * time.Second

// reqCtx bounds the storage work of one request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// bind decodes the JSON body into v, reporting any decode failure as a
// validation error.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}

// staffBody is carried by staff mutations next to the session token.
type staffBody struct {
	VenueID        string `json:"venue_id"`
	OrganizationID string `json:"organization_id"`
	EmployeeID     string `json:"employee_id"`
}

// check requires the body's venue, organization and employee to be the
// ones in the staff token.
func (b staffBody) check(cd *codec.Codec, staff model.StaffIdentity) error {
	if b.VenueID == "" || b.OrganizationID == "" || b.EmployeeID == "" {
		return apperr.Validation("venue_id, organization_id and employee_id are required")
	}
	venue, err1 := cd.DecodeID(b.VenueID)
	org, err2 := cd.DecodeID(b.OrganizationID)
	emp, err3 := cd.DecodeID(b.EmployeeID)
	if err1 != nil || err2 != nil || err3 != nil {
		return apperr.Malformed("invalid venue, organization or employee id", nil)
	}
	if !staff.Owns(venue, org) || emp != staff.EmployeeID {
		return apperr.AccessDenied("access denied, you don't have permission to modify this booking")
	}
	return nil
}

func dateOnly(t time.Time) string { return t.UTC().Format("2006-01-02") }

func hhmm(t time.Time) string { return t.UTC().Format("15:04") }
