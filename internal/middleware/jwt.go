package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "errors"
    "strings"

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/pull-events/pull-api/internal/apperr"
    "github.com/pull-events/pull-api/internal/codec"
    "github.com/pull-events/pull-api/internal/model"
    "github.com/pull-events/pull-api/internal/service"
    "github.com/pull-events/pull-api/internal/utils"
)

// Context keys set by the auth middleware.
const (
    ctxStaff     = "staff"
    ctxBookingID = "booking_id"
)

// bearer extracts the raw token from "Authorization: Bearer <token>".
func bearer(c echo.Context) (string, bool) {
    auth := c.Request().Header.Get(echo.HeaderAuthorization)
    if !strings.HasPrefix(auth, "Bearer ") {
        return "", false
    }
    raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    return raw, raw != ""
}

// StaffAuth validates a staff session token and stores the decoded
// model.StaffIdentity in the context.  A missing token is 401, an
// unusable one 403.
func StaffAuth(tokens *utils.TokenIssuer, c *codec.Codec) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(ec echo.Context) error {
            raw, ok := bearer(ec)
            if !ok {
                return apperr.NoToken()
            }
            claims, err := tokens.ParseStaff(raw)
            if err != nil {
                if errors.Is(err, utils.ErrInvalidRole) {
                    return apperr.InvalidRole("staff token required")
                }
                return apperr.InvalidToken()
            }
            id, err := service.StaffIdentity(c, claims)
            if err != nil {
                return apperr.InvalidToken()
            }
            ec.Set(ctxStaff, id)
            return next(ec)
        }
    }
}

// ReservationAuth validates a reservation-owner token and stores the
// booking it is bound to.  Tokens of any other role are rejected with
// INVALID_ROLE.
func ReservationAuth(tokens *utils.TokenIssuer, c *codec.Codec) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(ec echo.Context) error {
            raw, ok := bearer(ec)
            if !ok {
                return apperr.NoToken()
            }
            claims, err := tokens.ParseReservation(raw)
            if err != nil {
                if errors.Is(err, utils.ErrInvalidRole) {
                    return apperr.InvalidRole("reservation admin token required")
                }
                return apperr.InvalidToken()
            }
            bookingID, err := c.DecodeID(claims.BookingID)
            if err != nil {
                return apperr.InvalidToken()
            }
            ec.Set(ctxBookingID, bookingID)
            return next(ec)
        }
    }
}

// BookingAccess must follow ReservationAuth.  It decodes the booking in
// path parameter param and rejects the request when it is not the booking
// the token is bound to.
func BookingAccess(c *codec.Codec, param string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(ec echo.Context) error {
            bound, ok := BookingID(ec)
            if !ok {
                return apperr.NoToken()
            }
            pathID, err := c.DecodeID(ec.Param(param))
            if err != nil {
                return apperr.Malformed("invalid booking id", err)
            }
            if pathID != bound {
                return apperr.BookingMismatch()
            }
            return next(ec)
        }
    }
}

// Staff returns the identity stored by StaffAuth.
func Staff(c echo.Context) (model.StaffIdentity, bool) {
    s, ok := c.Get(ctxStaff).(model.StaffIdentity)
    return s, ok
}

// BookingID returns the booking stored by ReservationAuth.
func BookingID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ctxBookingID).(uint64)
    return id, ok
}
