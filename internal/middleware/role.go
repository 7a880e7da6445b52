package middleware

import (
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/pull-events/pull-api/internal/apperr"
)

// RequireRole admits staff whose role (roles.type, e.g. "admin" or "door")
// is one of roles, compared case-insensitively.  It must follow StaffAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[strings.ToLower(strings.TrimSpace(r))] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            staff, ok := Staff(c)
            if !ok {
                return apperr.NoToken()
            }
            if !allowed[strings.ToLower(staff.Role)] {
                return apperr.InvalidRole("your role cannot perform this action")
            }
            return next(c)
        }
    }
}
