package middleware

import (
    "errors"
    "log/slog"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/pull-events/pull-api/internal/apperr"
)

// ErrorHandler renders every error as {"error": message, "code": code}.
// Application errors keep their own status and code; echo errors (404
// routes, 405, bind failures) are translated; anything else is logged and
// reported as a bare 500 so no storage detail leaves the process.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        status, code, msg := http.StatusInternalServerError, apperr.CodeInternal, "internal server error"

        var he *echo.HTTPError
        switch ae, ok := apperr.As(err); {
        case ok:
            status, code, msg = ae.Status(), ae.Code, ae.Message
            if ae.Kind == apperr.KindInternal {
                log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", ae.Err)
            }
        case errors.As(err, &he):
            status = he.Code
            code = strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
            msg = http.StatusText(status)
            if m, ok := he.Message.(string); ok && status < http.StatusInternalServerError {
                msg = m
            }
        default:
            log.Error("unhandled error", "method", c.Request().Method, "path", c.Path(), "err", err)
        }

        if c.Request().Method == http.MethodHead {
            _ = c.NoContent(status)
            return
        }
        _ = c.JSON(status, echo.Map{"error": msg, "code": code})
    }
}
