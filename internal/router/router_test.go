package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pull-events/pull-api/internal/apperr"
	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/handler"
	"github.com/pull-events/pull-api/internal/middleware"
	"github.com/pull-events/pull-api/internal/utils"
)

// newServer registers every route with handlers that have no backing
// services; the requests below never get past the middleware.
func newServer(t *testing.T) (*echo.Echo, *utils.TokenIssuer, *codec.Codec) {
	t.Helper()
	cd, err := codec.New([]byte("0123456789abcdef0123456789abcdef"), []byte("abcdef9876543210"))
	require.NoError(t, err)
	tokens := utils.NewTokenIssuer("secret", "pull-api-greenlock", time.Hour, time.Hour)

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	RegisterRoutes(e, Deps{
		Catalog:           handler.NewCatalogHandler(nil, cd),
		Orders:            handler.NewOrderHandler(nil),
		Auth:              handler.NewAuthHandler(nil, cd),
		Tickets:           handler.NewTicketHandler(nil),
		Bookings:          handler.NewBookingHandler(nil, cd),
		Tokens:            tokens,
		Codec:             cd,
		Limiter:           middleware.NewIPLimiter(10, 5),
		BookingAdminRoles: []string{"admin"},
	})
	return e, tokens, cd
}

func send(e *echo.Echo, method, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestHealth(t *testing.T) {
	e, _, _ := newServer(t)
	rec, _ := send(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, body := send(e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "endpoints")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e, _, cd := newServer(t)
	paths := []struct{ method, path string }{
		{http.MethodGet, Prefix + "/auth/verify-token"},
		{http.MethodGet, Prefix + "/event/upcoming-events/" + cd.EncodeID(2)},
		{http.MethodGet, Prefix + "/event/get-event-details/" + cd.EncodeID(10)},
		{http.MethodGet, Prefix + "/bookings/get-bookings/" + cd.EncodeID(2)},
		{http.MethodGet, Prefix + "/bookings/get-booking-details/" + cd.EncodeID(7)},
		{http.MethodPatch, Prefix + "/bookings/update-status/" + cd.EncodeID(7)},
		{http.MethodPatch, Prefix + "/bookings/process-modifications/" + cd.EncodeID(7)},
		{http.MethodGet, Prefix + "/bookings/" + cd.EncodeID(7) + "/details"},
		{http.MethodPut, Prefix + "/bookings/" + cd.EncodeID(7) + "/modify-guests"},
	}
	for _, p := range paths {
		rec, body := send(e, p.method, p.path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, p.path)
		assert.Equal(t, apperr.CodeNoToken, body["code"], p.path)
	}
}

func TestBookingMutationsRequireAdminRole(t *testing.T) {
	e, tokens, cd := newServer(t)
	door, err := tokens.IssueStaff(utils.StaffClaims{
		EmployeeID: cd.EncodeID(3), OrganizationID: cd.EncodeID(1), VenueID: cd.EncodeID(2), Role: "door",
	})
	require.NoError(t, err)

	rec, body := send(e, http.MethodPatch, Prefix+"/bookings/update-status/"+cd.EncodeID(7), door.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apperr.CodeInvalidRole, body["code"])

	rec, body = send(e, http.MethodPatch, Prefix+"/bookings/process-modifications/"+cd.EncodeID(7), door.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apperr.CodeInvalidRole, body["code"])
}

func TestOwnerTokenIsBoundToBooking(t *testing.T) {
	e, tokens, cd := newServer(t)
	owner, err := tokens.IssueReservation(cd.EncodeID(7), cd.EncodeID(50))
	require.NoError(t, err)

	rec, body := send(e, http.MethodGet, Prefix+"/bookings/"+cd.EncodeID(8)+"/details", owner.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apperr.CodeBookingMismatch, body["code"])

	rec, _ = send(e, http.MethodGet, Prefix+"/bookings/get-bookings/"+cd.EncodeID(2), owner.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
