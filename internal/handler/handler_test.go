package handler

import (
	"context"
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
	"github.com/pull-events/pull-api/internal/middleware"
	"github.com/pull-events/pull-api/internal/model"
	"github.com/pull-events/pull-api/internal/service"
	"github.com/pull-events/pull-api/internal/utils"
)

type stubOrders struct {
	in      *service.ReserveInput
	tickets []service.TicketInfo
}

func (s *stubOrders) Reserve(_ context.Context, in service.ReserveInput) (*service.ReserveResult, error) {
	s.in = &in
	return &service.ReserveResult{OrderID: "abc", Total: 200, Tickets: make([]model.Ticket, len(in.Holders))}, nil
}

func (s *stubOrders) OrderTickets(context.Context, string, string) ([]service.TicketInfo, error) {
	return s.tickets, nil
}

func (s *stubOrders) OrderDocument(context.Context, string) ([]service.TicketInfo, error) {
	return s.tickets, nil
}

type stubBookings struct {
	Bookings // unimplemented methods panic
	created  *service.CreateReservationInput
	status   string
	password string
	authErr  error
}

func (s *stubBookings) CreateReservation(_ context.Context, in service.CreateReservationInput) (*service.CreateReservationResult, error) {
	s.created = &in
	return &service.CreateReservationResult{BookingID: "b1", Status: "pending", Guests: len(in.GuestNames)}, nil
}

func (s *stubBookings) UpdateStatus(_ context.Context, _ model.StaffIdentity, id, status string) (*service.UpdateStatusResult, error) {
	s.status = status
	return &service.UpdateStatusResult{BookingID: id, Status: status, ManagementPassword: s.password}, nil
}

func (s *stubBookings) Authenticate(context.Context, string, string, string) (*service.OwnerAuthResult, error) {
	if s.authErr != nil {
		return nil, s.authErr
	}
	return &service.OwnerAuthResult{
		Token: utils.AccessToken{Token: "tok", Exp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		Name:  "Ana Lopez",
		Email: "ana@example.com",
	}, nil
}

type stubCatalog struct {
	Catalog
	venues []model.Venue
}

func (s *stubCatalog) Venues(context.Context) ([]model.Venue, error) { return s.venues, nil }

func testCodec(t *testing.T) *codec.Codec {
	t.Helper()
	c, err := codec.New([]byte("0123456789abcdef0123456789abcdef"), []byte("abcdef9876543210"))
	require.NoError(t, err)
	return c
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return e
}

func call(e *echo.Echo, method, path, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestOrderReserve(t *testing.T) {
	orders := &stubOrders{}
	e := newEcho()
	e.POST("/orders/reserve", NewOrderHandler(orders).Reserve)

	rec, body := call(e, http.MethodPost, "/orders/reserve", `{"slug_id":"jazz","ticket_type_id":"x","tickets":[]}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperr.CodeValidation, body["code"])
	assert.Nil(t, orders.in)

	rec, body = call(e, http.MethodPost, "/orders/reserve", `{
		"slug_id":"jazz","ticket_type_id":"x",
		"tickets":[
			{"owner_name":"Ana","owner_last_name":"Lopez","owner_email":"ana@example.com","owner_dpi":"1234567890101","owner_birthdate":"1990-01-01"},
			{"owner_name":"Luis","owner_last_name":"Perez","owner_email":"luis@example.com","owner_dpi":"1234567890102","owner_birthdate":"1991-01-01"}
		]}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "abc", body["order_id"])
	assert.EqualValues(t, 2, body["quantity"])
	require.NotNil(t, orders.in)
	assert.Equal(t, "jazz", orders.in.EventSlug)
	assert.Equal(t, "Lopez", orders.in.Holders[0].LastName)
	assert.Equal(t, "1991-01-01", orders.in.Holders[1].BirthDate)
}

func TestOrderPDF(t *testing.T) {
	start := "21:00"
	orders := &stubOrders{tickets: []service.TicketInfo{{
		OwnerFullName: "Ana Lopez",
		EventName:     "Jazz",
		EventDate:     "2025-06-01",
		StartTime:     &start,
		TicketType:    "VIP",
		Benefits:      json.RawMessage(`["Drink"]`),
		QRToken:       "deadbeef",
	}}}
	e := newEcho()
	h := NewOrderHandler(orders)
	e.GET("/orders/:encryptedOrderId/pdf", h.PDF)
	e.GET("/orders/:encryptedOrderId/:slugId", h.TicketInfo)

	rec, _ := call(e, http.MethodGet, "/orders/abc/pdf", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "tickets.pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec, body := call(e, http.MethodGet, "/orders/abc/jazz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["tickets"], 1)
}

func TestRequestReservation(t *testing.T) {
	b := &stubBookings{}
	e := newEcho()
	e.POST("/venues/request-reservation", NewBookingHandler(b, testCodec(t)).RequestReservation)

	rec, _ := call(e, http.MethodPost, "/venues/request-reservation", `{"user":{"dpi":"1234567890101"}}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "guestNames is required")

	rec, _ = call(e, http.MethodPost, "/venues/request-reservation",
		`{"user":{"birth_date":"01/02/1990"},"guestNames":[]}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := call(e, http.MethodPost, "/venues/request-reservation", `{
		"user":{"name":"Ana","surname":"Lopez","email":"ana@example.com","dpi":"1234567890101","birth_date":"1990-01-02"},
		"reservation":{"venueId":"la-cueva","date":"2025-06-01","startTime":"20:00","endTime":"23:00","table":true},
		"guestNames":["Luis","Marta"]}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "b1", body["reservationId"])
	assert.Equal(t, "pending", body["bookingStatus"])
	assert.EqualValues(t, 2, body["guests"])
	require.NotNil(t, b.created)
	assert.Equal(t, "la-cueva", b.created.VenueSlug)
	assert.True(t, b.created.Table)
	require.NotNil(t, b.created.Creator.BirthDate)
	assert.Equal(t, 1990, b.created.Creator.BirthDate.Year())
}

func TestOwnerAuth(t *testing.T) {
	b := &stubBookings{}
	e := newEcho()
	e.POST("/bookings/:bookingId/auth", NewBookingHandler(b, testCodec(t)).Auth)

	rec, body := call(e, http.MethodPost, "/bookings/x/auth", `{"dpi":"1234567890101"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperr.CodeValidation, body["code"])

	rec, body = call(e, http.MethodPost, "/bookings/x/auth", `{"dpi":"1234567890101","password":"123456"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", body["token"])
	assert.Equal(t, "Ana Lopez", body["user"].(map[string]any)["name"])

	b.authErr = apperr.Auth("invalid credentials")
	rec, _ = call(e, http.MethodPost, "/bookings/x/auth", `{"dpi":"1234567890101","password":"000000"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateStatusChecksStaffBody(t *testing.T) {
	cd := testCodec(t)
	tokens := utils.NewTokenIssuer("secret", "pull-api-greenlock", time.Hour, time.Hour)
	tok, err := tokens.IssueStaff(utils.StaffClaims{
		EmployeeID: cd.EncodeID(3), OrganizationID: cd.EncodeID(1), VenueID: cd.EncodeID(2), Role: "admin",
	})
	require.NoError(t, err)

	b := &stubBookings{password: "482913"}
	e := newEcho()
	e.PATCH("/bookings/update-status/:booking_id", NewBookingHandler(b, cd).UpdateStatus, middleware.StaffAuth(tokens, cd))

	body := func(venue uint64) string {
		return `{"status":"confirmed","venue_id":"` + cd.EncodeID(venue) + `","organization_id":"` + cd.EncodeID(1) +
			`","employee_id":"` + cd.EncodeID(3) + `"}`
	}

	rec, out := call(e, http.MethodPatch, "/bookings/update-status/"+cd.EncodeID(7), body(9), tok.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apperr.CodeAccessDenied, out["code"])
	assert.Empty(t, b.status)

	rec, out = call(e, http.MethodPatch, "/bookings/update-status/"+cd.EncodeID(7), `{"status":"confirmed"}`, tok.Token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperr.CodeValidation, out["code"])

	rec, out = call(e, http.MethodPatch, "/bookings/update-status/"+cd.EncodeID(7), body(2), tok.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmed", b.status)
	assert.Equal(t, "482913", out["managementPassword"])

	b.password = ""
	_, out = call(e, http.MethodPatch, "/bookings/update-status/"+cd.EncodeID(7), body(2), tok.Token)
	assert.NotContains(t, out, "managementPassword")
}

func TestGetAllVenuesEncodesIDs(t *testing.T) {
	cd := testCodec(t)
	img := "https://cdn.example.com/cueva.jpg"
	cat := &stubCatalog{venues: []model.Venue{{ID: 2, Slug: "la-cueva", Name: "La Cueva", Image: &img}}}
	e := newEcho()
	e.GET("/venues/get-all-venues", NewCatalogHandler(cat, cd).GetAllVenues)

	req := httptest.NewRequest(http.MethodGet, "/venues/get-all-venues", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, cd.EncodeID(2), out[0]["id"])
	assert.Equal(t, "La Cueva", out[0]["venue_name"])
	assert.Equal(t, img, out[0]["image"])
	assert.Nil(t, out[0]["open_time"])
}
