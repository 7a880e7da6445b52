package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pull-events/pull-api/internal/apperr"
	"github.com/pull-events/pull-api/internal/model"
)

func newTicketFixture(t *testing.T) (*memDB, *TicketService, string) {
	t.Helper()
	db := newMemDB()
	db.ticketTypes[20] = model.TicketType{ID: 20, EventID: 10, Name: "VIP"}
	db.tickets = append(db.tickets, model.Ticket{ID: 1, OrderID: 5, EventID: 10, TicketTypeID: 20, HolderID: 7, QRToken: "raw-token-1"})
	c := testCodec(t)
	svc := NewTicketService(&fakeTx{db: db}, fakeTickets{db: db, org: 1, ven: 2}, c, discardLogger())
	return db, svc, c.EncodeString("raw-token-1")
}

func TestValidateTwiceFailsSecondTime(t *testing.T) {
	db, svc, qr := newTicketFixture(t)
	c := testCodec(t)
	in := ValidateInput{QRToken: qr, VenueID: c.EncodeID(2), OrganizationID: c.EncodeID(1)}

	res, err := svc.Validate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Techno Night", res.EventName)
	assert.Equal(t, "VIP", res.TicketType)
	first := db.validated["raw-token-1"]

	_, err = svc.Validate(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeAlreadyValidated, apperr.CodeOf(err))
	assert.Equal(t, 409, err.(*apperr.Error).Status())
	assert.Equal(t, first, db.validated["raw-token-1"], "second attempt leaves the timestamp alone")
}

func TestValidateChecksOrganizationBeforeVenue(t *testing.T) {
	db, svc, qr := newTicketFixture(t)
	c := testCodec(t)

	_, err := svc.Validate(context.Background(), ValidateInput{QRToken: qr, VenueID: c.EncodeID(99), OrganizationID: c.EncodeID(98)})
	require.Error(t, err)
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "organization")

	_, err = svc.Validate(context.Background(), ValidateInput{QRToken: qr, VenueID: c.EncodeID(99), OrganizationID: c.EncodeID(1)})
	assert.Contains(t, err.Error(), "venue")
	assert.Empty(t, db.validated)
}

func TestValidateUnknownAndMalformed(t *testing.T) {
	_, svc, _ := newTicketFixture(t)
	c := testCodec(t)

	_, err := svc.Validate(context.Background(), ValidateInput{QRToken: c.EncodeString("nope"), VenueID: c.EncodeID(2), OrganizationID: c.EncodeID(1)})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.Validate(context.Background(), ValidateInput{QRToken: "not-a-token", VenueID: c.EncodeID(2), OrganizationID: c.EncodeID(1)})
	assert.Equal(t, apperr.KindMalformedToken, apperr.KindOf(err))

	_, err = svc.Validate(context.Background(), ValidateInput{QRToken: "abc"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
