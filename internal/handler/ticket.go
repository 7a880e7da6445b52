package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pull-events/pull-api/internal/service"
)

// TicketValidator consumes tickets at the door.
type TicketValidator interface {
	Validate(ctx context.Context, in service.ValidateInput) (*service.ValidateResult, error)
}

// TicketHandler serves /tickets.
type TicketHandler struct {
	Tickets TicketValidator
}

func NewTicketHandler(t TicketValidator) *TicketHandler { return &TicketHandler{Tickets: t} }

type validateReq struct {
	QRToken        string `json:"qr_token"`
	VenueID        string `json:"venue_id"`
	OrganizationID string `json:"organization_id"`
}

// Validate handles POST /tickets/validate-ticket.
func (h *TicketHandler) Validate(c echo.Context) error {
	var req validateReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Tickets.Validate(ctx, service.ValidateInput{
		QRToken:        req.QRToken,
		VenueID:        req.VenueID,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"message":     "Ticket validated successfully",
		"event_name":  res.EventName,
		"ticket_type": res.TicketType,
	})
}
