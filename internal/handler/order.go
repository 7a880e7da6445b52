package handler

import (
	"bytes"
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pull-events/pull-api/internal/apperr"
	"github.com/pull-events/pull-api/internal/service"
	"github.com/pull-events/pull-api/internal/ticketpdf"
)

// Orders is the ticket purchase flow.
type Orders interface {
	Reserve(ctx context.Context, in service.ReserveInput) (*service.ReserveResult, error)
	OrderTickets(ctx context.Context, encodedOrderID, eventSlug string) ([]service.TicketInfo, error)
	OrderDocument(ctx context.Context, encodedOrderID string) ([]service.TicketInfo, error)
}

// OrderHandler serves /orders.
type OrderHandler struct {
	Orders Orders
}

func NewOrderHandler(o Orders) *OrderHandler { return &OrderHandler{Orders: o} }

type reserveReq struct {
	SlugID       string `json:"slug_id"`
	TicketTypeID string `json:"ticket_type_id"`
	Tickets      []struct {
		Name      string `json:"owner_name"`
		LastName  string `json:"owner_last_name"`
		Email     string `json:"owner_email"`
		Phone     string `json:"owner_phone"`
		DPI       string `json:"owner_dpi"`
		BirthDate string `json:"owner_birthdate"`
	} `json:"tickets"`
}

// Reserve handles POST /orders/reserve.
func (h *OrderHandler) Reserve(c echo.Context) error {
	var req reserveReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.SlugID == "" || req.TicketTypeID == "" || len(req.Tickets) == 0 {
		return apperr.Validation("incomplete data, please review it")
	}
	in := service.ReserveInput{EventSlug: req.SlugID, TicketTypeID: req.TicketTypeID}
	for _, t := range req.Tickets {
		in.Holders = append(in.Holders, service.HolderInput{
			Name: t.Name, LastName: t.LastName, Email: t.Email,
			Phone: t.Phone, DPI: t.DPI, BirthDate: t.BirthDate,
		})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Orders.Reserve(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "reservation completed successfully",
		"order_id": res.OrderID,
		"total":    res.Total,
		"quantity": len(res.Tickets),
	})
}

// TicketInfo handles GET /orders/:encryptedOrderId/:slugId.
func (h *OrderHandler) TicketInfo(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	tickets, err := h.Orders.OrderTickets(ctx, c.Param("encryptedOrderId"), c.Param("slugId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

// PDF handles GET /orders/:encryptedOrderId/pdf.
func (h *OrderHandler) PDF(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	tickets, err := h.Orders.OrderDocument(ctx, c.Param("encryptedOrderId"))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := ticketpdf.Render(&buf, tickets); err != nil {
		return apperr.Internal(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="tickets.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}
