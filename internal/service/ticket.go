package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/pull-events/pull-api/internal/apperr"
	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/internal/repository"
)

// ValidateInput is a door scan.  All three values are opaque tokens.
type ValidateInput struct {
	QRToken        string
	VenueID        string
	OrganizationID string
}

// ValidateResult names what was admitted.
type ValidateResult struct {
	EventName  string
	TicketType string
}

// TicketService validates tickets at the door.
type TicketService struct {
	tx      database.TxRunner
	tickets TicketStore
	codec   *codec.Codec
	log     *slog.Logger
}

func NewTicketService(tx database.TxRunner, tickets TicketStore, c *codec.Codec, log *slog.Logger) *TicketService {
	return &TicketService{tx: tx, tickets: tickets, codec: c, log: log}
}

// Validate consumes a ticket.  The ticket row is locked for the whole
// check-then-stamp, so two concurrent scans of one QR code yield exactly
// one success.  Organization is checked before venue.
func (s *TicketService) Validate(ctx context.Context, in ValidateInput) (*ValidateResult, error) {
	if strings.TrimSpace(in.QRToken) == "" || strings.TrimSpace(in.VenueID) == "" || strings.TrimSpace(in.OrganizationID) == "" {
		return nil, apperr.Validation("qr_token, venue_id and organization_id are required")
	}
	token, err := s.codec.DecodeString(in.QRToken)
	if err != nil {
		return nil, apperr.Malformed("invalid QR code", err)
	}
	venueID, err := s.codec.DecodeID(in.VenueID)
	if err != nil {
		return nil, apperr.Malformed("invalid venue_id", err)
	}
	orgID, err := s.codec.DecodeID(in.OrganizationID)
	if err != nil {
		return nil, apperr.Malformed("invalid organization_id", err)
	}

	var out ValidateResult
	err = s.tx.WithinTx(ctx, func(q database.Querier) error {
		t, err := s.tickets.LockByToken(ctx, q, token)
		if err != nil {
			return notFoundAs(err, "ticket not found")
		}
		if t.ValidatedAt != nil {
			return apperr.AlreadyValidated()
		}
		if t.EventOrganizationID != orgID {
			return apperr.AccessDenied("ticket does not belong to this organization")
		}
		if t.EventVenueID != venueID {
			return apperr.AccessDenied("ticket does not belong to this venue")
		}
		if err := s.tickets.MarkValidated(ctx, q, t.TicketID); err != nil {
			if errors.Is(err, repository.ErrAlreadyValidated) {
				return apperr.AlreadyValidated()
			}
			return err
		}
		out = ValidateResult{EventName: t.EventName, TicketType: t.TicketTypeName}
		return nil
	})
	if err != nil {
		return nil, internalErr(s.log, "validate ticket", err)
	}
	return &out, nil
}
