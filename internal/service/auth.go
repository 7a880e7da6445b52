package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/pull-events/pull-api/internal/apperr"
	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/internal/model"
	"github.com/pull-events/pull-api/internal/repository"
	"github.com/pull-events/pull-api/internal/utils"
)

// LoginResult is a signed staff session plus the worker it belongs to,
// with IDs already in opaque form.
type LoginResult struct {
	Token          utils.AccessToken
	ID             string
	Name           string
	Email          string
	Role           string
	OrganizationID string
	VenueID        string
}

// AuthService logs venue staff in.
type AuthService struct {
	db      database.Querier
	workers WorkerStore
	tokens  *utils.TokenIssuer
	codec   *codec.Codec
	log     *slog.Logger
}

func NewAuthService(db database.Querier, workers WorkerStore, tokens *utils.TokenIssuer, c *codec.Codec, log *slog.Logger) *AuthService {
	return &AuthService{db: db, workers: workers, tokens: tokens, codec: c, log: log}
}

// dummyHash keeps the failed-lookup path as slow as a wrong password.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3ZsB8ZC5xXyMGm6dC5jZ9gW"

// Login checks email and password against organization_workers.  Unknown
// emails, soft deleted workers and wrong passwords all yield the same
// AuthError.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}
	w, err := s.workers.ByEmail(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.VerifyPassword(dummyHash, password)
			return nil, apperr.Auth("invalid credentials")
		}
		return nil, internalErr(s.log, "staff login", err)
	}
	if !utils.VerifyPassword(w.PasswordHash, password) {
		return nil, apperr.Auth("invalid credentials")
	}

	claims := utils.StaffClaims{
		EmployeeID:     s.codec.EncodeID(w.ID),
		OrganizationID: s.codec.EncodeID(w.OrganizationID),
		VenueID:        s.codec.EncodeID(w.VenueID),
		Role:           w.Role,
		Email:          w.Email,
		Name:           w.FullName(),
	}
	tok, err := s.tokens.IssueStaff(claims)
	if err != nil {
		return nil, internalErr(s.log, "sign staff token", err)
	}
	return &LoginResult{
		Token:          tok,
		ID:             claims.EmployeeID,
		Name:           claims.Name,
		Email:          w.Email,
		Role:           w.Role,
		OrganizationID: claims.OrganizationID,
		VenueID:        claims.VenueID,
	}, nil
}

// Refresh re-issues a staff token that may have expired but is otherwise
// genuine.
func (s *AuthService) Refresh(raw string) (utils.AccessToken, error) {
	if strings.TrimSpace(raw) == "" {
		return utils.AccessToken{}, apperr.NoToken()
	}
	tok, _, err := s.tokens.RefreshStaff(raw)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidRole) || errors.Is(err, utils.ErrInvalidToken) {
			return utils.AccessToken{}, apperr.InvalidToken()
		}
		return utils.AccessToken{}, internalErr(s.log, "refresh staff token", err)
	}
	return tok, nil
}

// StaffIdentity decodes the opaque IDs of verified staff claims.
func StaffIdentity(c *codec.Codec, claims *utils.StaffClaims) (model.StaffIdentity, error) {
	emp, err := c.DecodeID(claims.EmployeeID)
	if err != nil {
		return model.StaffIdentity{}, err
	}
	org, err := c.DecodeID(claims.OrganizationID)
	if err != nil {
		return model.StaffIdentity{}, err
	}
	venue, err := c.DecodeID(claims.VenueID)
	if err != nil {
		return model.StaffIdentity{}, err
	}
	return model.StaffIdentity{EmployeeID: emp, OrganizationID: org, VenueID: venue, Role: claims.Role, Email: claims.Email, Name: claims.Name}, nil
}
