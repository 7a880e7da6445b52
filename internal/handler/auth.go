package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pull-events/pull-api/internal/apperr"
	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/middleware"
	"github.com/pull-events/pull-api/internal/service"
	"github.com/pull-events/pull-api/internal/utils"
)

// StaffAuth logs workers in and refreshes their sessions.
type StaffAuth interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Refresh(raw string) (utils.AccessToken, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth  StaffAuth
	Codec *codec.Codec
}

func NewAuthHandler(a StaffAuth, cd *codec.Codec) *AuthHandler {
	return &AuthHandler{Auth: a, Codec: cd}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	Token string `json:"token"`
}

// LoginWorkers handles POST /auth/login-workers.
func (h *AuthHandler) LoginWorkers(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"id":              res.ID,
			"name":            res.Name,
			"email":           res.Email,
			"role":            res.Role,
			"organization_id": res.OrganizationID,
			"venue_id":        res.VenueID,
		},
		"token":     res.Token.Token,
		"expiresAt": res.Token.Exp,
		"message":   "Login successful",
	})
}

// RefreshToken handles POST /auth/refresh-token.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Token == "" {
		return apperr.Validation("token is required")
	}
	tok, err := h.Auth.Refresh(req.Token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":     tok.Token,
		"expiresAt": tok.Exp,
		"message":   "Token refreshed successfully",
	})
}

// VerifyToken handles GET /auth/verify-token; StaffAuth middleware has
// already verified the session.
func (h *AuthHandler) VerifyToken(c echo.Context) error {
	staff, ok := middleware.Staff(c)
	if !ok {
		return apperr.NoToken()
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid": true,
		"user": echo.Map{
			"id":              h.Codec.EncodeID(staff.EmployeeID),
			"name":            staff.Name,
			"email":           staff.Email,
			"role":            staff.Role,
			"organization_id": h.Codec.EncodeID(staff.OrganizationID),
			"venue_id":        h.Codec.EncodeID(staff.VenueID),
		},
	})
}
