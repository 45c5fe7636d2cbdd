// Package api HTTP surface of the token service
package api

import (
	"context"

	"github.com/KOMKZ/go-yogan-tokenauth/auth"
	"github.com/KOMKZ/go-yogan-tokenauth/httpx"
	"github.com/KOMKZ/go-yogan-tokenauth/middleware"
	"github.com/gin-gonic/gin"
)

// AccountService is satisfied by *auth.Service
type AccountService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.User, error)
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.LoginResult, error)
	Logout(ctx context.Context, accessToken, refreshToken string)
	RefreshUsage(ctx context.Context, refreshToken string) (int, error)
	Profile(ctx context.Context, userID int64) (*auth.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
	BanUser(ctx context.Context, userID int64) error
	UnbanUser(ctx context.Context, userID int64) error
	RevokeSessions(ctx context.Context, userID int64) error
}

type Handler struct {
	accounts AccountService
}

func NewHandler(accounts AccountService) *Handler {
	return &Handler{accounts: accounts}
}

// Register
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "account"
// @Success 200 {object} auth.User
// @Failure 400 {object} httpx.Response "Validation failed"
// @Failure 409 {object} httpx.Response "Username taken"
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context, req *RegisterRequest) (*auth.User, error) {
	return h.accounts.Register(c.Request.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
}

// Login
// @Summary Exchange credentials for an access/refresh pair
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "credentials"
// @Success 200 {object} auth.LoginResult
// @Failure 401 {object} httpx.Response "Invalid credentials"
// @Failure 403 {object} httpx.Response "Account banned or locked"
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context, req *LoginRequest) (*auth.LoginResult, error) {
	return h.accounts.Login(c.Request.Context(), req.Username, req.Password)
}

// Refresh
// @Summary Rotate a refresh token into a new pair
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest true "refresh token"
// @Success 200 {object} auth.LoginResult
// @Failure 401 {object} httpx.Response "Invalid, revoked, exhausted or too deep"
// @Failure 503 {object} httpx.Response "Revocation store unavailable"
// @Router /auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context, req *RefreshRequest) (*auth.LoginResult, error) {
	return h.accounts.Refresh(c.Request.Context(), req.RefreshToken)
}

// Logout always answers 200, even for missing, malformed or dead tokens
// @Summary Invalidate the presented tokens; always succeeds
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Param body body LogoutRequest false "optional refresh token"
// @Success 200 {object} httpx.Response
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	var req LogoutRequest
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&req)
	}
	h.accounts.Logout(c.Request.Context(), middleware.BearerToken(c), req.RefreshToken)
	httpx.OkJson(c, nil)
}

// RefreshUsage
// @Summary Remaining exchanges for a refresh token
// @Tags auth
// @Produce json
// @Param refreshToken query string true "refresh token"
// @Success 200 {object} UsageResponse
// @Failure 401 {object} httpx.Response "Invalid refresh token"
// @Router /auth/refresh-token/usage [get]
func (h *Handler) RefreshUsage(c *gin.Context, req *RefreshRequest) (*UsageResponse, error) {
	n, err := h.accounts.RefreshUsage(c.Request.Context(), req.RefreshToken)
	if err != nil {
		return nil, err
	}
	return &UsageResponse{RemainingUsage: n}, nil
}

func (h *Handler) Me(c *gin.Context, _ *Empty) (*auth.User, error) {
	id, _ := middleware.GetUserID(c)
	return h.accounts.Profile(c.Request.Context(), id)
}

func (h *Handler) ChangePassword(c *gin.Context, req *ChangePasswordRequest) (*Empty, error) {
	id, _ := middleware.GetUserID(c)
	if err := h.accounts.ChangePassword(c.Request.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (h *Handler) BanUser(c *gin.Context, req *UserIDRequest) (*Empty, error) {
	return &Empty{}, h.accounts.BanUser(c.Request.Context(), req.ID)
}

func (h *Handler) UnbanUser(c *gin.Context, req *UserIDRequest) (*Empty, error) {
	return &Empty{}, h.accounts.UnbanUser(c.Request.Context(), req.ID)
}

// RevokeSessions
// @Summary Revoke every live token of a user
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path int true "user id"
// @Success 200 {object} httpx.Response
// @Failure 503 {object} httpx.Response "Revocation store unavailable"
// @Router /admin/users/{id}/sessions/revoke [post]
func (h *Handler) RevokeSessions(c *gin.Context, req *UserIDRequest) (*Empty, error) {
	return &Empty{}, h.accounts.RevokeSessions(c.Request.Context(), req.ID)
}
