package middleware

import (
	"context"
	"strings"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
	"github.com/KOMKZ/go-yogan-tokenauth/httpx"
	"github.com/KOMKZ/go-yogan-tokenauth/jwt"
	"github.com/gin-gonic/gin"
)

const claimsKey = "auth_claims"

// ErrTokenMissing no bearer token on a protected route
var ErrTokenMissing = errcode.ErrUnauthorized.WithMsg("Missing bearer token")

// TokenValidator is satisfied by session.Manager
type TokenValidator interface {
	Validate(ctx context.Context, accessToken string) (*jwt.Claims, error)
}

// AuthConfig bearer authentication options
type AuthConfig struct {
	Skipper func(*gin.Context) bool

	// Header carrying the token, default Authorization
	Header string

	// Scheme prefix stripped from the header value, default Bearer
	Scheme string
}

// Auth rejects requests without a live access token and stores its claims
func Auth(v TokenValidator) gin.HandlerFunc {
	return AuthWithConfig(v, AuthConfig{})
}

// AuthWithConfig Auth with custom header / scheme
func AuthWithConfig(v TokenValidator, cfg AuthConfig) gin.HandlerFunc {
	if cfg.Header == "" {
		cfg.Header = "Authorization"
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "Bearer"
	}

	return func(c *gin.Context) {
		if cfg.Skipper != nil && cfg.Skipper(c) {
			c.Next()
			return
		}

		token := extractToken(c.GetHeader(cfg.Header), cfg.Scheme)
		if token == "" {
			httpx.HandleError(c, ErrTokenMissing)
			return
		}

		claims, err := v.Validate(c.Request.Context(), token)
		if err != nil {
			httpx.HandleError(c, err)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole must run after Auth
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			httpx.HandleError(c, ErrTokenMissing)
			return
		}
		if !claims.HasRole(role) {
			httpx.HandleError(c, errcode.ErrForbidden)
			return
		}
		c.Next()
	}
}

// BearerToken reads the Authorization header without validating it
func BearerToken(c *gin.Context) string {
	return extractToken(c.GetHeader("Authorization"), "Bearer")
}

func extractToken(header, scheme string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	prefix := scheme + " "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	// 无前缀时整个值即 token
	if !strings.Contains(header, " ") {
		return header
	}
	return ""
}

// GetClaims returns the claims stored by Auth
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

// GetUserID 从上下文获取当前用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	claims, ok := GetClaims(c)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}
