package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by both access and refresh tokens.
// The flavour is not a field: only refresh tokens have a durable usage counter.
type Claims struct {
	UserID     int64    `json:"uid"`
	Username   string   `json:"username"`
	Roles      []string `json:"roles,omitempty"`
	ChainDepth int      `json:"chain_depth,omitempty"` // refresh tokens only

	jwt.RegisteredClaims
}

// NewClaims builds claims valid from issuedAt for ttl.
// Times are truncated to whole seconds so they survive encoding unchanged.
func NewClaims(userID int64, username string, roles []string, jti string, issuedAt time.Time, ttl time.Duration) *Claims {
	issuedAt = issuedAt.Truncate(time.Second)
	return &Claims{
		UserID:   userID,
		Username: username,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}
}

// JTI returns the unique token identifier
func (c *Claims) JTI() string {
	return c.ID
}

// Expiry returns the expiration time, zero when absent
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Issued returns the issued-at time, zero when absent
func (c *Claims) Issued() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// HasRole reports whether role is in the role list
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Remaining returns how long the token stays valid after now, never negative
func (c *Claims) Remaining(now time.Time) time.Duration {
	d := c.Expiry().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
