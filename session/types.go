package session

import (
	"context"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/jwt"
)

// Subject is the identity a token pair is issued to
type Subject struct {
	ID    int64
	Name  string
	Roles []string
}

// SubjectFromClaims rebuilds the subject carried by a token
func SubjectFromClaims(c *jwt.Claims) Subject {
	return Subject{ID: c.UserID, Name: c.Username, Roles: c.Roles}
}

// TokenPair is returned by Issue and Rotate
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
	ChainDepth       int       `json:"chainDepth"`
}

// SubjectResolver produces the subject for a rotated pair, e.g. reloading roles.
// Its error is returned by RotateAs unchanged.
type SubjectResolver func(ctx context.Context, claims *jwt.Claims) (Subject, error)
