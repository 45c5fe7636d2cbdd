package session

import (
	"errors"
	"net/http"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
	"github.com/KOMKZ/go-yogan-tokenauth/jwt"
)

// Externally visible outcomes. Callers cannot tell why a token was refused.
var (
	ErrInvalidToken = errcode.Register(errcode.New(errcode.ModuleSession, 1, "session",
		"error.session.invalid_token", "Invalid token", http.StatusUnauthorized))

	ErrInvalidRefreshToken = errcode.Register(errcode.New(errcode.ModuleSession, 2, "session",
		"error.session.invalid_refresh_token", "Invalid refresh token", http.StatusUnauthorized))
)

// Internal refusal reasons; logged and used as metric labels only
const (
	reasonMalformed        = "malformed"
	reasonInvalidSignature = "invalid_signature"
	reasonExpired          = "expired"
	reasonRevoked          = "revoked"
	reasonWrongType        = "wrong_type"
	reasonChainExceeded    = "chain_exceeded"
	reasonUsageExceeded    = "usage_exceeded"
	reasonStoreUnavailable = "store_unavailable"
	resultOK               = "ok"
)

func codecReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return reasonExpired
	case errors.Is(err, jwt.ErrInvalidSignature):
		return reasonInvalidSignature
	default:
		return reasonMalformed
	}
}
