package errcode

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayeredError_New(t *testing.T) {
	err := New(ModuleSession, 1, "session", "error.session.invalid_token", "Invalid token", http.StatusUnauthorized)

	assert.Equal(t, 420001, err.Code())
	assert.Equal(t, "session", err.Module())
	assert.Equal(t, "error.session.invalid_token", err.MsgKey())
	assert.Equal(t, "Invalid token", err.Message())
	assert.Equal(t, http.StatusUnauthorized, err.HTTPStatus())
	assert.Nil(t, err.Data())
}

func TestLayeredError_DefaultStatus(t *testing.T) {
	err := New(ModuleAPI, 99, "api", "error.api.x", "x")
	assert.Equal(t, http.StatusOK, err.HTTPStatus())
}

func TestLayeredError_Wrap(t *testing.T) {
	base := New(ModuleRevocation, 1, "revocation", "error.revocation.unavailable", "Store unavailable", http.StatusServiceUnavailable)
	cause := errors.New("dial tcp: connection refused")

	wrapped := base.Wrap(cause)

	assert.Equal(t, "Store unavailable: dial tcp: connection refused", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, base)
	assert.Nil(t, base.Unwrap(), "original instance must not change")
	assert.Same(t, base, base.Wrap(nil))
}

func TestLayeredError_IsThroughFmtWrap(t *testing.T) {
	base := New(ModuleAuth, 1, "auth", "error.auth.invalid_credentials", "Invalid credentials")
	err := fmt.Errorf("login: %w", base.WithMsg("bad password"))

	assert.ErrorIs(t, err, base)

	le, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "bad password", le.Message())
	assert.Equal(t, "Invalid credentials", base.Message())
}

func TestLayeredError_WithData(t *testing.T) {
	base := New(ModuleAPI, 1, "api", "error.api.validation", "Validation failed")

	a := base.WithData("field", "username")
	b := a.WithData("reason", "too short")

	assert.Nil(t, base.Data())
	assert.Equal(t, map[string]any{"field": "username"}, a.Data())
	assert.Equal(t, map[string]any{"field": "username", "reason": "too short"}, b.Data())
}

func TestAs_NotLayered(t *testing.T) {
	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
	_, ok = As(nil)
	assert.False(t, ok)
}

func TestLayeredError_String(t *testing.T) {
	err := New(ModuleCommon, 1, "common", "k", "boom")
	assert.Equal(t, "LayeredError{code:100001, module:common, msg:boom}", err.String())
	assert.Contains(t, err.Wrap(errors.New("io")).String(), "cause:io")
}
