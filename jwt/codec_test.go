package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec(Config{Secret: testSecret}, WithClock(clock.Now))
	require.NoError(t, err)
	return c
}

func TestCodec_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	tests := []struct {
		name   string
		claims *Claims
	}{
		{
			name:   "access token",
			claims: NewClaims(42, "alice", []string{"ROLE_USER", "ROLE_ADMIN"}, "jti-1", clock.t, 15*time.Minute),
		},
		{
			name: "refresh token with depth",
			claims: func() *Claims {
				c := NewClaims(7, "bob", []string{"ROLE_USER"}, "jti-2", clock.t, 7*24*time.Hour)
				c.ChainDepth = 2
				return c
			}(),
		},
		{
			name:   "no roles",
			claims: NewClaims(1, "carol", nil, "jti-3", clock.t, time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := codec.Sign(tt.claims)
			require.NoError(t, err)

			got, err := codec.Verify(token)
			require.NoError(t, err)

			assert.Equal(t, tt.claims.UserID, got.UserID)
			assert.Equal(t, tt.claims.Username, got.Username)
			assert.Equal(t, tt.claims.Roles, got.Roles)
			assert.Equal(t, tt.claims.ChainDepth, got.ChainDepth)
			assert.Equal(t, tt.claims.JTI(), got.JTI())
			assert.True(t, tt.claims.Issued().Equal(got.Issued()))
			assert.True(t, tt.claims.Expiry().Equal(got.Expiry()))
			assert.Equal(t, "tokenauthd", got.Issuer)
		})
	}
}

func TestCodec_SignIsDeterministic(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	codec := newTestCodec(t, clock)
	claims := NewClaims(42, "alice", []string{"ROLE_USER"}, "same", clock.t, time.Hour)

	a, err := codec.Sign(claims)
	require.NoError(t, err)
	b, err := codec.Sign(claims)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Empty(t, claims.Issuer, "Sign must not mutate the caller's claims")
}

// TestCodec_ExpiryBoundary 到期时刻即视为过期
func TestCodec_ExpiryBoundary(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	clock := &fakeClock{t: start}
	codec := newTestCodec(t, clock)

	token, err := codec.Sign(NewClaims(1, "u", nil, "j", start, time.Minute))
	require.NoError(t, err)

	clock.t = start.Add(time.Minute - time.Second)
	_, err = codec.Verify(token)
	assert.NoError(t, err)

	clock.t = start.Add(time.Minute)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)

	// Decode ignores expiry but still returns the claims
	got, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "j", got.JTI())
}

func TestCodec_InvalidSignature(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	codec := newTestCodec(t, clock)

	other, err := NewCodec(Config{Secret: strings.Repeat("x", 32)}, WithClock(clock.Now))
	require.NoError(t, err)

	token, err := other.Sign(NewClaims(1, "u", nil, "j", clock.t, time.Hour))
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

// TestCodec_SignatureCheckedBeforeExpiry 伪造且过期的 token 报签名错误
func TestCodec_SignatureCheckedBeforeExpiry(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	clock := &fakeClock{t: start}
	codec := newTestCodec(t, clock)

	other, err := NewCodec(Config{Secret: strings.Repeat("y", 32)}, WithClock(clock.Now))
	require.NoError(t, err)
	token, err := other.Sign(NewClaims(1, "u", nil, "j", start, time.Second))
	require.NoError(t, err)

	clock.t = start.Add(time.Hour)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCodec_WrongAlgorithm(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	codec := newTestCodec(t, clock)

	hs512, err := NewCodec(Config{Algorithm: "HS512", Secret: testSecret}, WithClock(clock.Now))
	require.NoError(t, err)
	token, err := hs512.Sign(NewClaims(1, "u", nil, "j", clock.t, time.Hour))
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// alg=none is never accepted
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, NewClaims(1, "u", nil, "j", clock.t, time.Hour)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = codec.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCodec_Malformed(t *testing.T) {
	codec := newTestCodec(t, &fakeClock{t: time.Now()})

	for _, token := range []string{"", "abc", "a.b.c", "not.a.token.at.all"} {
		_, err := codec.Verify(token)
		assert.ErrorIs(t, err, ErrMalformed, "token %q", token)
	}
}

func TestCodec_MissingExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	codec := newTestCodec(t, clock)

	claims := NewClaims(1, "u", nil, "j", clock.t, time.Hour)
	claims.ExpiresAt = nil
	token, err := codec.Sign(claims)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCodec_IssuerMismatch(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	codec := newTestCodec(t, clock)

	foreign, err := NewCodec(Config{Secret: testSecret, Issuer: "someone-else"}, WithClock(clock.Now))
	require.NoError(t, err)
	token, err := foreign.Sign(NewClaims(1, "u", nil, "j", clock.t, time.Hour))
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCodec_SignNil(t *testing.T) {
	codec := newTestCodec(t, &fakeClock{t: time.Now()})
	_, err := codec.Sign(nil)
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "valid HS256", cfg: Config{Algorithm: "HS256", Secret: testSecret}},
		{name: "valid HS512", cfg: Config{Algorithm: "HS512", Secret: testSecret}},
		{name: "empty secret", cfg: Config{Algorithm: "HS256"}, wantErr: ErrSecretEmpty},
		{name: "RS256 unsupported", cfg: Config{Algorithm: "RS256", Secret: testSecret}, wantErr: ErrAlgorithmNotSupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	short := Config{Algorithm: "HS256", Secret: "short"}
	assert.ErrorContains(t, short.Validate(), "at least 32 bytes")
}

func TestClaims_Helpers(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewClaims(1, "u", []string{"ROLE_USER"}, "j", now, time.Minute)

	assert.True(t, c.HasRole("ROLE_USER"))
	assert.False(t, c.HasRole("ROLE_ADMIN"))
	assert.Equal(t, 30*time.Second, c.Remaining(now.Add(30*time.Second)))
	assert.Zero(t, c.Remaining(now.Add(time.Hour)))

	var empty Claims
	assert.True(t, empty.Expiry().IsZero())
	assert.True(t, empty.Issued().IsZero())
}
