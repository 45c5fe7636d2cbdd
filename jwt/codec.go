package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var signingMethods = map[string]jwt.SigningMethod{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// Codec signs and verifies tokens. Pure: no I/O, safe for concurrent use.
type Codec struct {
	method  jwt.SigningMethod
	key     []byte
	issuer  string
	now     func() time.Time
	parser  *jwt.Parser
	decoder *jwt.Parser
}

// Option customises a Codec
type Option func(*Codec)

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec validates cfg and builds a codec
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Codec{
		method: signingMethods[cfg.Algorithm],
		key:    []byte(cfg.Secret),
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	valid := jwt.WithValidMethods([]string{c.method.Alg()})
	parserOpts := []jwt.ParserOption{
		valid,
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}
	c.parser = jwt.NewParser(parserOpts...)
	c.decoder = jwt.NewParser(valid, jwt.WithoutClaimsValidation())

	return c, nil
}

// Sign encodes and signs claims. The issuer is stamped when claims carry none.
func (c *Codec) Sign(claims *Claims) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("%w: nil claims", ErrEncoding)
	}

	cl := *claims
	if cl.Issuer == "" {
		cl.Issuer = c.issuer
	}

	token, err := jwt.NewWithClaims(c.method, &cl).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return token, nil
}

// Verify checks signature and expiry
func (c *Codec) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	if _, err := c.parser.ParseWithClaims(token, claims, c.keyFunc); err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

// Decode checks the signature only; expired tokens decode successfully
func (c *Codec) Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, err := c.decoder.ParseWithClaims(token, claims, c.keyFunc); err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

func (c *Codec) keyFunc(*jwt.Token) (any, error) {
	return c.key, nil
}

// classify maps library errors onto the codec's three failure kinds
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrInvalidSignature
	default:
		return ErrMalformed
	}
}
