// Package token issues and verifies the signed bearer credentials that bind a
// user to a tenant. Tokens are HS256 JWTs; the signing key never leaves the
// process that loaded it.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tenantgate/identity-gateway/internal/core/domain"
)

const (
	DefaultTTL = 24 * time.Hour
	issuer     = "identity-gateway"
)

var errEmptySecret = errors.New("token: signing secret must not be empty")

type claims struct {
	TenantID string      `json:"tenant_id"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a single symmetric key.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for issued-at and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec returns a Codec signing with secret. A non-positive ttl falls back
// to DefaultTTL.
func NewCodec(secret []byte, ttl time.Duration, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Codec{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the lifetime given to every issued token.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the given identity. Timestamps carry second
// precision: issued-at is truncated to the whole second and the expiry is
// derived from that truncated value, so a token may expire up to one second
// before ttl has elapsed since the actual call.
func (c *Codec) Issue(subjectID, tenantID, email string, role domain.Role) (string, error) {
	issuedAt := c.now().UTC().Truncate(time.Second)
	cl := claims{
		TenantID: tenantID,
		Email:    email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
}

// Verify checks the signature and structure of raw first, then its expiry.
// A token is valid while now <= expiry. Any failure returns a
// *VerificationError and a zero Identity.
func (c *Codec) Verify(raw string) (Identity, error) {
	var cl claims
	_, err := jwt.ParseWithClaims(raw, &cl, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Identity{}, classify(err)
	}

	if cl.Subject == "" || cl.TenantID == "" || !cl.Role.Valid() ||
		cl.IssuedAt == nil || cl.ExpiresAt == nil ||
		!cl.ExpiresAt.Time.After(cl.IssuedAt.Time) {
		return Identity{}, &VerificationError{Kind: ErrMalformed}
	}

	if c.now().After(cl.ExpiresAt.Time) {
		return Identity{}, &VerificationError{Kind: ErrExpired}
	}

	return Identity{
		subject:   cl.Subject,
		tenantID:  cl.TenantID,
		email:     cl.Email,
		role:      cl.Role,
		issuedAt:  cl.IssuedAt.Time.UTC(),
		expiresAt: cl.ExpiresAt.Time.UTC(),
	}, nil
}

// ExtractSubject verifies raw and returns its subject (user ID).
func (c *Codec) ExtractSubject(raw string) (string, error) {
	id, err := c.Verify(raw)
	return id.Subject(), err
}

// ExtractTenant verifies raw and returns its tenant ID.
func (c *Codec) ExtractTenant(raw string) (string, error) {
	id, err := c.Verify(raw)
	return id.TenantID(), err
}

// ExtractEmail verifies raw and returns its email claim.
func (c *Codec) ExtractEmail(raw string) (string, error) {
	id, err := c.Verify(raw)
	return id.Email(), err
}

// ExtractRole verifies raw and returns its role claim.
func (c *Codec) ExtractRole(raw string) (domain.Role, error) {
	id, err := c.Verify(raw)
	return id.Role(), err
}

func classify(err error) *VerificationError {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &VerificationError{Kind: ErrInvalidSignature, Err: err}
	default:
		return &VerificationError{Kind: ErrMalformed, Err: err}
	}
}
