package token

import (
	"context"
	"time"

	"github.com/tenantgate/identity-gateway/internal/core/domain"
)

// Identity is the verified content of a token. Its fields are unexported so
// the only way to obtain a populated Identity is a successful Codec.Verify.
type Identity struct {
	subject   string
	tenantID  string
	email     string
	role      domain.Role
	issuedAt  time.Time
	expiresAt time.Time
}

func (i Identity) Subject() string      { return i.subject }
func (i Identity) TenantID() string     { return i.tenantID }
func (i Identity) Email() string        { return i.email }
func (i Identity) Role() domain.Role    { return i.role }
func (i Identity) IssuedAt() time.Time  { return i.issuedAt }
func (i Identity) ExpiresAt() time.Time { return i.expiresAt }

// IsZero reports whether i was never populated by Verify.
func (i Identity) IsZero() bool {
	return i.subject == "" && i.tenantID == ""
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the verified identity attached to ctx by the
// authentication middleware. ok is false for unauthenticated requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, false
	}
	return id, true
}
