package ports

import (
	"context"
	"time"

	"github.com/tenantgate/identity-gateway/internal/core/domain"
)

// TenantRepository defines persistence operations for tenants.
type TenantRepository interface {
	// Create inserts a tenant. Slug uniqueness is enforced by the store itself;
	// a collision returns domain.ErrTenantAlreadyExists.
	Create(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// Transactor runs fn inside a single storage transaction. If fn returns an
// error every write made through txCtx is discarded.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}

// TenantCache is an optional read-through cache for tenant lookups by slug.
// Get returns (nil, nil) on a miss.
type TenantCache interface {
	Get(ctx context.Context, slug string) (*domain.Tenant, error)
	Set(ctx context.Context, tenant *domain.Tenant, ttl time.Duration) error
}
