package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tenantgate/identity-gateway/internal/core/domain"
)

// TenantCache caches tenant records by slug.
// Key format: tenant:slug:<slug>
type TenantCache struct {
	client *redis.Client
}

// NewTenantCache creates a TenantCache wrapping the given Redis client.
func NewTenantCache(client *redis.Client) *TenantCache {
	return &TenantCache{client: client}
}

// Get returns the cached tenant, or (nil, nil) on a miss.
func (c *TenantCache) Get(ctx context.Context, slug string) (*domain.Tenant, error) {
	raw, err := c.client.Get(ctx, c.key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tenant cache get: %w", err)
	}

	var t domain.Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("tenant cache decode: %w", err)
	}
	return &t, nil
}

// Set stores t under its slug for ttl.
func (c *TenantCache) Set(ctx context.Context, t *domain.Tenant, ttl time.Duration) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("tenant cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(t.Slug), raw, ttl).Err()
}

func (c *TenantCache) key(slug string) string {
	return "tenant:slug:" + slug
}
