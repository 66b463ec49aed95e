package ports

import (
	"context"

	"github.com/tenantgate/identity-gateway/internal/core/domain"
)

// UserRepository defines persistence operations for users.
// Lookups return domain.ErrUserNotFound when nothing matches.
type UserRepository interface {
	// Create inserts a user. It returns domain.ErrUserExists when the
	// (email, tenant) pair is already taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmailAndTenant(ctx context.Context, email, tenantID string) (*domain.User, error)
	// ListByTenant returns the users of a tenant ordered by creation time, then ID.
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.User, error)
}
