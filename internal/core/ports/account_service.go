package ports

import (
	"context"

	"github.com/tenantgate/identity-gateway/internal/core/domain"
)

// RegisterInput carries the data needed to create a tenant and its first admin.
type RegisterInput struct {
	TenantName string
	TenantSlug string
	Email      string
	Password   string
	UserName   string
}

// LoginInput carries tenant-scoped credentials.
type LoginInput struct {
	TenantSlug string
	Email      string
	Password   string
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Token   string
	Summary domain.IdentitySummary
}

// AccountService handles registration and login.
type AccountService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
}

// UserService exposes tenant-scoped user lookups. callerTenantID always comes
// from the verified token, never from the request.
type UserService interface {
	GetByID(ctx context.Context, id, callerTenantID string) (*domain.IdentitySummary, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.IdentitySummary, error)
}

// TokenIssuer issues signed tokens for an identity.
type TokenIssuer interface {
	Issue(subjectID, tenantID, email string, role domain.Role) (string, error)
}
