package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tenantgate/identity-gateway/internal/core/domain"
	"github.com/tenantgate/identity-gateway/internal/core/ports"
)

// UserService serves user lookups confined to the caller's tenant.
type UserService struct {
	users  ports.UserRepository
	logger zerolog.Logger
}

func NewUserService(users ports.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// GetByID returns the user with the given ID only if it belongs to
// callerTenantID. A user in another tenant is reported exactly like a missing
// one: domain.ErrUserNotFound.
func (s *UserService) GetByID(ctx context.Context, id, callerTenantID string) (*domain.IdentitySummary, error) {
	if id == "" || callerTenantID == "" {
		return nil, domain.ErrUserNotFound
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.TenantID != callerTenantID {
		s.logger.Warn().
			Str("caller_tenant_id", callerTenantID).
			Str("user_id", id).
			Msg("cross-tenant lookup denied")
		return nil, domain.ErrUserNotFound
	}

	summary := user.Summary("")
	return &summary, nil
}

// ListByTenant returns the users of tenantID in the repository's stable order.
func (s *UserService) ListByTenant(ctx context.Context, tenantID string) ([]domain.IdentitySummary, error) {
	if tenantID == "" {
		return []domain.IdentitySummary{}, nil
	}

	users, err := s.users.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]domain.IdentitySummary, 0, len(users))
	for _, u := range users {
		// Never emit a user from another tenant, whatever the store returned.
		if u.TenantID != tenantID {
			continue
		}
		out = append(out, u.Summary(""))
	}
	return out, nil
}
