package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tenantgate/identity-gateway/internal/core/domain"
	"github.com/tenantgate/identity-gateway/internal/core/ports"
)

const (
	MinPasswordLength     = 8
	defaultTenantCacheTTL = 5 * time.Minute
)

// AccountService implements tenant registration and login.
type AccountService struct {
	tenants  ports.TenantRepository
	users    ports.UserRepository
	tx       ports.Transactor
	issuer   ports.TokenIssuer
	cache    ports.TenantCache
	cacheTTL time.Duration
	hashCost int
	now      func() time.Time
	logger   zerolog.Logger

	// dummyHash is compared against when the tenant or user does not exist so
	// every failed login pays for one bcrypt comparison.
	dummyHash []byte
}

// AccountOption customises an AccountService.
type AccountOption func(*AccountService)

// WithTenantCache puts cache in front of tenant lookups during login.
func WithTenantCache(cache ports.TenantCache, ttl time.Duration) AccountOption {
	return func(s *AccountService) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithHashCost sets the bcrypt cost used for new password hashes.
func WithHashCost(cost int) AccountOption {
	return func(s *AccountService) { s.hashCost = cost }
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) AccountOption {
	return func(s *AccountService) { s.now = now }
}

func NewAccountService(
	tenants ports.TenantRepository,
	users ports.UserRepository,
	tx ports.Transactor,
	issuer ports.TokenIssuer,
	logger zerolog.Logger,
	opts ...AccountOption,
) (*AccountService, error) {
	s := &AccountService{
		tenants:  tenants,
		users:    users,
		tx:       tx,
		issuer:   issuer,
		cacheTTL: defaultTenantCacheTTL,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("account service: %w", err)
	}
	s.dummyHash = dummy
	return s, nil
}

// Register creates a tenant together with its first user, who is always an
// ADMIN, and returns a token for that user. Tenant and user are written in one
// transaction: either both exist afterwards or neither does.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	slug := domain.NormalizeSlug(in.TenantSlug)
	email := domain.NormalizeEmail(in.Email)
	tenantName := strings.TrimSpace(in.TenantName)
	userName := strings.TrimSpace(in.UserName)

	if err := validateRegistration(tenantName, slug, email, in.Password, userName); err != nil {
		return nil, err
	}

	// Hash outside the transaction; bcrypt is deliberately slow.
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	var (
		tenant *domain.Tenant
		user   *domain.User
	)
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		exists, err := s.tenants.SlugExists(txCtx, slug)
		if err != nil {
			return fmt.Errorf("check tenant slug: %w", err)
		}
		if exists {
			return domain.ErrTenantAlreadyExists
		}

		tenant, err = s.tenants.Create(txCtx, &domain.Tenant{
			ID:        uuid.NewString(),
			Name:      tenantName,
			Slug:      slug,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}

		user, err = s.users.Create(txCtx, &domain.User{
			ID:           uuid.NewString(),
			TenantID:     tenant.ID,
			Email:        email,
			PasswordHash: string(hash),
			Name:         userName,
			Role:         domain.RoleAdmin,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrTenantAlreadyExists) {
			s.logger.Info().Str("tenant_slug", slug).Msg("registration rejected: slug taken")
			return nil, domain.ErrTenantAlreadyExists
		}
		s.logger.Error().Err(err).Str("tenant_slug", slug).Msg("registration failed")
		return nil, fmt.Errorf("register: %w", err)
	}

	token, err := s.issuer.Issue(user.ID, tenant.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("register: issue token: %w", err)
	}

	s.logger.Info().
		Str("tenant_id", tenant.ID).
		Str("tenant_slug", tenant.Slug).
		Str("user_id", user.ID).
		Msg("tenant registered")

	return &ports.AuthResult{Token: token, Summary: user.Summary(tenant.Name)}, nil
}

// Login authenticates a user within a tenant. Unknown tenant, unknown user,
// wrong password and inactive account all return domain.ErrInvalidCredentials,
// and each of them costs one bcrypt comparison.
func (s *AccountService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	slug := domain.NormalizeSlug(in.TenantSlug)
	email := domain.NormalizeEmail(in.Email)

	var (
		tenant *domain.Tenant
		user   *domain.User
		err    error
	)
	if slug != "" && email != "" {
		tenant, err = s.findTenant(ctx, slug)
		if err != nil && !errors.Is(err, domain.ErrTenantNotFound) {
			return nil, fmt.Errorf("login: find tenant: %w", err)
		}
	}
	if tenant != nil {
		user, err = s.users.FindByEmailAndTenant(ctx, email, tenant.ID)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("login: find user: %w", err)
		}
	}

	hash := s.dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	passwordOK := bcrypt.CompareHashAndPassword(hash, []byte(in.Password)) == nil

	if user == nil || !passwordOK || !tenant.Active || !user.Active {
		s.logger.Debug().Str("tenant_slug", slug).Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID, tenant.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	s.logger.Info().Str("tenant_id", tenant.ID).Str("user_id", user.ID).Msg("login succeeded")
	return &ports.AuthResult{Token: token, Summary: user.Summary(tenant.Name)}, nil
}

// findTenant consults the cache first. Cache errors are logged and bypassed.
func (s *AccountService) findTenant(ctx context.Context, slug string) (*domain.Tenant, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, slug)
		if err != nil {
			s.logger.Warn().Err(err).Str("tenant_slug", slug).Msg("tenant cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	tenant, err := s.tenants.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, tenant, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("tenant_slug", slug).Msg("tenant cache write failed")
		}
	}
	return tenant, nil
}

func validateRegistration(tenantName, slug, email, password, userName string) error {
	switch {
	case tenantName == "":
		return fmt.Errorf("%w: tenant name is required", domain.ErrValidation)
	case !domain.ValidSlug(slug):
		return fmt.Errorf("%w: tenant slug must be %d-%d lowercase letters, digits or hyphens",
			domain.ErrValidation, domain.SlugMinLength, domain.SlugMaxLength)
	case email == "" || !strings.Contains(email, "@"):
		return fmt.Errorf("%w: email must be a valid email", domain.ErrValidation)
	case len(password) < MinPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, MinPasswordLength)
	case userName == "":
		return fmt.Errorf("%w: user name is required", domain.ErrValidation)
	}
	return nil
}
