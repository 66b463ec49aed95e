// Package memory is an in-process implementation of the tenant and user
// repositories. It enforces the same uniqueness constraints as the MongoDB
// indexes and supports transactional rollback, which makes it suitable for
// local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tenantgate/identity-gateway/internal/core/domain"
)

// Store holds all records behind a single lock.
type Store struct {
	mu      sync.RWMutex
	tenants map[string]*domain.Tenant // by ID
	slugs   map[string]string         // slug -> tenant ID
	users   map[string]*domain.User   // by ID
	emails  map[string]string         // tenant ID + email -> user ID
}

func NewStore() *Store {
	return &Store{
		tenants: make(map[string]*domain.Tenant),
		slugs:   make(map[string]string),
		users:   make(map[string]*domain.User),
		emails:  make(map[string]string),
	}
}

func (s *Store) Tenants() *TenantRepository { return &TenantRepository{store: s} }
func (s *Store) Users() *UserRepository     { return &UserRepository{store: s} }
func (s *Store) Transactor() *Transactor    { return &Transactor{store: s} }

type txKey struct{}

type txLog struct {
	undo []func()
}

// record registers an undo step for the transaction carried by ctx, if any.
// Must be called with s.mu held.
func record(ctx context.Context, undo func()) {
	if log, ok := ctx.Value(txKey{}).(*txLog); ok {
		log.undo = append(log.undo, undo)
	}
}

// Transactor implements ports.Transactor by rolling back every write made
// through the transaction context when fn fails.
type Transactor struct {
	store *Store
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	if _, nested := ctx.Value(txKey{}).(*txLog); nested {
		return fn(ctx)
	}

	log := &txLog{}
	if err := fn(context.WithValue(ctx, txKey{}, log)); err != nil {
		t.store.mu.Lock()
		for i := len(log.undo) - 1; i >= 0; i-- {
			log.undo[i]()
		}
		t.store.mu.Unlock()
		return err
	}
	return nil
}

// TenantRepository implements ports.TenantRepository.
type TenantRepository struct {
	store *Store
}

func (r *TenantRepository) Create(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.slugs[tenant.Slug]; taken {
		return nil, domain.ErrTenantAlreadyExists
	}
	clone := *tenant
	s.tenants[clone.ID] = &clone
	s.slugs[clone.Slug] = clone.ID
	record(ctx, func() {
		delete(s.tenants, clone.ID)
		delete(s.slugs, clone.Slug)
	})

	out := clone
	return &out, nil
}

func (r *TenantRepository) FindBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.slugs[slug]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	out := *s.tenants[id]
	return &out, nil
}

func (r *TenantRepository) SlugExists(_ context.Context, slug string) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.slugs[slug]
	return ok, nil
}

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	store *Store
}

func emailKey(tenantID, email string) string {
	return tenantID + "\x00" + email
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(user.TenantID, user.Email)
	if _, taken := s.emails[key]; taken {
		return nil, domain.ErrUserExists
	}
	clone := *user
	s.users[clone.ID] = &clone
	s.emails[key] = clone.ID
	record(ctx, func() {
		delete(s.users, clone.ID)
		delete(s.emails, key)
	})

	out := clone
	return &out, nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) FindByEmailAndTenant(_ context.Context, email, tenantID string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[emailKey(tenantID, email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *s.users[id]
	return &out, nil
}

func (r *UserRepository) ListByTenant(_ context.Context, tenantID string) ([]*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.User, 0)
	for _, u := range s.users {
		if u.TenantID != tenantID {
			continue
		}
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
