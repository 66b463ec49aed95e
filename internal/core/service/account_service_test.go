package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tenantgate/identity-gateway/internal/core/domain"
	"github.com/tenantgate/identity-gateway/internal/core/ports"
	"github.com/tenantgate/identity-gateway/internal/core/token"
	"github.com/tenantgate/identity-gateway/internal/infrastructure/db/memory"
)

type fixture struct {
	store *memory.Store
	codec *token.Codec
	svc   *AccountService
}

func newFixture(t *testing.T, opts ...AccountOption) *fixture {
	t.Helper()
	store := memory.NewStore()
	codec, err := token.NewCodec([]byte("test-secret-test-secret-test-sec"), time.Hour)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	opts = append([]AccountOption{WithHashCost(bcrypt.MinCost)}, opts...)
	svc, err := NewAccountService(store.Tenants(), store.Users(), store.Transactor(), codec, zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return &fixture{store: store, codec: codec, svc: svc}
}

func acmeRegistration() ports.RegisterInput {
	return ports.RegisterInput{
		TenantName: "Acme Inc",
		TenantSlug: "acme",
		Email:      "admin@acme.com",
		Password:   "password123",
		UserName:   "Admin",
	}
}

func TestAccountService_Register_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, acmeRegistration())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token")
	}
	if res.Summary.Role != domain.RoleAdmin {
		t.Fatalf("tenant creator must be ADMIN, got %s", res.Summary.Role)
	}
	if res.Summary.TenantName != "Acme Inc" || res.Summary.Email != "admin@acme.com" || res.Summary.Name != "Admin" {
		t.Fatalf("unexpected summary: %+v", res.Summary)
	}

	tenant, err := f.store.Tenants().FindBySlug(ctx, "acme")
	if err != nil {
		t.Fatalf("tenant not stored: %v", err)
	}
	user, err := f.store.Users().FindByID(ctx, res.Summary.UserID)
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if user.PasswordHash == "password123" {
		t.Fatalf("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	id, err := f.codec.Verify(res.Token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if id.Subject() != user.ID || id.TenantID() != tenant.ID {
		t.Fatalf("token identity (%s, %s) does not match created user (%s, %s)", id.Subject(), id.TenantID(), user.ID, tenant.ID)
	}
}

func TestAccountService_Register_NormalizesInput(t *testing.T) {
	f := newFixture(t)
	in := acmeRegistration()
	in.TenantSlug = "  ACME "
	in.Email = " Admin@ACME.com"

	res, err := f.svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Summary.Email != "admin@acme.com" {
		t.Fatalf("email not normalized: %s", res.Summary.Email)
	}
	if _, err := f.store.Tenants().FindBySlug(context.Background(), "acme"); err != nil {
		t.Fatalf("slug not normalized: %v", err)
	}
}

func TestAccountService_Register_Validation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]func(*ports.RegisterInput){
		"missing tenant name": func(in *ports.RegisterInput) { in.TenantName = " " },
		"short slug":          func(in *ports.RegisterInput) { in.TenantSlug = "ab" },
		"long slug":           func(in *ports.RegisterInput) { in.TenantSlug = "a123456789a123456789a123456789a123456789a1234567890" },
		"slug with space":     func(in *ports.RegisterInput) { in.TenantSlug = "ac me" },
		"bad email":           func(in *ports.RegisterInput) { in.Email = "not-an-email" },
		"short password":      func(in *ports.RegisterInput) { in.Password = "short" },
		"missing user name":   func(in *ports.RegisterInput) { in.UserName = "" },
	}
	for name, mutate := range cases {
		in := acmeRegistration()
		mutate(&in)
		if _, err := f.svc.Register(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", name, err)
		}
	}
}

func TestAccountService_Register_DuplicateSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, acmeRegistration()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	in := acmeRegistration()
	in.Email = "other@acme.com"
	if _, err := f.svc.Register(ctx, in); !errors.Is(err, domain.ErrTenantAlreadyExists) {
		t.Fatalf("expected ErrTenantAlreadyExists, got %v", err)
	}
}

func TestAccountService_Register_ConcurrentSameSlug(t *testing.T) {
	f := newFixture(t)

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Register(context.Background(), acmeRegistration())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrTenantAlreadyExists):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || conflicts != attempts-1 {
		t.Fatalf("expected exactly one success, got %d successes and %d conflicts", succeeded, conflicts)
	}
}

// failingUsers lets tenant creation succeed and then fails the user insert.
type failingUsers struct {
	ports.UserRepository
	err error
}

func (f failingUsers) Create(context.Context, *domain.User) (*domain.User, error) {
	return nil, f.err
}

func TestAccountService_Register_IsAtomic(t *testing.T) {
	store := memory.NewStore()
	codec, _ := token.NewCodec([]byte("test-secret-test-secret-test-sec"), time.Hour)
	storageErr := errors.New("disk on fire")
	svc, err := NewAccountService(store.Tenants(), failingUsers{UserRepository: store.Users(), err: storageErr},
		store.Transactor(), codec, zerolog.Nop(), WithHashCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	if _, err := svc.Register(context.Background(), acmeRegistration()); !errors.Is(err, storageErr) {
		t.Fatalf("expected storage error to propagate, got %v", err)
	}
	if exists, _ := store.Tenants().SlugExists(context.Background(), "acme"); exists {
		t.Fatalf("tenant must not exist after failed registration")
	}
}

func TestAccountService_Login_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, acmeRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := f.svc.Login(ctx, ports.LoginInput{TenantSlug: "acme", Email: "ADMIN@acme.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token")
	}
	if res.Summary != reg.Summary {
		t.Fatalf("login summary %+v differs from register summary %+v", res.Summary, reg.Summary)
	}

	id, err := f.codec.Verify(res.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if id.Role() != domain.RoleAdmin || id.Subject() != reg.Summary.UserID {
		t.Fatalf("unexpected identity: %s %s", id.Role(), id.Subject())
	}
}

func TestAccountService_Login_FailuresAreUndifferentiated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Register(ctx, acmeRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	other := acmeRegistration()
	other.TenantSlug = "globex"
	other.Email = "boss@globex.com"
	if _, err := f.svc.Register(ctx, other); err != nil {
		t.Fatalf("register globex: %v", err)
	}

	cases := map[string]ports.LoginInput{
		"unknown tenant": {TenantSlug: "nope", Email: "admin@acme.com", Password: "password123"},
		"unknown user":   {TenantSlug: "acme", Email: "ghost@acme.com", Password: "password123"},
		"wrong password": {TenantSlug: "acme", Email: "admin@acme.com", Password: "wrong-password"},
		"wrong tenant":   {TenantSlug: "globex", Email: "admin@acme.com", Password: "password123"},
		"empty input":    {},
	}
	for name, in := range cases {
		res, err := f.svc.Login(ctx, in)
		if err != domain.ErrInvalidCredentials {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", name, err)
		}
		if res != nil {
			t.Fatalf("%s: result must be nil on failure", name)
		}
	}
}

type inactiveTenants struct {
	ports.TenantRepository
}

func (r inactiveTenants) FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	t, err := r.TenantRepository.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	t.Active = false
	return t, nil
}

func TestAccountService_Login_InactiveTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Register(ctx, acmeRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	svc, _ := NewAccountService(inactiveTenants{f.store.Tenants()}, f.store.Users(), f.store.Transactor(), f.codec,
		zerolog.Nop(), WithHashCost(bcrypt.MinCost))
	if _, err := svc.Login(ctx, ports.LoginInput{TenantSlug: "acme", Email: "admin@acme.com", Password: "password123"}); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

type brokenTenants struct {
	ports.TenantRepository
	err error
}

func (r brokenTenants) FindBySlug(context.Context, string) (*domain.Tenant, error) {
	return nil, r.err
}

func TestAccountService_Login_PersistenceFailurePropagates(t *testing.T) {
	store := memory.NewStore()
	codec, _ := token.NewCodec([]byte("test-secret-test-secret-test-sec"), time.Hour)
	storageErr := errors.New("connection reset")
	svc, _ := NewAccountService(brokenTenants{store.Tenants(), storageErr}, store.Users(), store.Transactor(), codec,
		zerolog.Nop(), WithHashCost(bcrypt.MinCost))

	_, err := svc.Login(context.Background(), ports.LoginInput{TenantSlug: "acme", Email: "a@acme.com", Password: "password123"})
	if !errors.Is(err, storageErr) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("storage failure must not be reported as invalid credentials")
	}
}

type stubTenantCache struct {
	mu      sync.Mutex
	entries map[string]domain.Tenant
	getErr  error
	gets    int
	sets    int
}

func newStubTenantCache() *stubTenantCache {
	return &stubTenantCache{entries: make(map[string]domain.Tenant)}
}

func (c *stubTenantCache) Get(_ context.Context, slug string) (*domain.Tenant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	t, ok := c.entries[slug]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (c *stubTenantCache) Set(_ context.Context, t *domain.Tenant, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[t.Slug] = *t
	return nil
}

func TestAccountService_Login_UsesTenantCache(t *testing.T) {
	cache := newStubTenantCache()
	f := newFixture(t, WithTenantCache(cache, time.Minute))
	ctx := context.Background()
	if _, err := f.svc.Register(ctx, acmeRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	in := ports.LoginInput{TenantSlug: "acme", Email: "admin@acme.com", Password: "password123"}
	for i := 0; i < 3; i++ {
		if _, err := f.svc.Login(ctx, in); err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
	}
	if cache.sets != 1 {
		t.Fatalf("expected a single cache fill, got %d", cache.sets)
	}
	if cache.gets != 3 {
		t.Fatalf("expected 3 cache reads, got %d", cache.gets)
	}
}

func TestAccountService_Login_CacheErrorIsBypassed(t *testing.T) {
	cache := newStubTenantCache()
	cache.getErr = errors.New("redis down")
	f := newFixture(t, WithTenantCache(cache, time.Minute))
	ctx := context.Background()
	if _, err := f.svc.Register(ctx, acmeRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := f.svc.Login(ctx, ports.LoginInput{TenantSlug: "acme", Email: "admin@acme.com", Password: "password123"}); err != nil {
		t.Fatalf("login must fall back to the repository: %v", err)
	}
}
