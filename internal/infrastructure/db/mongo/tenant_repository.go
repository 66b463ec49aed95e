package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tenantgate/identity-gateway/internal/core/domain"
)

const collectionTenants = "tenants"

type TenantRepository struct {
	col *mongo.Collection
}

func NewTenantRepository(db *mongo.Database) *TenantRepository {
	return &TenantRepository{col: db.Collection(collectionTenants)}
}

type tenantDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Slug      string    `bson:"slug"`
	Active    bool      `bson:"active"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *tenantDocument) toDomain() *domain.Tenant {
	return &domain.Tenant{
		ID:        d.ID,
		Name:      d.Name,
		Slug:      d.Slug,
		Active:    d.Active,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// Create inserts a tenant. The unique slug index turns a concurrent duplicate
// into domain.ErrTenantAlreadyExists.
func (r *TenantRepository) Create(ctx context.Context, t *domain.Tenant) (*domain.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := tenantDocument{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		Active:    t.Active,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrTenantAlreadyExists
		}
		return nil, fmt.Errorf("insert tenant: %w", err)
	}
	return doc.toDomain(), nil
}

// FindBySlug retrieves a tenant by its slug.
func (r *TenantRepository) FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc tenantDocument
	if err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	return doc.toDomain(), nil
}

// SlugExists reports whether a tenant already uses slug.
func (r *TenantRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count tenants: %w", err)
	}
	return n > 0, nil
}

// EnsureIndexes creates the unique slug index on the tenants collection.
func (r *TenantRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_slug"),
	})
	return err
}
