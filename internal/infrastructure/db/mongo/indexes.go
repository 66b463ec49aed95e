package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes creates every index the repositories rely on. Uniqueness of
// tenant slugs and of (tenant, email) is enforced here, not only in services.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := NewTenantRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("tenant indexes: %w", err)
	}
	if err := NewUserRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	return nil
}
