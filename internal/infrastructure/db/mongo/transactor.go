package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs callbacks inside a multi-document transaction. MongoDB
// transactions need a replica set or sharded cluster.
type Transactor struct {
	client *mongo.Client
}

func NewTransactor(client *mongo.Client) *Transactor {
	return &Transactor{client: client}
}

// WithinTransaction runs fn in a transaction. Calls made while a session is
// already bound to ctx join that transaction instead of starting a new one.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
