package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxnRunner implements ports.UnitOfWork on MongoDB session transactions.
// Repositories pick the session up from the context they receive, so every
// call made with the callback's context joins the same transaction.
//
// Requires a replica set (or mongos); standalone deployments reject
// transactions, in which case operations would need the compensating-write
// fallback instead.
type TxnRunner struct {
	client *mongo.Client
}

func NewTxnRunner(client *mongo.Client) *TxnRunner {
	return &TxnRunner{client: client}
}

// WithinTransaction runs fn inside a single session transaction. The driver
// retries on transient transaction errors; fn must therefore be safe to run
// more than once.
func (r *TxnRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
