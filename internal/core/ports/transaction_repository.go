package ports

import (
	"context"

	"github.com/moneyjar/jarledger/internal/core/domain"
)

// TransactionRepository defines persistence for the append-only ledger.
// Entries are never updated; deletion happens only via jar cascade-delete.
type TransactionRepository interface {
	Insert(ctx context.Context, tx *domain.Transaction) error
	// InsertPair persists the two rows of a transfer. Both rows are written
	// or neither is (callers additionally wrap the surrounding balance
	// updates in a UnitOfWork).
	InsertPair(ctx context.Context, out, in *domain.Transaction) error
	// FindByIdempotencyKey returns the entries previously recorded under the
	// given caller-supplied key: one for fill/spend, two for a transfer,
	// none when the key is unseen.
	FindByIdempotencyKey(ctx context.Context, key string) ([]*domain.Transaction, error)
	// ListByJar returns the jar's entries newest first. limit <= 0 means no
	// limit.
	ListByJar(ctx context.Context, jarID string, limit int64) ([]*domain.Transaction, error)
	// ListByUser returns the user's own ledger actions across all jars,
	// newest first, capped at limit.
	ListByUser(ctx context.Context, userID string, limit int64) ([]*domain.Transaction, error)
	DeleteByJar(ctx context.Context, jarID string) error
}
