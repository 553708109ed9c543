package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/moneyjar/jarledger/internal/core/domain"
)

// JarRepository defines persistence operations for jars.
type JarRepository interface {
	Create(ctx context.Context, jar *domain.Jar) error
	FindByID(ctx context.Context, jarID string) (*domain.Jar, error)
	// ListByOwner returns the owner's jars ordered by position ascending,
	// ties broken by creation time.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Jar, error)
	// CountByOwner returns the authoritative jar count for the owner. The
	// free-tier guard and position assignment both read this at operation
	// time; it must never be served from a cache.
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	// ApplyBalanceDelta adds delta to the jar's balance as a single atomic
	// server-side update and returns the resulting balance. When clampZero
	// is true the result is floored at zero. Concurrent deltas against the
	// same jar must not lose updates.
	ApplyBalanceDelta(ctx context.Context, jarID string, delta decimal.Decimal, clampZero bool) (decimal.Decimal, error)
	SetShared(ctx context.Context, jarID string, shared bool) error
	Delete(ctx context.Context, jarID string) error
}

// UnitOfWork groups several repository writes into one atomic unit. Either
// every write inside fn is persisted or none is; fn receives a context that
// repositories must use for all calls belonging to the unit.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
