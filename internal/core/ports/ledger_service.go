package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/moneyjar/jarledger/internal/core/domain"
)

// LedgerEntryInput carries a single-jar operation (fill or spend) from the
// transport layer to the ledger.
type LedgerEntryInput struct {
	JarID   string
	ActorID string
	Amount  decimal.Decimal
	Note    string
	// IdempotencyKey, when non-empty, makes retries of the same request
	// safe: a replay returns the previously recorded entry without applying
	// the balance change again.
	IdempotencyKey string
}

// TransferInput carries a jar-to-jar transfer request.
type TransferInput struct {
	FromJarID      string
	ToJarID        string
	ActorID        string
	Amount         decimal.Decimal
	Note           string
	IdempotencyKey string
}

// EntryResult is returned by Fill and Spend.
type EntryResult struct {
	Transaction *domain.Transaction
	// Balance is the jar's balance after the operation.
	Balance decimal.Decimal
	// Replayed is true when the idempotency key matched a previous request
	// and no new writes were performed.
	Replayed bool
}

// TransferResult is returned by Transfer. Out and In are the paired
// transfer_out / transfer_in entries.
type TransferResult struct {
	Out         *domain.Transaction
	In          *domain.Transaction
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
	Replayed    bool
}

// LedgerService computes and persists balance mutations with their paired
// audit entries. All writes of one operation are atomic: no partial transfer
// (one-sided debit or credit) is ever observable.
type LedgerService interface {
	Fill(ctx context.Context, input LedgerEntryInput) (*EntryResult, error)
	Spend(ctx context.Context, input LedgerEntryInput) (*EntryResult, error)
	Transfer(ctx context.Context, input TransferInput) (*TransferResult, error)
}
