package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrOperationInFlight signals that another request holding the same
// idempotency key has not committed yet. The caller should retry; by then
// the first request has either committed (the retry replays it) or died
// (the key expires and the retry applies).
var ErrOperationInFlight = errors.New("operation already in progress")

// TransactionType encodes the direction of a ledger entry. Amounts are
// always stored positive; direction lives in the type, not the sign.
type TransactionType string

const (
	TxFill        TransactionType = "fill"
	TxSpend       TransactionType = "spend"
	TxTransferIn  TransactionType = "transfer_in"
	TxTransferOut TransactionType = "transfer_out"
)

// IsCredit reports whether the entry increases the jar's balance.
func (t TransactionType) IsCredit() bool {
	return t == TxFill || t == TxTransferIn
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TxFill, TxSpend, TxTransferIn, TxTransferOut:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry. Entries are append-only: never
// updated, deleted only when their jar is cascade-deleted.
//
// A transfer produces exactly two entries — transfer_out on the source jar
// and transfer_in on the destination — with equal amounts, equal timestamps
// and a shared TransferID.
type Transaction struct {
	ID             string          `json:"id"`
	JarID          string          `json:"jar_id"`
	UserID         string          `json:"user_id"`
	Type           TransactionType `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Note           string          `json:"note,omitempty"`
	Date           time.Time       `json:"date"`
	CreatedAt      time.Time       `json:"created_at"`
	TransferID     string          `json:"transfer_id,omitempty"`
	IdempotencyKey string          `json:"-"`
}
