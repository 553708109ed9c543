package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/moneyjar/jarledger/internal/api/metrics"
	"github.com/moneyjar/jarledger/internal/core/domain"
	"github.com/moneyjar/jarledger/internal/core/ports"
)

// OperationGuard is the idempotency fast-path store (Redis). Acquire claims
// an operation key; a second Acquire with the same key reports false until
// the key expires or is released. It is best-effort only — the durable
// idempotency record lives on the transaction rows themselves.
type OperationGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type ledgerService struct {
	jars    ports.JarRepository
	txs     ports.TransactionRepository
	members ports.MemberRepository
	uow     ports.UnitOfWork
	guard   OperationGuard
	log     zerolog.Logger
}

// NewLedgerService returns a LedgerService implementation.
func NewLedgerService(
	jars ports.JarRepository,
	txs ports.TransactionRepository,
	members ports.MemberRepository,
	uow ports.UnitOfWork,
	guard OperationGuard,
	log zerolog.Logger,
) ports.LedgerService {
	return &ledgerService{
		jars:    jars,
		txs:     txs,
		members: members,
		uow:     uow,
		guard:   guard,
		log:     log,
	}
}

// Fill credits the jar and appends one fill entry.
func (s *ledgerService) Fill(ctx context.Context, input ports.LedgerEntryInput) (*ports.EntryResult, error) {
	return s.applyEntry(ctx, input, domain.TxFill)
}

// Spend debits the jar, clamped at zero, and appends one spend entry
// carrying the full requested amount. Overspending is allowed: the audit
// trail shows intent, the jar state shows a floor.
func (s *ledgerService) Spend(ctx context.Context, input ports.LedgerEntryInput) (*ports.EntryResult, error) {
	return s.applyEntry(ctx, input, domain.TxSpend)
}

func (s *ledgerService) applyEntry(ctx context.Context, input ports.LedgerEntryInput, kind domain.TransactionType) (*ports.EntryResult, error) {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues(string(kind)))
	defer timer.ObserveDuration()

	if !input.Amount.IsPositive() {
		metrics.OperationErrorsTotal.WithLabelValues("invalid_amount").Inc()
		return nil, domain.ErrInvalidAmount
	}

	// 1. Durable replay check — a seen key returns the original entry
	// without touching balances.
	if input.IdempotencyKey != "" {
		if res, err := s.replayEntry(ctx, input.IdempotencyKey, kind); err != nil || res != nil {
			return res, err
		}
	}

	// 2. Resolve the jar for the actor (owner or accepted editor).
	jar, err := resolveJar(ctx, s.jars, s.members, input.JarID, input.ActorID, true)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues(errorReason(err)).Inc()
		return nil, err
	}

	// 3. Claim the fast-path key before writing. Losing the claim means
	// another request with the same key is racing us: serve its result if it
	// committed between step 1 and now, otherwise reject so only one request
	// per key ever reaches the write.
	if !s.acquireGuard(ctx, input.IdempotencyKey) {
		if res, err := s.replayEntry(ctx, input.IdempotencyKey, kind); err != nil || res != nil {
			return res, err
		}
		metrics.OperationErrorsTotal.WithLabelValues("in_flight").Inc()
		s.log.Warn().Str("idempotency_key", input.IdempotencyKey).Msg("concurrent request holds the idempotency key")
		return nil, domain.ErrOperationInFlight
	}

	now := time.Now().UTC()
	entry := &domain.Transaction{
		ID:             uuid.NewString(),
		JarID:          jar.ID,
		UserID:         input.ActorID,
		Type:           kind,
		Amount:         input.Amount,
		Note:           input.Note,
		Date:           now,
		CreatedAt:      now,
		IdempotencyKey: input.IdempotencyKey,
	}

	delta := input.Amount
	clamp := false
	if !kind.IsCredit() {
		delta = input.Amount.Neg()
		clamp = true
	}

	// 4. Entry insert and balance delta succeed or fail together.
	var balance decimal.Decimal
	err = s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.txs.Insert(txCtx, entry); err != nil {
			return fmt.Errorf("insert %s entry: %w", kind, err)
		}
		b, err := s.jars.ApplyBalanceDelta(txCtx, jar.ID, delta, clamp)
		if err != nil {
			return fmt.Errorf("apply balance delta: %w", err)
		}
		balance = b
		return nil
	})
	if err != nil {
		s.releaseGuard(ctx, input.IdempotencyKey)
		metrics.OperationErrorsTotal.WithLabelValues("persistence").Inc()
		s.log.Error().Err(err).Str("jar_id", jar.ID).Str("type", string(kind)).Msg("ledger operation failed")
		return nil, err
	}

	metrics.OperationsTotal.WithLabelValues(string(kind)).Inc()
	s.log.Info().
		Str("jar_id", jar.ID).
		Str("type", string(kind)).
		Str("amount", input.Amount.String()).
		Str("balance", balance.String()).
		Msg("ledger entry recorded")

	return &ports.EntryResult{Transaction: entry, Balance: balance}, nil
}

// Transfer moves value between two jars as one atomic unit: a clamped debit
// on the source, a credit on the destination, and a matched transfer_out /
// transfer_in pair sharing one timestamp and transfer id.
func (s *ledgerService) Transfer(ctx context.Context, input ports.TransferInput) (*ports.TransferResult, error) {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues("transfer"))
	defer timer.ObserveDuration()

	if !input.Amount.IsPositive() {
		metrics.OperationErrorsTotal.WithLabelValues("invalid_amount").Inc()
		return nil, domain.ErrInvalidAmount
	}
	if input.FromJarID == input.ToJarID {
		metrics.OperationErrorsTotal.WithLabelValues("invalid_destination").Inc()
		return nil, domain.ErrInvalidDestination
	}

	if input.IdempotencyKey != "" {
		if res, err := s.replayTransfer(ctx, input.IdempotencyKey); err != nil || res != nil {
			return res, err
		}
	}

	from, err := resolveJar(ctx, s.jars, s.members, input.FromJarID, input.ActorID, true)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues(errorReason(err)).Inc()
		return nil, err
	}
	to, err := resolveJar(ctx, s.jars, s.members, input.ToJarID, input.ActorID, false)
	if err != nil {
		if errors.Is(err, domain.ErrJarNotFound) {
			err = domain.ErrInvalidDestination
		}
		metrics.OperationErrorsTotal.WithLabelValues(errorReason(err)).Inc()
		return nil, err
	}

	if !s.acquireGuard(ctx, input.IdempotencyKey) {
		if res, err := s.replayTransfer(ctx, input.IdempotencyKey); err != nil || res != nil {
			return res, err
		}
		metrics.OperationErrorsTotal.WithLabelValues("in_flight").Inc()
		s.log.Warn().Str("idempotency_key", input.IdempotencyKey).Msg("concurrent request holds the idempotency key")
		return nil, domain.ErrOperationInFlight
	}

	now := time.Now().UTC()
	transferID := uuid.NewString()
	outNote := "Transfer to " + to.Name
	inNote := "Transfer from " + from.Name
	if input.Note != "" {
		outNote += ": " + input.Note
		inNote += ": " + input.Note
	}

	out := &domain.Transaction{
		ID:             uuid.NewString(),
		JarID:          from.ID,
		UserID:         input.ActorID,
		Type:           domain.TxTransferOut,
		Amount:         input.Amount,
		Note:           outNote,
		Date:           now,
		CreatedAt:      now,
		TransferID:     transferID,
		IdempotencyKey: input.IdempotencyKey,
	}
	in := &domain.Transaction{
		ID:             uuid.NewString(),
		JarID:          to.ID,
		UserID:         input.ActorID,
		Type:           domain.TxTransferIn,
		Amount:         input.Amount,
		Note:           inNote,
		Date:           now,
		CreatedAt:      now,
		TransferID:     transferID,
		IdempotencyKey: input.IdempotencyKey,
	}

	// All four writes commit together; no one-sided transfer is ever
	// observable.
	var fromBalance, toBalance decimal.Decimal
	err = s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.txs.InsertPair(txCtx, out, in); err != nil {
			return fmt.Errorf("insert transfer pair: %w", err)
		}
		fb, err := s.jars.ApplyBalanceDelta(txCtx, from.ID, input.Amount.Neg(), true)
		if err != nil {
			return fmt.Errorf("debit source jar: %w", err)
		}
		tb, err := s.jars.ApplyBalanceDelta(txCtx, to.ID, input.Amount, false)
		if err != nil {
			return fmt.Errorf("credit destination jar: %w", err)
		}
		fromBalance, toBalance = fb, tb
		return nil
	})
	if err != nil {
		s.releaseGuard(ctx, input.IdempotencyKey)
		metrics.OperationErrorsTotal.WithLabelValues("persistence").Inc()
		s.log.Error().Err(err).
			Str("from_jar_id", from.ID).
			Str("to_jar_id", to.ID).
			Msg("transfer failed")
		return nil, err
	}

	metrics.OperationsTotal.WithLabelValues("transfer").Inc()
	s.log.Info().
		Str("from_jar_id", from.ID).
		Str("to_jar_id", to.ID).
		Str("transfer_id", transferID).
		Str("amount", input.Amount.String()).
		Msg("transfer recorded")

	return &ports.TransferResult{
		Out:         out,
		In:          in,
		FromBalance: fromBalance,
		ToBalance:   toBalance,
	}, nil
}

// replayEntry serves a previously committed fill or spend for the key, or
// (nil, nil) when no matching entry has been recorded yet.
func (s *ledgerService) replayEntry(ctx context.Context, key string, kind domain.TransactionType) (*ports.EntryResult, error) {
	prev := s.findReplay(ctx, key)
	if len(prev) != 1 || prev[0].Type != kind {
		return nil, nil
	}
	jar, err := s.jars.FindByID(ctx, prev[0].JarID)
	if err != nil {
		return nil, fmt.Errorf("load jar for replay: %w", err)
	}
	s.log.Info().Str("idempotency_key", key).Str("transaction_id", prev[0].ID).Msg("idempotent replay")
	metrics.IdempotentReplaysTotal.WithLabelValues(string(kind)).Inc()
	return &ports.EntryResult{Transaction: prev[0], Balance: jar.Balance, Replayed: true}, nil
}

// replayTransfer rebuilds the TransferResult of an already-applied transfer
// for the key, or (nil, nil) when no committed pair exists yet.
func (s *ledgerService) replayTransfer(ctx context.Context, key string) (*ports.TransferResult, error) {
	prev := s.findReplay(ctx, key)
	if len(prev) != 2 {
		return nil, nil
	}
	out, in := prev[0], prev[1]
	if out.Type != domain.TxTransferOut {
		out, in = in, out
	}
	fromJar, err := s.jars.FindByID(ctx, out.JarID)
	if err != nil {
		return nil, fmt.Errorf("load source jar for replay: %w", err)
	}
	toJar, err := s.jars.FindByID(ctx, in.JarID)
	if err != nil {
		return nil, fmt.Errorf("load destination jar for replay: %w", err)
	}
	s.log.Info().Str("idempotency_key", key).Str("transfer_id", out.TransferID).Msg("idempotent transfer replay")
	metrics.IdempotentReplaysTotal.WithLabelValues("transfer").Inc()
	return &ports.TransferResult{
		Out:         out,
		In:          in,
		FromBalance: fromJar.Balance,
		ToBalance:   toJar.Balance,
		Replayed:    true,
	}, nil
}

// findReplay looks up previously recorded entries for an idempotency key.
// Lookup failures are logged and treated as a miss; the operation proceeds.
func (s *ledgerService) findReplay(ctx context.Context, key string) []*domain.Transaction {
	prev, err := s.txs.FindByIdempotencyKey(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed, processing anyway")
		return nil
	}
	return prev
}

// acquireGuard claims the fast-path key. It reports false only when the key
// is provably held by another in-flight request; guard outages fail open
// because the unique index on the durable rows still rejects a double write.
func (s *ledgerService) acquireGuard(ctx context.Context, key string) bool {
	if key == "" {
		return true
	}
	ok, err := s.guard.Acquire(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("guard acquire failed, processing anyway")
		return true
	}
	return ok
}

func (s *ledgerService) releaseGuard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.guard.Release(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("guard release failed")
	}
}

// errorReason maps domain errors to metric label values.
func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInvalidDestination):
		return "invalid_destination"
	case errors.Is(err, domain.ErrJarNotFound):
		return "jar_not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrOperationInFlight):
		return "in_flight"
	default:
		return "persistence"
	}
}
