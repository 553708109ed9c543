package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/moneyjar/jarledger/internal/api/metrics"
	"github.com/moneyjar/jarledger/internal/core/domain"
	"github.com/moneyjar/jarledger/internal/core/ports"
)

// activityFeedLimit caps the cross-jar activity feed.
const activityFeedLimit = 100

type jarService struct {
	jars    ports.JarRepository
	txs     ports.TransactionRepository
	users   ports.UserRepository
	members ports.MemberRepository
	uow     ports.UnitOfWork
	log     zerolog.Logger
}

// NewJarService returns a JarService implementation.
func NewJarService(
	jars ports.JarRepository,
	txs ports.TransactionRepository,
	users ports.UserRepository,
	members ports.MemberRepository,
	uow ports.UnitOfWork,
	log zerolog.Logger,
) ports.JarService {
	return &jarService{
		jars:    jars,
		txs:     txs,
		users:   users,
		members: members,
		uow:     uow,
		log:     log,
	}
}

// CreateJar creates a jar after enforcing the free-tier ceiling. The jar
// count is read from the store at call time so concurrent sessions of the
// same account cannot slip past a stale cached count.
func (s *jarService) CreateJar(ctx context.Context, input ports.CreateJarInput) (*domain.Jar, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if input.TargetAmount != nil && !input.TargetAmount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	owner, err := s.users.FindByID(ctx, input.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("load owner: %w", err)
	}

	count, err := s.jars.CountByOwner(ctx, input.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("count jars: %w", err)
	}
	if !owner.IsPro && count >= domain.FreeTierJarLimit {
		s.log.Info().Str("owner_id", input.OwnerID).Int64("jar_count", count).Msg("free tier jar limit hit")
		return nil, domain.ErrTierLimitExceeded
	}

	emoji := input.Emoji
	if emoji == "" {
		emoji = domain.DefaultJarEmoji
	}
	color := input.Color
	if color == "" {
		color = domain.JarColors[0]
	}

	jar := &domain.Jar{
		ID:           uuid.NewString(),
		OwnerID:      input.OwnerID,
		Name:         name,
		Emoji:        emoji,
		Color:        color,
		Balance:      decimal.Zero,
		TargetAmount: input.TargetAmount,
		IsShared:     false,
		// Append to end. Positions are never renumbered on deletion, so
		// gaps accumulate; ordering relies on relative value only.
		Position:  int(count),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.jars.Create(ctx, jar); err != nil {
		s.log.Error().Err(err).Str("owner_id", input.OwnerID).Msg("failed to create jar")
		return nil, err
	}

	tier := "free"
	if owner.IsPro {
		tier = "pro"
	}
	metrics.JarsCreatedTotal.WithLabelValues(tier).Inc()
	s.log.Info().Str("jar_id", jar.ID).Str("owner_id", input.OwnerID).Int("position", jar.Position).Msg("jar created")

	return jar, nil
}

func (s *jarService) GetJar(ctx context.Context, jarID, actorID string) (*domain.Jar, error) {
	return resolveJar(ctx, s.jars, s.members, jarID, actorID, false)
}

func (s *jarService) ListJars(ctx context.Context, ownerID string) ([]*domain.Jar, error) {
	return s.jars.ListByOwner(ctx, ownerID)
}

// DeleteJar removes the jar and everything hanging off it. Owner only:
// members get ErrForbidden, strangers ErrJarNotFound.
func (s *jarService) DeleteJar(ctx context.Context, jarID, actorID string) error {
	jar, err := s.jars.FindByID(ctx, jarID)
	if err != nil {
		return err
	}
	if jar.OwnerID != actorID {
		if _, merr := s.members.FindByJarAndUser(ctx, jarID, actorID); merr == nil {
			return domain.ErrForbidden
		}
		return domain.ErrJarNotFound
	}

	err = s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.txs.DeleteByJar(txCtx, jarID); err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		if err := s.members.DeleteByJar(txCtx, jarID); err != nil {
			return fmt.Errorf("delete memberships: %w", err)
		}
		if err := s.jars.Delete(txCtx, jarID); err != nil {
			return fmt.Errorf("delete jar: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("jar_id", jarID).Msg("cascade delete failed")
		return err
	}

	metrics.JarsDeletedTotal.Inc()
	s.log.Info().Str("jar_id", jarID).Msg("jar deleted")
	return nil
}

func (s *jarService) ListTransactions(ctx context.Context, jarID, actorID string) ([]*domain.Transaction, error) {
	if _, err := resolveJar(ctx, s.jars, s.members, jarID, actorID, false); err != nil {
		return nil, err
	}
	return s.txs.ListByJar(ctx, jarID, 0)
}

// ListActivity returns the caller's own recent ledger actions, newest first.
// The feed follows the acting user, not jar ownership: an entry the caller
// recorded on a shared jar they do not own still shows up here.
func (s *jarService) ListActivity(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	return s.txs.ListByUser(ctx, userID, activityFeedLimit)
}

// InviteMember adds a user to a jar by email and marks the jar shared.
func (s *jarService) InviteMember(ctx context.Context, input ports.InviteMemberInput) (*domain.JarMember, error) {
	if !domain.ValidMemberRole(input.Role) {
		return nil, domain.ErrInvalidRole
	}

	jar, err := s.jars.FindByID(ctx, input.JarID)
	if err != nil {
		return nil, err
	}
	if jar.OwnerID != input.ActorID {
		return nil, domain.ErrForbidden
	}

	invitee, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		return nil, err
	}
	if invitee.ID == jar.OwnerID {
		return nil, domain.ErrMemberExists
	}
	if _, err := s.members.FindByJarAndUser(ctx, input.JarID, invitee.ID); err == nil {
		return nil, domain.ErrMemberExists
	} else if !errors.Is(err, domain.ErrMemberNotFound) {
		return nil, err
	}

	member := &domain.JarMember{
		ID:        uuid.NewString(),
		JarID:     input.JarID,
		UserID:    invitee.ID,
		Role:      input.Role,
		InvitedAt: time.Now().UTC(),
	}

	err = s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.members.Create(txCtx, member); err != nil {
			return fmt.Errorf("create membership: %w", err)
		}
		if !jar.IsShared {
			if err := s.jars.SetShared(txCtx, input.JarID, true); err != nil {
				return fmt.Errorf("mark jar shared: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("jar_id", input.JarID).Msg("invite failed")
		return nil, err
	}

	s.log.Info().Str("jar_id", input.JarID).Str("member_id", member.ID).Str("role", member.Role).Msg("member invited")
	return member, nil
}

// AcceptInvite activates a pending membership. Accepting twice is a no-op.
func (s *jarService) AcceptInvite(ctx context.Context, jarID, userID string) error {
	m, err := s.members.FindByJarAndUser(ctx, jarID, userID)
	if err != nil {
		return err
	}
	if m.Accepted() {
		return nil
	}
	return s.members.Accept(ctx, jarID, userID, time.Now().UTC())
}
