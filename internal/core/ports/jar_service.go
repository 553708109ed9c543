package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/moneyjar/jarledger/internal/core/domain"
)

// CreateJarInput carries all data needed to create a new jar.
type CreateJarInput struct {
	OwnerID string
	Name    string
	Emoji   string
	Color   string
	// TargetAmount, when set, is a positive savings goal used for progress
	// display only; jars may exceed it.
	TargetAmount *decimal.Decimal
}

// InviteMemberInput carries a shared-jar invitation.
type InviteMemberInput struct {
	JarID   string
	ActorID string
	Email   string
	Role    string // editor or viewer
}

// JarService defines jar lifecycle and read operations.
type JarService interface {
	// CreateJar enforces the free-tier jar ceiling and assigns the display
	// position before persisting.
	CreateJar(ctx context.Context, input CreateJarInput) (*domain.Jar, error)
	GetJar(ctx context.Context, jarID, actorID string) (*domain.Jar, error)
	ListJars(ctx context.Context, ownerID string) ([]*domain.Jar, error)
	// DeleteJar removes the jar, its transactions and its memberships in one
	// atomic unit. Owner only.
	DeleteJar(ctx context.Context, jarID, actorID string) error
	ListTransactions(ctx context.Context, jarID, actorID string) ([]*domain.Transaction, error)
	// ListActivity returns the caller's own most recent ledger actions,
	// newest first, including actions on shared jars they do not own.
	ListActivity(ctx context.Context, userID string) ([]*domain.Transaction, error)
	InviteMember(ctx context.Context, input InviteMemberInput) (*domain.JarMember, error)
	AcceptInvite(ctx context.Context, jarID, userID string) error
}
