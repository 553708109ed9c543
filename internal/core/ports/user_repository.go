package ports

import (
	"context"
	"time"

	"github.com/moneyjar/jarledger/internal/core/domain"
)

// UserRepository defines persistence for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdateName(ctx context.Context, id, name string) error
	// SetPro flips the pro flag and records the external billing reference.
	SetPro(ctx context.Context, id, billingRef string) error
}

// MemberRepository defines persistence for shared-jar memberships.
type MemberRepository interface {
	Create(ctx context.Context, m *domain.JarMember) error
	FindByJarAndUser(ctx context.Context, jarID, userID string) (*domain.JarMember, error)
	ListByJar(ctx context.Context, jarID string) ([]*domain.JarMember, error)
	Accept(ctx context.Context, jarID, userID string, at time.Time) error
	DeleteByJar(ctx context.Context, jarID string) error
}
