package ports

import (
	"context"

	"github.com/moneyjar/jarledger/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}

// UserService covers profile reads and mutations outside of signup.
type UserService interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateName(ctx context.Context, userID, name string) (*domain.User, error)
	// UpgradeToPro records a completed upgrade: sets the pro flag and the
	// external billing reference. Payment itself happens outside this
	// service.
	UpgradeToPro(ctx context.Context, userID, billingRef string) (*domain.User, error)
}
