package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moneyjar/jarledger/internal/core/domain"
	"github.com/moneyjar/jarledger/internal/core/ports"
)

type userService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

// NewUserService returns a UserService implementation.
func NewUserService(repo ports.UserRepository, log zerolog.Logger) ports.UserService {
	return &userService{repo: repo, log: log}
}

func (s *userService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *userService) UpdateName(ctx context.Context, userID, name string) (*domain.User, error) {
	if err := s.repo.UpdateName(ctx, userID, strings.TrimSpace(name)); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, userID)
}

func (s *userService) UpgradeToPro(ctx context.Context, userID, billingRef string) (*domain.User, error) {
	if err := s.repo.SetPro(ctx, userID, billingRef); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Msg("account upgraded to pro")
	return s.repo.FindByID(ctx, userID)
}
