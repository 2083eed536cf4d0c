package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/realit/internal/apperrors"
	"github.com/nkiryanov/realit/internal/models"
	"github.com/nkiryanov/realit/internal/repository"
)

// Account is user with its public profile
type Account struct {
	User    models.User
	Profile models.Profile
}

type UserService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *UserService {
	return &UserService{storage: storage}
}

// Get account of active user
// Returns apperrors.ErrUserNotFound if user not exists or deactivated
func (s *UserService) GetAccount(ctx context.Context, userID uuid.UUID) (Account, error) {
	var account Account

	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return account, fmt.Errorf("can't get user. Err: %w", err)
	}
	if !user.IsActive {
		return account, fmt.Errorf("user is not active. Err: %w", apperrors.ErrUserNotFound)
	}

	profile, err := s.storage.Profile().GetProfile(ctx, userID)
	if err != nil {
		return account, fmt.Errorf("can't get profile. Err: %w", err)
	}

	return Account{User: user, Profile: profile}, nil
}
