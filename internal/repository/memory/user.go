package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/realit/internal/apperrors"
	"github.com/nkiryanov/realit/internal/models"
)

type UserRepo struct {
	s *Storage
}

func (r *UserRepo) CreateUser(ctx context.Context, email string, username string, hashedPassword string) (models.User, error) {
	var user models.User

	err := r.s.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email || u.Username == username {
				return fmt.Errorf("memory error: %w", apperrors.ErrUserAlreadyExists)
			}
		}

		user = models.User{
			ID:             uuid.New(),
			CreatedAt:      time.Now(),
			Email:          email,
			Username:       username,
			HashedPassword: hashedPassword,
			IsActive:       true,
		}
		st.users[user.ID] = user
		return nil
	})

	return user, err
}

func (r *UserRepo) ExistsByEmailOrUsername(ctx context.Context, email string, username string) (bool, error) {
	var exists bool

	err := r.s.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email || u.Username == username {
				exists = true
				break
			}
		}
		return nil
	})

	return exists, err
}

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	var user models.User

	err := r.s.do(func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return apperrors.ErrUserNotFound
		}
		user = u
		return nil
	})

	return user, err
}

// Email match wins over username match
func (r *UserRepo) GetActiveUserByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User

	err := r.s.do(func(st *state) error {
		var found bool
		for _, u := range st.users {
			if !u.IsActive {
				continue
			}
			if u.Email == login {
				user, found = u, true
				break
			}
			if u.Username == login {
				user, found = u, true
			}
		}
		if !found {
			return apperrors.ErrUserNotFound
		}
		return nil
	})

	return user, err
}

type ProfileRepo struct {
	s *Storage
}

func (r *ProfileRepo) CreateProfile(ctx context.Context, userID uuid.UUID, username string, displayName string) (models.Profile, error) {
	var profile models.Profile

	err := r.s.do(func(st *state) error {
		for _, p := range st.profiles {
			if p.UserID == userID || p.Username == username {
				return fmt.Errorf("memory error: %w", apperrors.ErrUserAlreadyExists)
			}
		}

		profile = models.Profile{
			UserID:      userID,
			CreatedAt:   time.Now(),
			Username:    username,
			DisplayName: displayName,
		}
		st.profiles[userID] = profile
		return nil
	})

	return profile, err
}

func (r *ProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	var profile models.Profile

	err := r.s.do(func(st *state) error {
		p, ok := st.profiles[userID]
		if !ok {
			return apperrors.ErrUserNotFound
		}
		profile = p
		return nil
	})

	return profile, err
}
