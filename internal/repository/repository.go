package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/realit/internal/models"
)

// Storage gives access to every repository and allows to run them in one transaction
type Storage interface {
	User() UserRepo
	Profile() ProfileRepo
	Refresh() RefreshTokenRepo

	// Run fn in transaction
	// Commit if fn returns nil, rollback otherwise. The storage passed to fn is bound to the transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}

// User repository interface
type UserRepo interface {
	// Create active user
	// If user with email or username exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, email string, username string, hashedPassword string) (models.User, error)

	// Report whether any user has the email or the username
	ExistsByEmailOrUsername(ctx context.Context, email string, username string) (bool, error)

	// Get user by it's id, even inactive one
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)

	// Get active user whose email or username equals login
	// If user not found (or inactive) must return apperrors.ErrUserNotFound
	GetActiveUserByLogin(ctx context.Context, login string) (models.User, error)
}

type ProfileRepo interface {
	// If profile with username exists already has to return apperrors.ErrUserAlreadyExists
	CreateProfile(ctx context.Context, userID uuid.UUID, username string, displayName string) (models.Profile, error)

	// If profile not found must return apperrors.ErrUserNotFound
	GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token record
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the record even if it is revoked or expired
	// If not found must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, id uuid.UUID) (models.RefreshToken, error)

	// Same as Get but locks the record until the transaction ends
	// Concurrent callers must wait and then observe the record as it was left by the lock owner
	GetForUpdate(ctx context.Context, id uuid.UUID) (models.RefreshToken, error)

	// Delete record
	// If not found must return apperrors.ErrRefreshTokenNotFound
	Delete(ctx context.Context, id uuid.UUID) error

	// Mark record owned by userID revoked. Revoking already revoked record is ok
	// If not found must return apperrors.ErrRefreshTokenNotFound
	Revoke(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	// Delete records that can never be used again: revoked ones and ones expired at now
	// Return number of deleted records
	DeleteDead(ctx context.Context, now time.Time) (int64, error)
}
