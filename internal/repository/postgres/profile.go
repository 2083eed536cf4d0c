package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/realit/internal/apperrors"
	"github.com/nkiryanov/realit/internal/models"
)

type ProfileRepo struct {
	DB DBTX
}

const createProfile = `-- name: CreateProfile
INSERT INTO profiles (user_id, username, display_name)
VALUES ($1, $2, $3)
RETURNING user_id, created_at, username, display_name
`

func (r *ProfileRepo) CreateProfile(ctx context.Context, userID uuid.UUID, username string, displayName string) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, createProfile, userID, username, displayName)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	if err != nil {
		if isUniqueViolation(err) {
			return profile, apperrors.ErrUserAlreadyExists
		}
		return profile, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

const getProfile = `-- name: GetProfile
SELECT user_id, created_at, username, display_name FROM profiles
WHERE user_id = $1
`

func (r *ProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, getProfile, userID)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return profile, apperrors.ErrUserNotFound
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}

func rowToProfile(row pgx.CollectableRow) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.UserID, &p.CreatedAt, &p.Username, &p.DisplayName)
	return p, err
}
