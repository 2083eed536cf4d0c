package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/realit/internal/apperrors"
	"github.com/nkiryanov/realit/internal/models"
)

type RefreshTokenRepo struct {
	s *Storage
}

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.tokens[token.ID]; ok {
			return fmt.Errorf("memory error: token %s saved already", token.ID)
		}
		st.tokens[token.ID] = token
		return nil
	})
}

func (r *RefreshTokenRepo) Get(ctx context.Context, id uuid.UUID) (models.RefreshToken, error) {
	var token models.RefreshToken

	err := r.s.do(func(st *state) error {
		t, ok := st.tokens[id]
		if !ok {
			return fmt.Errorf("memory error: %w", apperrors.ErrRefreshTokenNotFound)
		}
		token = t
		return nil
	})

	return token, err
}

// The store-wide lock held by InTx already serializes callers, so it is the plain Get
func (r *RefreshTokenRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (models.RefreshToken, error) {
	return r.Get(ctx, id)
}

func (r *RefreshTokenRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.do(func(st *state) error {
		if _, ok := st.tokens[id]; !ok {
			return fmt.Errorf("memory error: %w", apperrors.ErrRefreshTokenNotFound)
		}
		delete(st.tokens, id)
		return nil
	})
}

func (r *RefreshTokenRepo) Revoke(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return r.s.do(func(st *state) error {
		t, ok := st.tokens[id]
		if !ok || t.UserID != userID {
			return fmt.Errorf("memory error: %w", apperrors.ErrRefreshTokenNotFound)
		}
		t.Revoked = true
		st.tokens[id] = t
		return nil
	})
}

func (r *RefreshTokenRepo) DeleteDead(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64

	err := r.s.do(func(st *state) error {
		for id, t := range st.tokens {
			if t.Revoked || !now.Before(t.ExpiresAt) {
				delete(st.tokens, id)
				deleted++
			}
		}
		return nil
	})

	return deleted, err
}
