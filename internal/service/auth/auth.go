package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/realit/internal/apperrors"
	"github.com/nkiryanov/realit/internal/logger"
	"github.com/nkiryanov/realit/internal/models"
	"github.com/nkiryanov/realit/internal/repository"
)

// Interface to create or compare password (or refresh token) hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type TokenManager interface {
	IssuePair(ctx context.Context, user models.User, sessionID uuid.UUID) (models.TokenPair, error)
	ParseAccess(ctx context.Context, access string) (models.Identity, error)
	ParseRefresh(ctx context.Context, refresh string) (models.Identity, error)
	DecodeSessionID(token string) (uuid.UUID, error)
}

// Receives outcome of every session operation
type Metrics interface {
	AuthEvent(op string, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) AuthEvent(string, string) {}

type Config struct {
	// Hasher to use for passwords and refresh tokens. BcryptHasher if not set
	Hasher PasswordHasher

	Logger  logger.Logger
	Metrics Metrics

	// Clock to check refresh token expiration, time.Now if not set
	Now func() time.Time
}

type SignupParams struct {
	Email       string
	Username    string
	DisplayName string
	Password    string
}

// Auth service
// Holds no mutable state, every call is independent
type AuthService struct {
	hasher  PasswordHasher
	logger  logger.Logger
	metrics Metrics
	now     func() time.Time

	// Compared against when login user not found, so both branches take the same time
	dummyHash string

	tokens  TokenManager
	storage repository.Storage
}

func NewService(cfg Config, tokens TokenManager, storage repository.Storage) (*AuthService, error) {
	if tokens == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	// Set defaults if not provided by user
	if cfg.Hasher == nil {
		cfg.Hasher = BcryptHasher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	dummyHash, err := cfg.Hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("hasher is not usable. Err: %w", err)
	}

	return &AuthService{
		hasher:    cfg.Hasher,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		now:       cfg.Now,
		dummyHash: dummyHash,
		tokens:    tokens,
		storage:   storage,
	}, nil
}

// Register new user with profile and open the first session
func (s *AuthService) Signup(ctx context.Context, params SignupParams) (pair models.TokenPair, err error) {
	defer func() { s.observe("signup", err) }()

	exists, err := s.storage.User().ExistsByEmailOrUsername(ctx, params.Email, params.Username)
	if err != nil {
		return pair, fmt.Errorf("can't check user exists. Err: %w", err)
	}
	if exists {
		return pair, apperrors.ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return pair, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	var user models.User
	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		var err error
		user, err = tx.User().CreateUser(ctx, params.Email, params.Username, hash)
		if err != nil {
			return err
		}
		_, err = tx.Profile().CreateProfile(ctx, user.ID, params.Username, params.DisplayName)
		return err
	})
	if err != nil {
		return pair, fmt.Errorf("can't create user. Err: %w", err)
	}

	s.logger.Info("user signed up", "user_id", user.ID)

	return s.issueSession(ctx, s.storage, user)
}

// Login with email or username
// Unknown login and wrong password are indistinguishable for the caller
func (s *AuthService) Login(ctx context.Context, identifier string, password string) (pair models.TokenPair, err error) {
	defer func() { s.observe("login", err) }()

	user, err := s.storage.User().GetActiveUserByLogin(ctx, identifier)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.dummyHash, password)
		return pair, apperrors.ErrInvalidCredentials
	case err != nil:
		return pair, fmt.Errorf("can't get user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return pair, apperrors.ErrInvalidCredentials
	}

	return s.issueSession(ctx, s.storage, user)
}

// Revoke the session. Logout never fails for the caller, problems are only logged
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) {
	err := s.storage.Refresh().Revoke(ctx, sessionID, userID)
	s.observe("logout", err)

	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		s.logger.Debug("logout of unknown session", "user_id", userID, "session_id", sessionID)
	case err != nil:
		s.logger.Warn("logout failed", "user_id", userID, "session_id", sessionID, "error", err)
	}
}

// Rotate refresh token: the presented one becomes unusable and a new pair is issued
// The whole check-delete-issue sequence runs in one transaction with the record locked,
// so from concurrent callers with the same token exactly one succeeds
func (s *AuthService) Refresh(ctx context.Context, userID uuid.UUID, raw string) (pair models.TokenPair, err error) {
	defer func() { s.observe("refresh", err) }()

	sessionID, err := s.tokens.DecodeSessionID(raw)
	if err != nil {
		return pair, fmt.Errorf("%w: %w", apperrors.ErrRefreshTokenMalformed, err)
	}

	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		record, err := tx.Refresh().GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}

		switch {
		case record.Revoked:
			return apperrors.ErrRefreshTokenRevoked
		case !s.now().Before(record.ExpiresAt):
			return apperrors.ErrRefreshTokenExpired
		case record.UserID != userID:
			return apperrors.ErrRefreshTokenMismatch
		}
		if err := s.hasher.Compare(record.TokenHash, raw); err != nil {
			return apperrors.ErrRefreshTokenMismatch
		}

		if err := tx.Refresh().Delete(ctx, record.ID); err != nil {
			return err
		}

		user, err := tx.User().GetUserByID(ctx, userID)
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			return apperrors.ErrRefreshUserInactive
		case err != nil:
			return err
		case !user.IsActive:
			return apperrors.ErrRefreshUserInactive
		}

		pair, err = s.issueSession(ctx, tx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			s.logger.Info("refresh rejected", "user_id", userID, "session_id", sessionID, "reason", err)
		}
		return models.TokenPair{}, fmt.Errorf("can't refresh session. Err: %w", err)
	}

	return pair, nil
}

// Parse access token presented by the client
func (s *AuthService) ParseAccess(ctx context.Context, access string) (models.Identity, error) {
	return s.tokens.ParseAccess(ctx, access)
}

// Parse refresh token presented by the client
func (s *AuthService) ParseRefresh(ctx context.Context, refresh string) (models.Identity, error) {
	return s.tokens.ParseRefresh(ctx, refresh)
}

// Open new session: sign tokens and persist refresh token hash
// Pair is returned only when the record saved
func (s *AuthService) issueSession(ctx context.Context, storage repository.Storage, user models.User) (models.TokenPair, error) {
	sessionID := uuid.New()

	pair, err := s.tokens.IssuePair(ctx, user, sessionID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not generated, sorry. Err: %w", err)
	}

	hash, err := s.hasher.Hash(pair.Refresh.Value)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("can't hash refresh token. Err: %w", err)
	}

	err = storage.Refresh().Save(ctx, models.RefreshToken{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: hash,
		CreatedAt: s.now(),
		ExpiresAt: pair.Refresh.ExpiresAt,
	})
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("can't save refresh token. Err: %w", err)
	}

	return pair, nil
}

func (s *AuthService) observe(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrUnauthenticated),
		errors.Is(err, apperrors.ErrForbidden):
		outcome = "denied"
	default:
		outcome = "error"
	}
	s.metrics.AuthEvent(op, outcome)
}
