package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nkiryanov/realit/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims of both access and refresh tokens
type Claims struct {
	jwt.RegisteredClaims
	Email     string    `json:"email"`
	SessionID uuid.UUID `json:"rt_id"`
}

// Token manager with sensible default
type Config struct {
	// Secret keys to sign access and refresh tokens
	// Both required and must differ, so one kind of token is never accepted as another
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clock, time.Now if not set
	Now func() time.Time
}

type TokenManager struct {
	accessKey  []byte
	refreshKey []byte

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secret keys must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secret keys must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if _, ok := alg.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing method %q", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenManager{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}, nil
}

// Sign access and refresh tokens for the session
// Both tokens carry the same session id, so the access token may be used to end the session
func (m *TokenManager) IssuePair(ctx context.Context, user models.User, sessionID uuid.UUID) (models.TokenPair, error) {
	var pair models.TokenPair
	now := m.now().Truncate(time.Second)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		value, expiresAt, err := m.sign(user, sessionID, now, m.accessTTL, m.accessKey)
		if err != nil {
			return fmt.Errorf("error while signing access token. Err: %w", err)
		}
		pair.Access = models.IssuedToken{Value: value, ExpiresAt: expiresAt}
		return nil
	})
	g.Go(func() error {
		value, expiresAt, err := m.sign(user, sessionID, now, m.refreshTTL, m.refreshKey)
		if err != nil {
			return fmt.Errorf("error while signing refresh token. Err: %w", err)
		}
		pair.Refresh = models.IssuedToken{Value: value, ExpiresAt: expiresAt}
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

func (m *TokenManager) sign(user models.User, sessionID uuid.UUID, now time.Time, ttl time.Duration, key []byte) (string, time.Time, error) {
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   user.ID.String(),
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			Email:     user.Email,
			SessionID: sessionID,
		},
	)

	value, err := token.SignedString(key)
	return value, expiresAt, err
}

// Parse and validate access token
func (m *TokenManager) ParseAccess(ctx context.Context, access string) (models.Identity, error) {
	return m.parse(access, m.accessKey)
}

// Parse and validate refresh token
func (m *TokenManager) ParseRefresh(ctx context.Context, refresh string) (models.Identity, error) {
	return m.parse(refresh, m.refreshKey)
}

func (m *TokenManager) parse(value string, key []byte) (models.Identity, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) {
			return key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return models.Identity{}, fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Identity{}, fmt.Errorf("token subject is not a user id. Err: %w", err)
	}

	return models.Identity{UserID: userID, Email: claims.Email, SessionID: claims.SessionID}, nil
}

// Read session id from the token without verifying signature or expiry
// Caller must not trust the result until it matches a stored record
func (m *TokenManager) DecodeSessionID(value string) (uuid.UUID, error) {
	claims := &Claims{}

	_, _, err := jwt.NewParser().ParseUnverified(value, claims)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error while decoding token. Err: %w", err)
	}
	if claims.SessionID == uuid.Nil {
		return uuid.Nil, errors.New("token has no session id")
	}

	return claims.SessionID, nil
}
