package tokenmanager

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/realit/internal/models"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	testUser := models.User{
		ID:             uuid.New(),
		CreatedAt:      mustParseTime("2024-01-01 19:00:01Z"),
		Email:          "nk@example.com",
		Username:       "testuser",
		HashedPassword: "hashed_password",
		IsActive:       true,
	}

	newManager := func(t *testing.T, cfg Config) *TokenManager {
		if cfg.AccessSecret == "" {
			cfg.AccessSecret = "access-secret"
		}
		if cfg.RefreshSecret == "" {
			cfg.RefreshSecret = "refresh-secret"
		}
		m, err := New(cfg)
		require.NoError(t, err, "token manager should be created without errors")
		return m
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{AccessSecret: "a", RefreshSecret: "r"})
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, []byte("a"), m.accessKey, "access key should be set")
		require.Equal(t, []byte("r"), m.refreshKey, "refresh key should be set")
		require.Equal(t, defaultAccessTokenTTL, m.accessTTL, "default access token TTL should be set")
		require.Equal(t, defaultRefreshTokenTTL, m.refreshTTL, "default refresh token TTL")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
	})

	t.Run("new fails", func(t *testing.T) {
		tests := []struct {
			name string
			cfg  Config
		}{
			{"no access secret", Config{RefreshSecret: "r"}},
			{"no refresh secret", Config{AccessSecret: "a"}},
			{"same secrets", Config{AccessSecret: "same", RefreshSecret: "same"}},
			{"not hmac alg", Config{AccessSecret: "a", RefreshSecret: "r", Alg: "RS256"}},
			{"unknown alg", Config{AccessSecret: "a", RefreshSecret: "r", Alg: "what"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := New(tt.cfg)
				require.Error(t, err)
			})
		}
	})

	t.Run("IssuePair", func(t *testing.T) {
		t.Run("return token pair", func(t *testing.T) {
			m := newManager(t, Config{AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour})

			pair, err := m.IssuePair(t.Context(), testUser, uuid.New())

			require.NoError(t, err)
			assert.NotEmpty(t, pair.Access.Value, "access token should not be empty")
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.Access.ExpiresAt, 2*time.Second)
			assert.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
			assert.WithinDuration(t, time.Now().Add(24*time.Hour), pair.Refresh.ExpiresAt, 2*time.Second)
		})

		t.Run("claims", func(t *testing.T) {
			m := newManager(t, Config{})
			sessionID := uuid.New()

			pair, err := m.IssuePair(t.Context(), testUser, sessionID)
			require.NoError(t, err)

			for _, tc := range []struct {
				value string
				key   string
				exp   time.Time
			}{
				{pair.Access.Value, "access-secret", pair.Access.ExpiresAt},
				{pair.Refresh.Value, "refresh-secret", pair.Refresh.ExpiresAt},
			} {
				token, err := jwt.ParseWithClaims(tc.value, &Claims{}, func(token *jwt.Token) (any, error) {
					return []byte(tc.key), nil
				})
				require.NoError(t, err)
				require.True(t, token.Valid, "token should be valid")

				claims, ok := token.Claims.(*Claims)
				require.True(t, ok, "claims should be of type Claims")
				assert.Equal(t, testUser.ID.String(), claims.Subject, "subject should be user id")
				assert.Equal(t, testUser.Email, claims.Email)
				assert.Equal(t, sessionID, claims.SessionID, "both tokens carry session id")
				assert.NotEmpty(t, claims.ID, "token has to has jti")
				assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, 2*time.Second, "issued at should be close to now")
				assert.WithinDuration(t, tc.exp, claims.ExpiresAt.Time, 0, "expires at should match token pair")
			}
		})

		t.Run("generate different tokens", func(t *testing.T) {
			m := newManager(t, Config{})
			sessionID := uuid.New()

			pair1, err := m.IssuePair(t.Context(), testUser, sessionID)
			require.NoError(t, err)
			pair2, err := m.IssuePair(t.Context(), testUser, sessionID)
			require.NoError(t, err)

			assert.NotEqual(t, pair1.Refresh.Value, pair2.Refresh.Value, "refresh tokens should be different")
			assert.NotEqual(t, pair1.Access.Value, pair2.Access.Value, "access tokens should be different")
		})
	})

	t.Run("Parse", func(t *testing.T) {
		t.Run("valid tokens", func(t *testing.T) {
			m := newManager(t, Config{})
			sessionID := uuid.New()
			pair, err := m.IssuePair(t.Context(), testUser, sessionID)
			require.NoError(t, err, "token pair should be generated without errors")

			access, err := m.ParseAccess(t.Context(), pair.Access.Value)
			require.NoError(t, err, "valid token should be parsed without errors")
			refresh, err := m.ParseRefresh(t.Context(), pair.Refresh.Value)
			require.NoError(t, err, "valid token should be parsed without errors")

			want := models.Identity{UserID: testUser.ID, Email: testUser.Email, SessionID: sessionID}
			require.Equal(t, want, access)
			require.Equal(t, want, refresh)
		})

		t.Run("token kinds are not interchangeable", func(t *testing.T) {
			m := newManager(t, Config{})
			pair, err := m.IssuePair(t.Context(), testUser, uuid.New())
			require.NoError(t, err)

			_, err = m.ParseAccess(t.Context(), pair.Refresh.Value)
			require.Error(t, err, "refresh token must not pass as access token")
			_, err = m.ParseRefresh(t.Context(), pair.Access.Value)
			require.Error(t, err, "access token must not pass as refresh token")
		})

		t.Run("not a token", func(t *testing.T) {
			m := newManager(t, Config{})

			_, err := m.ParseAccess(t.Context(), "invalid token")
			require.Error(t, err, "parsing even not a token should return an error")
		})

		t.Run("expired token", func(t *testing.T) {
			now := time.Now()
			m := newManager(t, Config{Now: func() time.Time { return now }})
			pair, err := m.IssuePair(t.Context(), testUser, uuid.New())
			require.NoError(t, err)

			now = now.Add(defaultAccessTokenTTL + time.Second)

			_, err = m.ParseAccess(t.Context(), pair.Access.Value)
			require.ErrorIs(t, err, jwt.ErrTokenExpired, "token has to become expired")
			_, err = m.ParseRefresh(t.Context(), pair.Refresh.Value)
			require.NoError(t, err, "refresh lives longer")
		})

		t.Run("not signed token", func(t *testing.T) {
			m := newManager(t, Config{})
			token := jwt.NewWithClaims(
				jwt.SigningMethodNone,
				Claims{
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   testUser.ID.String(),
						ID:        uuid.NewString(),
						IssuedAt:  jwt.NewNumericDate(time.Now()),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
					},
					SessionID: uuid.New(),
				},
			)
			access, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)

			_, err = m.ParseAccess(t.Context(), access)
			require.Error(t, err, "Valid token with empty alg must fail")
		})
	})

	t.Run("DecodeSessionID", func(t *testing.T) {
		t.Run("decode without verification", func(t *testing.T) {
			sessionID := uuid.New()
			other := newManager(t, Config{AccessSecret: "other-a", RefreshSecret: "other-r"})
			pair, err := other.IssuePair(t.Context(), testUser, sessionID)
			require.NoError(t, err)

			m := newManager(t, Config{})
			got, err := m.DecodeSessionID(pair.Refresh.Value)

			require.NoError(t, err, "foreign signature must not prevent decoding")
			require.Equal(t, sessionID, got)
		})

		t.Run("garbage", func(t *testing.T) {
			m := newManager(t, Config{})

			_, err := m.DecodeSessionID("not.a.token")
			require.Error(t, err)
		})

		t.Run("no session id", func(t *testing.T) {
			m := newManager(t, Config{})
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "x"})
			value, err := token.SignedString([]byte("k"))
			require.NoError(t, err)

			_, err = m.DecodeSessionID(value)
			require.Error(t, err)
		})
	})
}
