package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/realit/internal/handlers/middleware"
	"github.com/nkiryanov/realit/internal/logger"
	"github.com/nkiryanov/realit/internal/models"
	"github.com/nkiryanov/realit/internal/service/auth"
	"github.com/nkiryanov/realit/internal/service/user"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	metrics metrics,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)

	// Routes registered on one mux, so the full pattern is available to metrics
	root := http.NewServeMux()

	root.Handle("POST /auth/signup", handleSignup(authService, logger))
	root.Handle("POST /auth/login", handleLogin(authService, logger))
	root.Handle("POST /auth/refresh", handleRefresh(authService, logger))
	root.Handle("POST /auth/logout", withAuth(handleLogout(authService)))

	root.Handle("GET /users/me", withAuth(handleUserMe(userService, logger)))

	root.Handle("GET /metrics", metrics.Handler())

	handler := chain(root,
		middleware.RecoverMiddleware(logger),
		middleware.LoggerMiddleware(logger),
		middleware.MetricsMiddleware(metrics),
	)

	return handler
}

type authService interface {
	// Has to return apperrors.ErrUserAlreadyExists if email or username taken
	Signup(ctx context.Context, params auth.SignupParams) (models.TokenPair, error)

	// Has to return apperrors.ErrInvalidCredentials if user not found or password wrong
	Login(ctx context.Context, identifier string, password string) (models.TokenPair, error)

	// Never fails for the caller
	Logout(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID)

	// Rotate refresh token
	// Every rejection wraps apperrors.ErrForbidden
	Refresh(ctx context.Context, userID uuid.UUID, refresh string) (models.TokenPair, error)

	ParseAccess(ctx context.Context, access string) (models.Identity, error)
	ParseRefresh(ctx context.Context, refresh string) (models.Identity, error)
}

type userService interface {
	// Has to return apperrors.ErrUserNotFound if user not exists or inactive
	GetAccount(ctx context.Context, userID uuid.UUID) (user.Account, error)
}

type metrics interface {
	ObserveHTTP(route string, status int, duration time.Duration)
	Handler() http.Handler
}
