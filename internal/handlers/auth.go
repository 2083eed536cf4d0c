package handlers

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/nkiryanov/realit/internal/apperrors"
	"github.com/nkiryanov/realit/internal/handlers/middleware"
	"github.com/nkiryanov/realit/internal/handlers/render"
	"github.com/nkiryanov/realit/internal/handlers/userctx"
	"github.com/nkiryanov/realit/internal/logger"
	"github.com/nkiryanov/realit/internal/models"
	"github.com/nkiryanov/realit/internal/service/auth"
)

type tokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func newTokensResponse(pair models.TokenPair) tokensResponse {
	return tokensResponse{AccessToken: pair.Access.Value, RefreshToken: pair.Refresh.Value}
}

// Log unexpected error, report it to sentry and hide details from the client
func internalError(w http.ResponseWriter, r *http.Request, l logger.Logger, err error) {
	l.Error("request failed", "method", r.Method, "uri", r.URL.Path, "error", err)
	sentry.CaptureException(err)
	render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
}

func handleSignup(authService authService, logger logger.Logger) http.Handler {
	type request struct {
		Email       string `json:"email" validate:"required,email"`
		Username    string `json:"username" validate:"required,min=2,max=50,username"`
		DisplayName string `json:"display_name" validate:"required,max=100"`
		Password    string `json:"password" validate:"required,min=8"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Signup(r.Context(), auth.SignupParams{
			Email:       data.Email,
			Username:    data.Username,
			DisplayName: data.DisplayName,
			Password:    data.Password,
		})
		switch {
		case errors.Is(err, apperrors.ErrConflict):
			render.ServiceError(w, "Email or username already exists", http.StatusConflict)
			return
		case err != nil:
			internalError(w, r, logger, err)
			return
		}

		render.Created(w, newTokensResponse(pair))
	})
}

func handleLogin(authService authService, logger logger.Logger) http.Handler {
	type request struct {
		Identifier string `json:"identifier" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Login(r.Context(), data.Identifier, data.Password)
		switch {
		case errors.Is(err, apperrors.ErrUnauthenticated):
			render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
			return
		case err != nil:
			internalError(w, r, logger, err)
			return
		}

		render.JSON(w, newTokensResponse(pair))
	})
}

// Refresh token is sent as bearer token and verified with the refresh secret
func handleRefresh(authService authService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, ok := middleware.BearerToken(r)
		if !ok {
			render.ServiceError(w, "Access denied", http.StatusForbidden)
			return
		}

		identity, err := authService.ParseRefresh(r.Context(), refresh)
		if err != nil {
			render.ServiceError(w, "Access denied", http.StatusForbidden)
			return
		}

		pair, err := authService.Refresh(r.Context(), identity.UserID, refresh)
		switch {
		case errors.Is(err, apperrors.ErrForbidden):
			render.ServiceError(w, "Access denied", http.StatusForbidden)
			return
		case err != nil:
			internalError(w, r, logger, err)
			return
		}

		render.JSON(w, newTokensResponse(pair))
	})
}

// Must be wrapped with auth middleware
func handleLogout(authService authService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := userctx.FromContext(r.Context())

		authService.Logout(r.Context(), identity.UserID, identity.SessionID)

		w.WriteHeader(http.StatusNoContent)
	})
}
