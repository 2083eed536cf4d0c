package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/realit/internal/apperrors"
	"github.com/nkiryanov/realit/internal/handlers/render"
	"github.com/nkiryanov/realit/internal/handlers/userctx"
	"github.com/nkiryanov/realit/internal/logger"
)

// Must be wrapped with auth middleware
func handleUserMe(userService userService, logger logger.Logger) http.Handler {
	type response struct {
		ID          uuid.UUID `json:"id"`
		Email       string    `json:"email"`
		Username    string    `json:"username"`
		DisplayName string    `json:"display_name"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := userctx.FromContext(r.Context())

		account, err := userService.GetAccount(r.Context(), identity.UserID)
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
			return
		case err != nil:
			internalError(w, r, logger, err)
			return
		}

		render.JSON(w, response{
			ID:          account.User.ID,
			Email:       account.User.Email,
			Username:    account.User.Username,
			DisplayName: account.Profile.DisplayName,
		})
	})
}
