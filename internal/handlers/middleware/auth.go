package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nkiryanov/realit/internal/handlers/render"
	"github.com/nkiryanov/realit/internal/handlers/userctx"
	"github.com/nkiryanov/realit/internal/models"
)

const bearerScheme = "Bearer"

type accessParser interface {
	ParseAccess(ctx context.Context, access string) (models.Identity, error)
}

// Authenticate request by access token in Authorization header
// Identity is stored in request context, use userctx.FromContext to get it
func AuthMiddleware(p accessParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := p.ParseAccess(r.Context(), token)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Get token from 'Authorization: Bearer <token>' header
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
