package auth

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/adaptmath/backend/internal/errors"
)

type contextKey string

const userContextKey contextKey = "user"

// UserContext carries the authenticated caller's identity for the duration of
// one request.
type UserContext struct {
	UserID   int64
	Username string
}

// Middleware authorizes requests via the Authorization: Bearer header and
// stores the token claims in the request context.
func Middleware(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := apperrors.GetRequestID(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apperrors.WriteError(w, requestID, apperrors.Unauthorized())
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				apperrors.WriteError(w, requestID, apperrors.Unauthorized())
				return
			}

			claims, err := service.Authorize(parts[1])
			if err != nil {
				apperrors.WriteError(w, requestID, err)
				return
			}

			userCtx := &UserContext{
				UserID:   claims.UserID,
				Username: claims.Subject,
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), userCtx)))
		})
	}
}

// ContextWithUser attaches an authenticated caller to ctx.
func ContextWithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext returns the authenticated caller, or nil outside the
// middleware.
func GetUserFromContext(ctx context.Context) *UserContext {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok {
		return nil
	}
	return user
}
