package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"reentry/pkg/requestcontext"
)

// Claims is what the token validator hands back: who is acting, for
// attribution on every history entry.
type Claims struct {
	ActorID   string
	ActorName string
	Role      string
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// actor in the request context for history attribution.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				logger.WarnContext(r.Context(), "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := requestcontext.WithActor(r.Context(), requestcontext.ActorInfo{
				ID:   claims.ActorID,
				Name: claims.ActorName,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
