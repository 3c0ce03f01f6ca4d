package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"coursereq/pkg/requestcontext"
)

// TokenVerifier validates a bearer token and returns the caller identity.
type TokenVerifier interface {
	Verify(token string) (requestcontext.Identity, error)
}

// IdentitySyncer mirrors the verified identity into the user records, creating
// the record on first sight and keeping the display name current.
type IdentitySyncer interface {
	Sync(ctx context.Context, email, name string) error
}

// RequireAuth verifies the Authorization bearer token, syncs the identity into
// the user records, and stores it in the request context.
func RequireAuth(verifier TokenVerifier, syncer IdentitySyncer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token", "request_id", requestID)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			ident, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestID, "error", err)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			if err := syncer.Sync(ctx, ident.Email, ident.Name); err != nil {
				logger.ErrorContext(ctx, "identity sync failed",
					"request_id", requestID, "email", ident.Email, "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal_error"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithIdentity(ctx, ident)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}
