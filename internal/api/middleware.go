package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/atelierhq/atelier/internal/store"
	"github.com/atelierhq/atelier/internal/types"
)

// extractBearerToken extracts the token from Authorization header.
// Returns empty string for missing/malformed headers.
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	// Must start with "Bearer " (case-sensitive per RFC 6750)
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}

// constantTimeEqual compares two strings using constant-time comparison
// to prevent timing attacks.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// TokenResolver maps a client access token to its company.
// Implemented by store.SQLiteStore.
type TokenResolver interface {
	CompanyByToken(ctx context.Context, token string) (*types.Company, error)
}

// AuthMiddleware resolves the bearer token to an actor: the configured team
// key grants the team role, a company access token grants the client role
// scoped to that company. The team key comparison is constant-time and the
// key MUST NOT appear in logs or responses.
func AuthMiddleware(teamKey string, resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeAuthFailure(w, r)
				return
			}

			if teamKey != "" && constantTimeEqual(token, teamKey) {
				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), Actor{Role: types.RoleTeam})))
				return
			}

			company, err := resolver.CompanyByToken(r.Context(), token)
			if err != nil {
				if !errors.Is(err, store.ErrCompanyNotFound) {
					slog.Error("token lookup failed", "error", err)
				}
				writeAuthFailure(w, r)
				return
			}

			actor := Actor{Role: types.RoleClient, CompanyID: company.ID}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func writeAuthFailure(w http.ResponseWriter, r *http.Request) {
	slog.Warn("auth failure",
		"path", r.URL.Path,
		"method", r.Method,
		"remote_ip", r.RemoteAddr,
	)
	WriteProblem(w, r, http.StatusUnauthorized, "Missing or invalid access token")
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
