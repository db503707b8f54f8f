package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/leadrelay/leadrelay/internal/auth"
	"github.com/leadrelay/leadrelay/internal/cache"
	"github.com/leadrelay/leadrelay/internal/model"
	"github.com/leadrelay/leadrelay/internal/repository"
)

// minAuthDuration is the minimum time spent on a failed auth attempt to
// blunt timing probes.
const minAuthDuration = 200 * time.Millisecond

// AuthConfig holds configuration for the API auth middleware.
type AuthConfig struct {
	Logger     *slog.Logger
	Repository *repository.Repository
	Cache      *cache.Cache
}

// Auth returns a middleware that authenticates back-office API requests.
// The token comes from the Authorization header; verified identities are
// cached briefly to skip the argon2 check on hot paths.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			failed := true
			defer func() {
				if !failed {
					return
				}
				if elapsed := time.Since(startTime); elapsed < minAuthDuration {
					time.Sleep(minAuthDuration - elapsed)
				}
			}()

			token := extractBearer(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			parsed, err := auth.ParseToken(token)
			if err != nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_format"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			digest := auth.Digest(token)
			if cfg.Cache != nil {
				if cached, _ := cfg.Cache.GetAuthContext(r.Context(), digest); cached != nil {
					failed = false
					next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(r.Context(), cached)))
					return
				}
			}

			candidates, err := cfg.Repository.GetAPITokensByPrefix(r.Context(), parsed.Prefix)
			if err != nil {
				cfg.Logger.Error("database error during auth",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			var matched *model.APIToken
			for _, candidate := range candidates {
				ok, err := auth.VerifyToken(token, candidate.TokenHash)
				if err == nil && ok {
					matched = candidate
					break
				}
			}

			if matched == nil || !matched.IsActive() {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			authCtx := &model.AuthContext{
				TokenID: matched.ID,
				Name:    matched.Name,
				Scope:   matched.Scope,
			}

			if cfg.Cache != nil {
				if err := cfg.Cache.SetAuthContext(r.Context(), digest, authCtx); err != nil {
					cfg.Logger.Warn("auth cache write failed", "error", err)
				}
			}
			if err := cfg.Repository.TouchAPIToken(r.Context(), matched.ID); err != nil {
				cfg.Logger.Warn("failed to touch api token", "error", err)
			}

			failed = false
			next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(r.Context(), authCtx)))
		})
	}
}

// RequireAdmin returns a middleware that rejects non-admin-scope tokens.
// Must run after Auth.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil || !authCtx.CanWrite() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{"error": "admin scope required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
