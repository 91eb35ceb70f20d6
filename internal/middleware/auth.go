package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const (
	WorkspaceKey contextKey = "workspace"
	APIKeyKey    contextKey = "api_key"
)

// APIKeyAuth validates API key from Authorization header. validKeys maps a
// workspace id to its key; an empty map disables authentication.
func APIKeyAuth(validKeys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(validKeys) == 0 || isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			// Support both "Bearer <key>" and "<key>" formats
			apiKey := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if apiKey == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			// constant-time comparison
			var workspace string
			for ws, key := range validKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					workspace = ws
					break
				}
			}
			if workspace == "" {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), WorkspaceKey, workspace)
			ctx = context.WithValue(ctx, APIKeyKey, apiKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetWorkspaceFromContext extracts the authenticated workspace from context
func GetWorkspaceFromContext(ctx context.Context) string {
	if ws, ok := ctx.Value(WorkspaceKey).(string); ok {
		return ws
	}
	return ""
}

// RequireWorkspace checks the {workspace} URL parameter and, when the request
// was authenticated, that it matches the key's workspace.
func RequireWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlWS := chi.URLParam(r, "workspace")
		if err := ValidateWorkspaceID(urlWS); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if authWS := GetWorkspaceFromContext(r.Context()); authWS != "" && authWS != urlWS {
			http.Error(w, "API key does not grant access to this workspace", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isProbe(path string) bool {
	switch path {
	case "/health", "/healthz", "/readyz":
		return true
	}
	return false
}
