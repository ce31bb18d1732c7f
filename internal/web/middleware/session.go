package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/registers/internal/auth"
	"github.com/JonMunkholm/registers/internal/core"
)

// RequireSession returns middleware that verifies the session token and puts
// the session on the request context.
//
// A request without a token passes through unless required is true. A token
// that is present but fails verification is always rejected. With a nil
// manager no token can be verified, so tokens are ignored.
func RequireSession(m *auth.Manager, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			if m == nil || (token == "" && !required) {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := m.Verify(token)
			if err != nil {
				slog.Warn("auth: rejected session",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				writeAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	msg := core.MapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   msg.Message,
		"message": msg.Message,
		"action":  msg.Action,
		"code":    msg.Code,
	})
}
