package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/JonMunkholm/fuelgrid/internal/config"
	"github.com/JonMunkholm/fuelgrid/internal/logging"
)

// APIKeyAuth checks the X-API-Key header against the configured keys.
// Requests pass through untouched when RequireAPIKey is false.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			switch key := r.Header.Get("X-API-Key"); {
			case key == "":
				rejectKey(w, r, http.StatusUnauthorized, "missing API key", "AUTH_MISSING_KEY")
			case !isValidAPIKey(key, cfg.APIKeys):
				rejectKey(w, r, http.StatusForbidden, "invalid API key", "AUTH_INVALID_KEY")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func rejectKey(w http.ResponseWriter, r *http.Request, status int, message, code string) {
	logging.FromContext(r.Context()).Warn("auth: "+message,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", r.RemoteAddr,
	)
	writeJSONError(w, status, message, code)
}

// isValidAPIKey compares key against every configured key in constant
// time, so the response time does not reveal which key matched.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
