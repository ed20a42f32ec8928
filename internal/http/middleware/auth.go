package middleware

import (
	"crypto/subtle"
	"net/http"
)

// HeaderAPIKey carries the admin key on mutating requests.
const HeaderAPIKey = "X-API-Key"

// RequireKey rejects requests whose X-API-Key header does not match key.
// When key is empty the check is disabled and every request passes.
func RequireKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" {
				got := r.Header.Get(HeaderAPIKey)
				if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
					http.Error(w, "invalid api key", http.StatusUnauthorized)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
