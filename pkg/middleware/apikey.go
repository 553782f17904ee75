package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// APIKey returns middleware that authenticates machine-to-machine requests
// with a static key, accepted either as an "X-API-Key" header or a
// "Bearer <key>" Authorization header. Comparison is constant-time.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-API-Key")
			if presented == "" {
				if auth := r.Header.Get("Authorization"); auth != "" {
					parts := strings.SplitN(auth, " ", 2)
					if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
						presented = parts[1]
					}
				}
			}

			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    "UNAUTHORIZED",
					"message": "invalid api key",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
