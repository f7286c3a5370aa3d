package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"ring-arena/internal/telemetry"
)

// TokenAuth guards input-injection routes with a static bearer token.
// Tokens are compared as HMAC digests so the comparison time does not leak
// the token length or prefix.
type TokenAuth struct {
	key    []byte
	digest []byte
}

// NewTokenAuth creates an authenticator for token
func NewTokenAuth(token string) *TokenAuth {
	a := &TokenAuth{key: []byte("ring-arena-admin")}
	a.digest = a.sum(token)
	return a
}

func (a *TokenAuth) sum(token string) []byte {
	mac := hmac.New(sha256.New, a.key)
	mac.Write([]byte(token))
	return mac.Sum(nil)
}

// Valid reports whether the request carries the admin token
func (a *TokenAuth) Valid(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return false
	}
	return hmac.Equal(a.sum(token), a.digest)
}

// Middleware rejects requests without a valid token
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Valid(r) {
			log.Printf("⚠️ Admin request rejected from %s", GetClientIP(r))
			telemetry.RecordConnectionRejected("auth")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error":   "unauthorized",
				"message": "Admin token required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
