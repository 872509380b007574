package api

import (
	"crypto/subtle"
	"net/http"
)

// ValidateSecret returns true if provided matches configured.
// An empty configured secret never validates.
func ValidateSecret(provided, configured string) bool {
	if configured == "" || provided == "" {
		return false
	}
	if len(provided) != len(configured) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(configured)) == 1
}

// secretMiddleware runs before any request field is read: a server without a
// secret refuses everything, then the header must match.
func (s *Server) secretMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.Secret == "" {
			s.writeError(w, http.StatusInternalServerError, "Server is not configured with a secret key.")
			return
		}
		if !ValidateSecret(r.Header.Get(SecretHeader), s.config.Secret) {
			s.writeError(w, http.StatusForbidden, "Unauthorized.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
