package security

import (
	"net/http"

	"github.com/google/uuid"
)

// NewID returns a fresh UUID string for request correlation.
func NewID() string {
	return uuid.New().String()
}

// GetClientIP extracts the client IP from the request, honoring the
// proxy headers the deployment sits behind.
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
