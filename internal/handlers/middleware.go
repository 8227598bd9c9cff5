package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"thinkfirst/internal/security"
	"thinkfirst/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	guardianService *service.GuardianService
	tokenSecret     []byte
	limiter         *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(guardianService *service.GuardianService, tokenSecret []byte) *Middleware {
	return &Middleware{
		guardianService: guardianService,
		tokenSecret:     tokenSecret,
		limiter:         security.NewRateLimiter(30, time.Minute),
	}
}

// RequireAuth validates the bearer token and puts the user id on the
// request context
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		userID, err := security.VerifyUserToken(m.tokenSecret, token)
		if err != nil {
			log.Printf("token verification failed: %v", err)
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// RequireGuardian additionally demands a guardian session token, as
// minted by a successful pin verification. The guardian token must
// belong to the same user as the bearer token.
func (m *Middleware) RequireGuardian(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(GuardianTokenHeader)
		if token == "" {
			respondWithError(w, http.StatusForbidden, "Guardian verification required", "", nil)
			return
		}

		guardianID, err := m.guardianService.VerifyGuardianToken(token)
		if err != nil || guardianID != GetUserID(r.Context()) {
			respondWithError(w, http.StatusForbidden, "Guardian verification required", "guardian token rejected", err)
			return
		}

		next(w, r)
	})
}

// RateLimit throttles by client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Allow(security.GetClientIP(r)) {
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// Logging assigns each request an id, echoes it in the response, and
// logs the request with its duration
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = security.NewID()
		}
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r)

		log.Printf("[%s] %s %s %s", requestID, r.Method, r.URL.Path, time.Since(start))
	})
}

// GetUserID retrieves the authenticated user id from the request context
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(UserContextKey).(string)
	if !ok {
		return ""
	}
	return userID
}
