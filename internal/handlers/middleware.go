package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"changekit/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const VisitorContextKey ContextKey = "visitor"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens          *security.VisitorTokens
	csrf            *security.CSRFGenerator
	limiter         *security.RateLimiter
	sessionDuration time.Duration
	debug           bool
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.VisitorTokens, csrf *security.CSRFGenerator, limiter *security.RateLimiter, sessionDuration time.Duration, debug bool) *Middleware {
	return &Middleware{
		tokens:          tokens,
		csrf:            csrf,
		limiter:         limiter,
		sessionDuration: sessionDuration,
		debug:           debug,
	}
}

// Visitor identifies the visitor from the signed visitor cookie, issuing a
// fresh identity when the cookie is missing or invalid
func (m *Middleware) Visitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var visitorID string
		if cookie, err := r.Cookie(security.VisitorCookieName); err == nil {
			visitorID, err = m.tokens.Verify(cookie.Value)
			if err != nil && m.debug {
				log.Printf("[DEBUG] Visitor: rejected cookie: %v", err)
			}
		}

		if visitorID == "" {
			token, id, err := m.tokens.Issue()
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to issue visitor token", err)
				return
			}
			visitorID = id
			http.SetCookie(w, security.CreateSessionCookie(r, security.VisitorCookieName, token, time.Now().Add(m.sessionDuration)))
		}

		ctx := context.WithValue(r.Context(), VisitorContextKey, visitorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CSRFProtect requires the visitor's CSRF token in the X-CSRF-Token header
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitor := GetVisitorFromContext(r.Context())
		if !m.csrf.ValidateToken(visitor, r.Header.Get(CSRFHeaderName)) {
			respondWithError(w, http.StatusForbidden, ErrInvalidCSRF, "", nil)
			return
		}
		next(w, r)
	}
}

// RateLimit limits generation requests per visitor, or per client IP when
// no visitor is known
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := GetVisitorFromContext(r.Context())
		if key == "" {
			key = security.GetClientIP(r)
		}
		if !m.limiter.Allow(key) {
			log.Printf("Rate limit exceeded for %s on %s", key, r.URL.Path)
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// CSRFToken returns the CSRF token a visitor must send with mutations
func (m *Middleware) CSRFToken(visitor string) string {
	token, err := m.csrf.GenerateToken(visitor)
	if err != nil {
		log.Printf("Failed to generate CSRF token: %v", err)
		return ""
	}
	return token
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetVisitorFromContext retrieves the visitor ID from the request context
func GetVisitorFromContext(ctx context.Context) string {
	visitor, _ := ctx.Value(VisitorContextKey).(string)
	return visitor
}
