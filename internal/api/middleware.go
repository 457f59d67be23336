package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"queryproxy/internal/core"
	"queryproxy/internal/logger"
	"queryproxy/internal/service"
)

// sessionCookie is the cookie the browser dashboard authenticates with.
const sessionCookie = "token"

type ctxKey int

const claimsKey ctxKey = iota

// ClaimsFromContext returns the identity the auth middleware attached.
// Handlers behind the middleware can rely on it being present.
func ClaimsFromContext(ctx context.Context) *service.SessionClaims {
	claims, _ := ctx.Value(claimsKey).(*service.SessionClaims)
	return claims
}

var (
	errNoCredential  = errors.New("no credential presented")
	errBadCredential = errors.New("credential rejected")
)

// AuthMiddleware gates routes on session tokens and API keys.
type AuthMiddleware struct {
	tokens *service.TokenManager
	auth   *service.AuthService
}

func NewAuthMiddleware(tokens *service.TokenManager, auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, auth: auth}
}

// RequireSession accepts only a valid session token, from the Authorization
// header or the session cookie. API keys do not pass here.
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(sessionCookie); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized - no token provided")
			return
		}

		claims, err := m.tokens.Verify(token)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "Token expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// RequireCredential accepts a session token or an API key. A bearer value is
// tried as an API key first so a key is never mistaken for a malformed JWT.
func (m *AuthMiddleware) RequireCredential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.resolve(r)
		if err != nil {
			if errors.Is(err, errNoCredential) {
				writeError(w, http.StatusUnauthorized, "Unauthorized - no token or API key")
				return
			}
			writeError(w, http.StatusUnauthorized, "Invalid token or API key")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func (m *AuthMiddleware) resolve(r *http.Request) (*service.SessionClaims, error) {
	if bearer := bearerToken(r); bearer != "" {
		user, err := m.auth.ResolveAPIKey(r.Context(), bearer)
		if err == nil && user != nil {
			return claimsFor(user), nil
		}
		if claims, err := m.tokens.Verify(bearer); err == nil {
			return claims, nil
		}
		// A presented bearer that satisfies neither check is rejected
		// outright; the cookie is only consulted when no header was sent.
		return nil, errBadCredential
	}

	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if claims, err := m.tokens.Verify(c.Value); err == nil {
			return claims, nil
		}
		return nil, errBadCredential
	}

	return nil, errNoCredential
}

func claimsFor(u *core.User) *service.SessionClaims {
	return &service.SessionClaims{ID: u.ID, Username: u.Username, Email: u.Email}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// RequestLogger logs one line per request with method, path, status and
// latency.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}
