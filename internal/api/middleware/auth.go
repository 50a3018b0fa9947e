package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/service"
)

// UnauthenticatedMessage is the body of every 401 produced by the middleware.
const UnauthenticatedMessage = "Please authenticate."

// DefaultCookieName is used when NewAuthMiddleware is given an empty cookie name.
const DefaultCookieName = "auth_token"

// AuthMiddleware authenticates requests against active sessions.
type AuthMiddleware struct {
	sessions   service.SessionService
	cookieName string
	logger     *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(sessions service.SessionService, cookieName string, logger *slog.Logger) *AuthMiddleware {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		sessions:   sessions,
		cookieName: cookieName,
		logger:     logger.With(slog.String("component", "auth_middleware")),
	}
}

// Authenticate resolves the request's session token and adds the user and
// token to the request context. The token is read from an
// "Authorization: Bearer" header, falling back to the session cookie.
// Every failure is answered with the same 401 body.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.extractToken(r)
		if token == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, UnauthenticatedMessage)
			return
		}

		user, err := m.sessions.Authenticate(r.Context(), token)
		if err != nil {
			logger.FromContextOrDefault(r.Context(), m.logger).Debug("rejected session token",
				slog.String("path", r.URL.Path))
			shared.RespondWithError(w, r, http.StatusUnauthorized, UnauthenticatedMessage)
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserContextKey, user)
		ctx = context.WithValue(ctx, shared.TokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CookieName returns the name of the session cookie the middleware accepts.
func (m *AuthMiddleware) CookieName() string {
	return m.cookieName
}

func (m *AuthMiddleware) extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	if cookie, err := r.Cookie(m.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// GetUser returns the authenticated user stored by Authenticate.
func GetUser(r *http.Request) (*domain.User, bool) {
	user, ok := r.Context().Value(shared.UserContextKey).(*domain.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// GetToken returns the session token the request was authenticated with.
func GetToken(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(shared.TokenContextKey).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// GetUserID extracts the authenticated user's ID from the request context.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	user, ok := GetUser(r)
	if !ok {
		return uuid.Nil, false
	}
	return user.ID, true
}
