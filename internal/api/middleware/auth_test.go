package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSessions authenticates tokens from a fixed map.
type stubSessions struct {
	users map[string]*domain.User
}

func (s *stubSessions) Issue(context.Context, uuid.UUID) (string, error) { return "", nil }

func (s *stubSessions) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if user, ok := s.users[token]; ok {
		return user, nil
	}
	return nil, service.ErrUnauthenticated
}

func (s *stubSessions) Revoke(context.Context, uuid.UUID, string) error { return nil }

func (s *stubSessions) RevokeAll(context.Context, uuid.UUID) error { return nil }

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	user := &domain.User{ID: uuid.New(), Name: "Ann", Email: "ann@example.com"}
	sessions := &stubSessions{users: map[string]*domain.User{"good-token": user}}

	tests := []struct {
		name       string
		header     string
		cookie     *http.Cookie
		wantStatus int
		wantToken  string
	}{
		{
			name:       "bearer header",
			header:     "Bearer good-token",
			wantStatus: http.StatusOK,
			wantToken:  "good-token",
		},
		{
			name:       "lowercase scheme",
			header:     "bearer good-token",
			wantStatus: http.StatusOK,
			wantToken:  "good-token",
		},
		{
			name:       "cookie fallback",
			cookie:     &http.Cookie{Name: DefaultCookieName, Value: "good-token"},
			wantStatus: http.StatusOK,
			wantToken:  "good-token",
		},
		{
			name:       "header wins over cookie",
			header:     "Bearer revoked",
			cookie:     &http.Cookie{Name: DefaultCookieName, Value: "good-token"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing credentials",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic good-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no scheme",
			header:     "good-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown token",
			header:     "Bearer revoked",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "cookie with other name",
			cookie:     &http.Cookie{Name: "session", Value: "good-token"},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewAuthMiddleware(sessions, "", nil)

			var gotUser *domain.User
			var gotToken string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = GetUser(r)
				gotToken, _ = GetToken(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()

			m.Authenticate(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, gotUser)
				assert.Equal(t, user.ID, gotUser.ID)
				assert.Equal(t, tt.wantToken, gotToken)
			} else {
				assert.Nil(t, gotUser)
				assert.JSONEq(t, `{"error":"Please authenticate."}`, w.Body.String())
			}
		})
	}
}

func TestAuthMiddleware_CustomCookieName(t *testing.T) {
	user := &domain.User{ID: uuid.New()}
	m := NewAuthMiddleware(&stubSessions{users: map[string]*domain.User{"tok": user}}, "sid", nil)
	assert.Equal(t, "sid", m.CookieName())

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "tok"})
	w := httptest.NewRecorder()

	m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserID(r)
		assert.True(t, ok)
		assert.Equal(t, user.ID, id)
	})).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestContextAccessorsWithoutAuthentication(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := GetUser(req)
	assert.False(t, ok)
	_, ok = GetToken(req)
	assert.False(t, ok)
	_, ok = GetUserID(req)
	assert.False(t, ok)
}
