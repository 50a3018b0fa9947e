package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRoutePatternsResolvedBeforeAuth checks that requests rejected by the
// auth gate still carry the full chi route pattern, which the metrics
// middleware uses as its route label.
func TestRoutePatternsResolvedBeforeAuth(t *testing.T) {
	var pattern string
	capture := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req)
			pattern = chi.RouteContext(req.Context()).RoutePattern()
		})
	}

	ts := newTestServer(t, 1_000_000, capture)
	ann, _ := ts.register("ann@example.com")
	task := ts.createTask(ann.Token, "Buy milk")

	tests := []struct {
		name    string
		method  string
		path    string
		token   string
		status  int
		pattern string
	}{
		{"get task rejected", http.MethodGet, "/tasks/" + uuid.NewString(), "", http.StatusUnauthorized, "/tasks/{id}"},
		{"get task accepted", http.MethodGet, "/tasks/" + task.ID.String(), ann.Token, http.StatusOK, "/tasks/{id}"},
		{"delete task rejected", http.MethodDelete, "/tasks/" + uuid.NewString(), "forged", http.StatusUnauthorized, "/tasks/{id}"},
		{"me rejected", http.MethodGet, "/users/me", "", http.StatusUnauthorized, "/users/me"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern = ""
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			ts.handler.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.pattern, pattern)
		})
	}
}
