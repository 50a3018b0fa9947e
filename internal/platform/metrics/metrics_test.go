package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tasks/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	expected := `
# HELP tasker_http_requests_total Total number of HTTP requests
# TYPE tasker_http_requests_total counter
tasker_http_requests_total{method="GET",route="/tasks/{id}",status="404"} 3
tasker_http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	err := testutil.CollectAndCompare(m.HTTPRequestsTotal, strings.NewReader(expected))
	assert.NoError(t, err)
	assert.Equal(t, 2, testutil.CollectAndCount(m.HTTPRequestDuration))
}

func TestObserveJob(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveJob("mail", nil)
	m.ObserveJob("mail", nil)
	m.ObserveJob("mail", errors.New("rejected"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.JobsTotal.WithLabelValues("mail", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.JobsTotal.WithLabelValues("mail", "failure")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	m.RegisterDBStats(db, "tasker")
	m.ObserveJob("mail", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tasker_jobs_total")
	assert.Contains(t, string(body), `go_sql_open_connections{db_name="tasker"}`)
	assert.Contains(t, string(body), "go_goroutines")
}
