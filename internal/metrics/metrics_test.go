package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-fantasy/internal/diag"
)

func TestObserveRun(t *testing.T) {
	m := New()
	var report diag.Report
	report.Add(diag.Plausibility, "x", nil)
	report.Add(diag.Plausibility, "y", nil)
	report.Add(diag.UnknownIdentifier, "z", nil)

	m.ObserveRun(Run{Season: 2025, Payloads: 10, Ignored: 2, Records: 4, Report: report, Duration: time.Second})

	assert.Equal(t, 10.0, testutil.ToFloat64(m.Payloads))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Records))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Findings.WithLabelValues("plausibility")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Findings.WithLabelValues("unknown_identifier")))
	assert.Greater(t, testutil.ToFloat64(m.LastRun.WithLabelValues("2025")), 0.0)

	path := filepath.Join(t.TempDir(), "fppull.prom")
	require.NoError(t, m.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "fppull_records_total 4")
}

func TestMiddlewareLabelsByRoute(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/v1/points/{season}/{week}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	for _, p := range []string{"/api/v1/points/2025/1", "/api/v1/points/2025/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/points/{season}/{week}", "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("unmatched", "404")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "api_requests_total"))
}
