package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveFetchDuration("docs", 150*time.Millisecond, ResultSuccess)
	pr.ObserveFetchDuration("source", 20*time.Millisecond, ResultNotFound)
	pr.IncCacheLookup("archive", true)
	pr.IncCacheLookup("archive", false)
	pr.IncCacheLookup("archive", true)
	pr.IncSourceOutcome(SourcePartial)
	pr.ObserveResolveDuration(time.Second)
	pr.IncResolveOutcome(true)

	assert.InDelta(t, 2, testutil.ToFloat64(pr.cacheLookups.WithLabelValues("archive", "hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.sourceOutcomes.WithLabelValues("partial")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.resolveOutcomes.WithLabelValues("success")), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 5)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncResolveOutcome(false)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "plugindocs_resolve_outcomes_total"))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncResolveOutcome(true)
	pr.IncCacheLookup("x", true)

	var r Recorder = NoopRecorder{}
	r.ObserveFetchDuration("docs", time.Second, ResultError)
}
