package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "plugindocs"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	fetchDuration   *prom.HistogramVec
	cacheLookups    *prom.CounterVec
	sourceOutcomes  *prom.CounterVec
	resolveDuration prom.Histogram
	resolveOutcomes *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of archive download requests",
			Buckets:   prom.DefBuckets,
		}, []string{"kind", "result"}),
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Memo cache lookups by cache and outcome",
		}, []string{"cache", "outcome"}),
		sourceOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "source_outcomes_total",
			Help:      "Plugin sources by resolution outcome",
		}, []string{"outcome"}),
		resolveDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Duration of full navigation resolutions",
			Buckets:   prom.DefBuckets,
		}),
		resolveOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_outcomes_total",
			Help:      "Navigation resolutions by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.fetchDuration, pr.cacheLookups, pr.sourceOutcomes, pr.resolveDuration, pr.resolveOutcomes)
	return pr
}

func (p *PrometheusRecorder) ObserveFetchDuration(kind string, d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.fetchDuration.WithLabelValues(kind, string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCacheLookup(cache string, hit bool) {
	if p == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	p.cacheLookups.WithLabelValues(cache, outcome).Inc()
}

func (p *PrometheusRecorder) IncSourceOutcome(outcome SourceOutcome) {
	if p == nil {
		return
	}
	p.sourceOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveResolveDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.resolveDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncResolveOutcome(success bool) {
	if p == nil {
		return
	}
	outcome := "failed"
	if success {
		outcome = "success"
	}
	p.resolveOutcomes.WithLabelValues(outcome).Inc()
}
