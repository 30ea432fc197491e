package metrics

import "time"

// ResultLabel enumerates fetch result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultNotFound ResultLabel = "not_found"
	ResultError    ResultLabel = "error"
)

// SourceOutcome classifies how much of one source resolved.
type SourceOutcome string

const (
	// SourceResolved means every component type present in the archive resolved.
	SourceResolved SourceOutcome = "resolved"
	SourcePartial  SourceOutcome = "partial"
	SourceFailed   SourceOutcome = "failed"
)

// Recorder defines observability hooks for resolution runs.
type Recorder interface {
	// ObserveFetchDuration records one HTTP request for an archive of kind
	// ("docs" or "source").
	ObserveFetchDuration(kind string, d time.Duration, result ResultLabel)
	IncCacheLookup(cache string, hit bool)
	IncSourceOutcome(outcome SourceOutcome)
	ObserveResolveDuration(d time.Duration)
	IncResolveOutcome(success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetchDuration(string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncCacheLookup(string, bool)                             {}
func (NoopRecorder) IncSourceOutcome(SourceOutcome)                          {}
func (NoopRecorder) ObserveResolveDuration(time.Duration)                    {}
func (NoopRecorder) IncResolveOutcome(bool)                                  {}
