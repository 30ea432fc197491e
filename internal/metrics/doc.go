// Package metrics records fetch, cache and resolution metrics.
//
// Components receive a Recorder and default to NoopRecorder, so no nil
// checks are needed at call sites. The Prometheus implementation is swapped
// in when metrics are enabled in the configuration:
//
//	reg := prometheus.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	resolver := resolve.New(cfg, resolve.WithRecorder(recorder))
package metrics
