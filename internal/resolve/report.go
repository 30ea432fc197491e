package resolve

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
	"git.home.luguber.info/inful/plugindocs/internal/metrics"
)

// Report describes the outcome of one resolution run.
type Report struct {
	RunID      string         `json:"runId"`
	Mode       string         `json:"mode"`
	StartedAt  time.Time      `json:"startedAt"`
	DurationMS int64          `json:"durationMs"`
	Sources    []SourceReport `json:"sources"`
}

// SourceReport is the outcome of one configured source.
type SourceReport struct {
	Repo        string                `json:"repo"`
	Version     string                `json:"version"`
	Title       string                `json:"title"`
	Outcome     metrics.SourceOutcome `json:"outcome"`
	ArchiveKind string                `json:"archiveKind,omitempty"`
	ArchiveURL  string                `json:"archiveUrl,omitempty"`
	Digest      string                `json:"digest,omitempty"`
	// Components lists the component types that resolved, in canonical order.
	Components []string  `json:"components"`
	Failures   []Failure `json:"failures,omitempty"`
}

// Failure is one reason a source or one of its component types failed.
type Failure struct {
	// Component is empty when the whole source failed.
	Component    string   `json:"component,omitempty"`
	Category     string   `json:"category"`
	Reason       string   `json:"reason"`
	InvalidPaths []string `json:"invalidPaths,omitempty"`
}

func failureOf(component string, err error) Failure {
	f := Failure{Component: component, Category: string(errors.GetCategory(err)), Reason: err.Error()}
	if c, ok := errors.AsClassified(err); ok {
		f.Reason = c.Message()
		if c.Cause() != nil {
			f.Reason = fmt.Sprintf("%s: %v", c.Message(), c.Cause())
		}
		f.InvalidPaths, _ = c.Context().GetStrings("invalid_paths")
	}
	return f
}

// Failed returns the sources that resolved no component type.
func (r *Report) Failed() []SourceReport {
	var out []SourceReport
	for _, s := range r.Sources {
		if s.Outcome == metrics.SourceFailed {
			out = append(out, s)
		}
	}
	return out
}

// Summary lists one line per failure of every failed source, naming the
// source and the precise reason.
func (s SourceReport) Summary() []string {
	lines := make([]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		line := fmt.Sprintf("%s@%s: [%s] %s", s.Repo, s.Version, f.Category, f.Reason)
		if f.Component != "" {
			line = fmt.Sprintf("%s@%s (%s): [%s] %s", s.Repo, s.Version, f.Component, f.Category, f.Reason)
		}
		for _, p := range f.InvalidPaths {
			line += "\n      " + p
		}
		lines = append(lines, line)
	}
	return lines
}
