// Package notify publishes resolution reports.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/plugindocs/internal/logfields"
	"git.home.luguber.info/inful/plugindocs/internal/resolve"
)

// Publisher sends a report somewhere after each resolution.
type Publisher interface {
	Publish(ctx context.Context, report *resolve.Report) error
	Close() error
}

// Event is the message body of a published report.
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Failed    int             `json:"failed"`
	Report    *resolve.Report `json:"report"`
}

const (
	EventResolved = "resolution.completed"
	// EventDegraded means at least one source resolved no documentation.
	EventDegraded = "resolution.degraded"
)

// NewEvent wraps a report.
func NewEvent(report *resolve.Report, now time.Time) Event {
	failed := len(report.Failed())
	typ := EventResolved
	if failed > 0 {
		typ = EventDegraded
	}
	return Event{Type: typ, Timestamp: now.UTC(), Failed: failed, Report: report}
}

// NoopPublisher drops every report.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *resolve.Report) error { return nil }
func (NoopPublisher) Close() error                                   { return nil }

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes reports on a core NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("plugindocs"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("NATS report publisher connected", logfields.URL(url), slog.String("subject", subject))
	return newNATSPublisher(nc, subject, logger), nil
}

func newNATSPublisher(c conn, subject string, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject, logger: logger}
}

// Publish sends the report and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, report *resolve.Report) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event := NewEvent(report, time.Now())
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	p.logger.Debug("Published resolution report",
		logfields.RunID(report.RunID),
		slog.String("type", event.Type))
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
