// Package events announces completed pipeline runs to downstream consumers.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectPointsComputed is published after a season's points are written.
const SubjectPointsComputed = "fantasy.points.computed"

// PointsComputed is the payload of SubjectPointsComputed.
type PointsComputed struct {
	RunID       string         `json:"run_id,omitempty"`
	Season      int            `json:"season"`
	Weeks       []int          `json:"weeks"`
	Records     int            `json:"records"`
	Points      int            `json:"points"`
	Policy      string         `json:"policy"`
	Diagnostics map[string]int `json:"diagnostics"`
	ComputedAt  time.Time      `json:"computed_at"`
}

// Publisher sends events. Implementations must be safe to Close more than once.
type Publisher interface {
	Publish(subject string, data any) error
	Close()
}

// NATSPublisher publishes JSON payloads over a core NATS connection.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSPublisher connects to url, retrying in the background if the server
// is not up yet.
func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("fppull"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSPublisher{conn: nc, logger: logger}, nil
}

// Publish marshals data and publishes it, flushing so the message is on the
// wire before a short-lived CLI exits.
func (p *NATSPublisher) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	if err := p.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("flush %s: %w", subject, err)
	}
	p.logger.Info("Event published", "subject", subject, "bytes", len(payload))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn == nil || p.conn.IsClosed() {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// Nop discards every event. Used when NATS_URL is unset.
type Nop struct{}

func (Nop) Publish(string, any) error { return nil }
func (Nop) Close()                    {}

// Announce publishes ev on SubjectPointsComputed, stamping ComputedAt when
// unset and ordering Weeks.
func Announce(p Publisher, ev PointsComputed) error {
	if ev.ComputedAt.IsZero() {
		ev.ComputedAt = time.Now().UTC()
	}
	weeks := append([]int(nil), ev.Weeks...)
	sort.Ints(weeks)
	ev.Weeks = weeks
	return p.Publish(SubjectPointsComputed, ev)
}

// New returns a NATS publisher when url is set and Nop otherwise.
func New(url string, logger *slog.Logger) (Publisher, error) {
	if url == "" {
		return Nop{}, nil
	}
	return NewNATSPublisher(url, logger)
}
