package publisher

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"zpgsa.live/internal/fleet"
	"zpgsa.live/internal/logging"
)

const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventRemoved = "removed"
)

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
	Close()
}

type PublisherMetrics interface {
	Published()
	PublishError()
	Connected(up bool)
}

// NATSPublisher fans reconciliation diffs out to NATS, one message per vehicle event.
type NATSPublisher struct {
	nc      Conn
	prefix  string
	logger  *slog.Logger
	metrics PublisherMetrics
}

func NewNATSPublisher(url, prefix string, logger *slog.Logger, m PublisherMetrics) (*NATSPublisher, error) {
	logger = logging.Component(logger, "nats_publisher")

	setConnected := func(up bool) {
		if m != nil {
			m.Connected(up)
		}
	}

	nc, err := nats.Connect(url,
		nats.Name("fleet-tracker"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			setConnected(false)
			if err != nil {
				logging.LogError(logger, "nats disconnected", err)
				return
			}
			logger.Warn("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			setConnected(true)
			logger.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			setConnected(false)
			logger.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("error connecting to NATS: %w", err)
	}
	setConnected(true)

	return NewWithConn(nc, prefix, logger, m), nil
}

// NewWithConn wraps an established connection.
func NewWithConn(nc Conn, prefix string, logger *slog.Logger, m PublisherMetrics) *NATSPublisher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &NATSPublisher{nc: nc, prefix: subjectPrefix(prefix), logger: logger, metrics: m}
}

func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		logging.LogError(p.logger, "nats drain failed", err)
	}
	p.nc.Close()
}

// VehicleMessage is the payload of created and updated events.
type VehicleMessage struct {
	Event     string        `json:"event"`
	CycleID   string        `json:"cycleId"`
	Timestamp time.Time     `json:"timestamp"`
	Vehicle   fleet.Vehicle `json:"vehicle"`
}

// RemovedMessage is the payload of removed events.
type RemovedMessage struct {
	Event     string    `json:"event"`
	CycleID   string    `json:"cycleId"`
	Timestamp time.Time `json:"timestamp"`
	VehicleID string    `json:"vehicleId"`
}

// Message is one subject and its encoded payload.
type Message struct {
	Subject string
	Data    []byte
}

// BuildMessages encodes every event of a cycle, created first, then updated, then removed.
func BuildMessages(prefix string, result fleet.CycleResult) ([]Message, error) {
	prefix = subjectPrefix(prefix)
	msgs := make([]Message, 0, len(result.Diff.Created)+len(result.Diff.Updated)+len(result.Diff.Removed))

	add := func(event, vehicleID string, payload any) error {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		msgs = append(msgs, Message{Subject: Subject(prefix, event, vehicleID), Data: b})
		return nil
	}

	for _, group := range []struct {
		event    string
		vehicles []fleet.Vehicle
	}{
		{EventCreated, result.Diff.Created},
		{EventUpdated, result.Diff.Updated},
	} {
		for _, v := range group.vehicles {
			msg := VehicleMessage{Event: group.event, CycleID: result.ID, Timestamp: result.StartedAt, Vehicle: v}
			if err := add(group.event, v.ID, msg); err != nil {
				return nil, err
			}
		}
	}
	for _, id := range result.Diff.Removed {
		msg := RemovedMessage{Event: EventRemoved, CycleID: result.ID, Timestamp: result.StartedAt, VehicleID: id}
		if err := add(EventRemoved, id, msg); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

// CycleCompleted implements fleet.Sink. Publish failures are logged and counted; they never
// stop the remaining messages.
func (p *NATSPublisher) CycleCompleted(result fleet.CycleResult) {
	msgs, err := BuildMessages(p.prefix, result)
	if err != nil {
		logging.LogError(p.logger, "failed to encode fleet events", err, slog.String("cycle_id", result.ID))
		return
	}

	failed := 0
	for _, m := range msgs {
		if err := p.nc.Publish(m.Subject, m.Data); err != nil {
			failed++
			if p.metrics != nil {
				p.metrics.PublishError()
			}
			p.logger.Debug("nats publish failed", slog.String("subject", m.Subject), slog.String("error", err.Error()))
			continue
		}
		if p.metrics != nil {
			p.metrics.Published()
		}
	}

	if failed > 0 {
		p.logger.Warn("some fleet events were not published",
			slog.String("cycle_id", result.ID),
			slog.Int("failed", failed),
			slog.Int("total", len(msgs)))
	}
}

// Subject builds "<prefix>.<event>.<vehicleId>".
func Subject(prefix, event, vehicleID string) string {
	return fmt.Sprintf("%s.%s.%s", prefix, subjectToken(event), subjectToken(vehicleID))
}

// subjectPrefix keeps dots as hierarchy separators but sanitizes each token.
func subjectPrefix(prefix string) string {
	parts := strings.Split(strings.Trim(strings.TrimSpace(prefix), "."), ".")
	for i, part := range parts {
		parts[i] = subjectToken(part)
	}
	return strings.Join(parts, ".")
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
