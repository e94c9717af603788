// Package stream pushes fleet changes to browsers over server-sent events.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"zpgsa.live/internal/fleet"
	"zpgsa.live/internal/logging"
)

const (
	EventSnapshot = "snapshot"
	EventDiff     = "diff"
	EventRoute    = "route"

	clientBuffer     = 10
	defaultKeepAlive = 15 * time.Second
)

type Event struct {
	Name string
	Data []byte
}

type ClientMetrics interface {
	StreamClientsConnected(n int)
}

type client struct {
	selection *fleet.Selection
	send      chan Event
}

// Hub is a fleet.Sink that forwards every cycle to the connected clients. A client that cannot
// keep up loses events instead of stalling the cycle.
//
// The hub keeps its own copy of the fleet, advanced only by the diffs it delivers. Snapshots are
// taken from that copy under the same lock, so every diff a client receives applies on top of
// its snapshot.
type Hub struct {
	manager   *fleet.Manager
	logger    *slog.Logger
	metrics   ClientMetrics
	keepAlive time.Duration

	mu       sync.Mutex
	clients  map[*client]struct{}
	vehicles map[string]fleet.Vehicle
}

type Option func(*Hub)

func WithLogger(logger *slog.Logger) Option { return func(h *Hub) { h.logger = logger } }

func WithMetrics(m ClientMetrics) Option { return func(h *Hub) { h.metrics = m } }

func WithKeepAlive(d time.Duration) Option { return func(h *Hub) { h.keepAlive = d } }

func NewHub(manager *fleet.Manager, opts ...Option) *Hub {
	h := &Hub{
		manager:   manager,
		logger:    logging.Discard(),
		keepAlive: defaultKeepAlive,
		clients:   make(map[*client]struct{}),
		vehicles:  make(map[string]fleet.Vehicle),
	}
	for _, opt := range opts {
		opt(h)
	}
	for _, v := range manager.Tracker().Vehicles() {
		h.vehicles[v.ID] = v
	}
	h.logger = logging.Component(h.logger, "sse_hub")
	return h
}

// RouteMessage is the payload of route events. Route is nil when the selection has no projection.
type RouteMessage struct {
	VehicleID string                `json:"vehicleId"`
	Route     *fleet.ProjectedRoute `json:"route"`
}

type diffMessage struct {
	CycleID string          `json:"cycleId"`
	Created []fleet.Vehicle `json:"created"`
	Updated []fleet.Vehicle `json:"updated"`
	Removed []string        `json:"removed"`
}

// CycleCompleted implements fleet.Sink.
func (h *Hub) CycleCompleted(result fleet.CycleResult) {
	diff, err := json.Marshal(diffMessage{
		CycleID: result.ID,
		Created: nonNil(result.Diff.Created),
		Updated: nonNil(result.Diff.Updated),
		Removed: nonNilIDs(result.Diff.Removed),
	})
	if err != nil {
		logging.LogError(h.logger, "failed to encode diff event", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, v := range result.Diff.Created {
		h.vehicles[v.ID] = v
	}
	for _, v := range result.Diff.Updated {
		h.vehicles[v.ID] = v
	}
	for _, id := range result.Diff.Removed {
		delete(h.vehicles, id)
	}

	dropped := 0
	for c := range h.clients {
		if !trySend(c, Event{Name: EventDiff, Data: diff}) {
			dropped++
		}
		if ev, ok := routeEvent(c.selection); ok && !trySend(c, ev) {
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Debug("dropped events for slow clients", slog.Int("dropped", dropped))
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP streams events until the client goes away. "?vehicle=<id>" selects a vehicle whose
// projected route follows every cycle.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := &client{
		selection: h.manager.Watch(r.URL.Query().Get("vehicle")),
		send:      make(chan Event, clientBuffer),
	}
	if err := h.register(c); err != nil {
		h.manager.Unwatch(c.selection)
		logging.LogError(h.logger, "failed to encode snapshot", err)
		http.Error(w, "snapshot unavailable", http.StatusInternalServerError)
		return
	}
	defer h.unregister(c)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-c.send:
			if err := writeEvent(w, ev); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// register queues the snapshot, and the selection's route when there is one, ahead of any diff
// and only then adds c to the fan-out.
func (h *Hub) register(c *client) error {
	h.mu.Lock()
	snapshot, err := json.Marshal(h.snapshotLocked())
	if err != nil {
		h.mu.Unlock()
		return err
	}
	c.send <- Event{Name: EventSnapshot, Data: snapshot}
	if ev, ok := routeEvent(c.selection); ok {
		c.send <- ev
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.StreamClientsConnected(n)
	}
	h.logger.Debug("stream client connected", slog.Int("clients", n))
	return nil
}

func (h *Hub) snapshotLocked() []fleet.Vehicle {
	out := make([]fleet.Vehicle, 0, len(h.vehicles))
	for _, v := range h.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	h.manager.Unwatch(c.selection)
	if h.metrics != nil {
		h.metrics.StreamClientsConnected(n)
	}
	h.logger.Debug("stream client disconnected", slog.Int("clients", n))
}

func routeEvent(s *fleet.Selection) (Event, bool) {
	id := s.VehicleID()
	if id == "" {
		return Event{}, false
	}
	msg := RouteMessage{VehicleID: id}
	if route, ok := s.Route(); ok {
		msg.Route = &route
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return Event{}, false
	}
	return Event{Name: EventRoute, Data: b}, true
}

func trySend(c *client, ev Event) bool {
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func writeEvent(w io.Writer, ev Event) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
	return err
}

func nonNil(vs []fleet.Vehicle) []fleet.Vehicle {
	if vs == nil {
		return []fleet.Vehicle{}
	}
	return vs
}

func nonNilIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
