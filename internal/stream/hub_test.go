package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zpgsa.live/internal/fleet"
	"zpgsa.live/internal/static"
	"zpgsa.live/internal/transit"
)

type scriptedSource struct {
	mu        sync.Mutex
	snapshots [][]fleet.Record
}

func (s *scriptedSource) Fetch(context.Context) ([]fleet.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snapshots) == 0 {
		return nil, nil
	}
	next := s.snapshots[0]
	if len(s.snapshots) > 1 {
		s.snapshots = s.snapshots[1:]
	}
	return next, nil
}

func testCatalog() *static.Dataset {
	return static.NewDataset([]transit.Stop{
		{ID: "s1", Position: transit.Coordinates{Lat: 50.1, Lon: 16.1}},
		{ID: "s2", Position: transit.Coordinates{Lat: 50.2, Lon: 16.2}},
		{ID: "s3", Position: transit.Coordinates{Lat: 50.3, Lon: 16.3}},
	}, []transit.RouteDefinition{
		{ID: "r1", LineID: "1", StopIDs: []string{"s1", "s2", "s3"}},
	}, nil)
}

func vehicle(id, lastStop string, lat float64) fleet.Record {
	return fleet.Record{
		ID:               id,
		LineID:           "1",
		RouteID:          "r1",
		LastPassedStopID: lastStop,
		Position:         transit.Coordinates{Lat: lat, Lon: 16.0},
	}
}

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

type gaugeRecorder struct {
	mu   sync.Mutex
	last int
}

func (g *gaugeRecorder) StreamClientsConnected(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = n
}

func (g *gaugeRecorder) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func TestStreamSnapshotDiffAndRoute(t *testing.T) {
	src := &scriptedSource{snapshots: [][]fleet.Record{
		{vehicle("v1", "s1", 50.15)},
		{vehicle("v1", "s2", 50.25), vehicle("v2", "s1", 50.11)},
	}}
	manager := fleet.NewManager(src, testCatalog(), fleet.Config{})
	gauge := &gaugeRecorder{}
	hub := NewHub(manager, WithMetrics(gauge))
	manager.AddSink(hub)

	_, err := manager.RunCycle(context.Background())
	require.NoError(t, err)

	server := httptest.NewServer(hub)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"?vehicle=v1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)

	snapshot := readEvent(t, reader)
	require.Equal(t, EventSnapshot, snapshot.name)
	var vehicles []fleet.Vehicle
	require.NoError(t, json.Unmarshal([]byte(snapshot.data), &vehicles))
	require.Len(t, vehicles, 1)
	assert.Equal(t, "v1", vehicles[0].ID)

	initialRoute := readEvent(t, reader)
	require.Equal(t, EventRoute, initialRoute.name)
	var route RouteMessage
	require.NoError(t, json.Unmarshal([]byte(initialRoute.data), &route))
	require.NotNil(t, route.Route)
	assert.Len(t, route.Route.Points, 3, "vehicle plus s2 and s3")
	assert.Equal(t, 1, gauge.value())

	_, err = manager.RunCycle(context.Background())
	require.NoError(t, err)

	diffEvent := readEvent(t, reader)
	require.Equal(t, EventDiff, diffEvent.name)
	var diff diffMessage
	require.NoError(t, json.Unmarshal([]byte(diffEvent.data), &diff))
	require.Len(t, diff.Created, 1)
	assert.Equal(t, "v2", diff.Created[0].ID)
	require.Len(t, diff.Updated, 1)
	assert.Equal(t, "v1", diff.Updated[0].ID)
	assert.Empty(t, diff.Removed)

	routeEvent := readEvent(t, reader)
	require.Equal(t, EventRoute, routeEvent.name)
	require.NoError(t, json.Unmarshal([]byte(routeEvent.data), &route))
	require.NotNil(t, route.Route)
	assert.Len(t, route.Route.Points, 2, "vehicle plus s3")
}

func TestStreamWithoutSelectionGetsNoRouteEvents(t *testing.T) {
	src := &scriptedSource{snapshots: [][]fleet.Record{{vehicle("v1", "s1", 50.15)}}}
	manager := fleet.NewManager(src, testCatalog(), fleet.Config{})
	hub := NewHub(manager)
	manager.AddSink(hub)

	server := httptest.NewServer(hub)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	reader := bufio.NewReader(resp.Body)

	snapshot := readEvent(t, reader)
	require.Equal(t, EventSnapshot, snapshot.name)
	assert.Equal(t, "[]", snapshot.data)

	_, err = manager.RunCycle(context.Background())
	require.NoError(t, err)

	next := readEvent(t, reader)
	assert.Equal(t, EventDiff, next.name)

	_, err = manager.RunCycle(context.Background())
	require.NoError(t, err)

	next = readEvent(t, reader)
	assert.Equal(t, EventDiff, next.name, "no route event in between")
}

func TestRouteEventIsNullWithoutProjection(t *testing.T) {
	manager := fleet.NewManager(&scriptedSource{}, testCatalog(), fleet.Config{})
	sel := manager.Watch("ghost")

	ev, ok := routeEvent(sel)
	require.True(t, ok)
	assert.JSONEq(t, `{"vehicleId":"ghost","route":null}`, string(ev.Data))

	sel.Clear()
	_, ok = routeEvent(sel)
	assert.False(t, ok)
}

func TestSlowClientDropsEvents(t *testing.T) {
	manager := fleet.NewManager(&scriptedSource{}, testCatalog(), fleet.Config{})
	hub := NewHub(manager)

	slow := &client{selection: manager.Watch(""), send: make(chan Event, clientBuffer)}
	require.NoError(t, hub.register(slow))
	defer hub.unregister(slow)

	done := make(chan struct{})
	go func() {
		for i := 0; i < clientBuffer*3; i++ {
			hub.CycleCompleted(fleet.CycleResult{ID: "c"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("CycleCompleted blocked on a slow client")
	}
	assert.Len(t, slow.send, clientBuffer)
}

func TestClientCountTracksDisconnects(t *testing.T) {
	manager := fleet.NewManager(&scriptedSource{}, testCatalog(), fleet.Config{})
	hub := NewHub(manager)
	server := httptest.NewServer(hub)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	_ = readEvent(t, bufio.NewReader(resp.Body))
	assert.Equal(t, 1, hub.ClientCount())

	cancel()
	_ = resp.Body.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSnapshotNeverRunsAheadOfDiffs(t *testing.T) {
	src := &scriptedSource{snapshots: [][]fleet.Record{{vehicle("v1", "s1", 50.15)}}}
	manager := fleet.NewManager(src, testCatalog(), fleet.Config{})
	hub := NewHub(manager)

	// The cycle lands in the tracker before the hub hears about it, as when a client connects
	// while sinks are still being notified.
	result, err := manager.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, manager.Tracker().Len())

	c := &client{selection: manager.Watch(""), send: make(chan Event, clientBuffer)}
	require.NoError(t, hub.register(c))
	defer hub.unregister(c)

	hub.CycleCompleted(result)

	snapshot := <-c.send
	require.Equal(t, EventSnapshot, snapshot.Name)
	assert.Equal(t, "[]", string(snapshot.Data))

	diffEvent := <-c.send
	require.Equal(t, EventDiff, diffEvent.Name)
	var diff diffMessage
	require.NoError(t, json.Unmarshal(diffEvent.Data, &diff))
	require.Len(t, diff.Created, 1)
	assert.Equal(t, "v1", diff.Created[0].ID)
}

func TestNewHubStartsFromTrackedFleet(t *testing.T) {
	src := &scriptedSource{snapshots: [][]fleet.Record{{vehicle("v2", "s1", 50.1), vehicle("v1", "s2", 50.2)}}}
	manager := fleet.NewManager(src, testCatalog(), fleet.Config{})
	_, err := manager.RunCycle(context.Background())
	require.NoError(t, err)

	hub := NewHub(manager)
	c := &client{selection: manager.Watch("v1"), send: make(chan Event, clientBuffer)}
	require.NoError(t, hub.register(c))
	defer hub.unregister(c)

	snapshot := <-c.send
	var vehicles []fleet.Vehicle
	require.NoError(t, json.Unmarshal(snapshot.Data, &vehicles))
	require.Len(t, vehicles, 2)
	assert.Equal(t, "v1", vehicles[0].ID)
	assert.Equal(t, "v2", vehicles[1].ID)

	route := <-c.send
	assert.Equal(t, EventRoute, route.Name)
}
