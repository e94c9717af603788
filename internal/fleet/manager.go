package fleet

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"zpgsa.live/internal/logging"
)

// ErrCycleInFlight is returned when a cycle is requested while another one is still running.
var ErrCycleInFlight = errors.New("fleet: reconciliation cycle already in flight")

// Source fetches the current fleet snapshot.
type Source interface {
	Fetch(ctx context.Context) ([]Record, error)
}

// Sink receives the result of every successful cycle, in cycle order.
type Sink interface {
	CycleCompleted(result CycleResult)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(result CycleResult)

func (f SinkFunc) CycleCompleted(result CycleResult) { f(result) }

// Metrics is the instrumentation the manager reports to.
type Metrics interface {
	CycleObserved(outcome string, d time.Duration)
	TrackedVehicles(n int)
	VehicleEvents(created, updated, removed int)
}

const (
	OutcomeOK         = "ok"
	OutcomeFetchError = "fetch_error"
	OutcomeSkipped    = "skipped"
)

// CycleResult describes one completed reconciliation.
type CycleResult struct {
	ID        string        `json:"cycleId"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"-"`
	Diff      Diff          `json:"diff"`
	Tracked   int           `json:"tracked"`
}

type Config struct {
	PollInterval time.Duration
	FetchTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	return c
}

// Manager drives the polling cycle. Cycles are strictly serialized: the next one is only armed
// once the previous one has finished, whatever its outcome.
type Manager struct {
	source  Source
	catalog Catalog
	config  Config
	logger  *slog.Logger
	metrics Metrics
	tracker *Tracker
	now     func() time.Time

	sinksMu sync.RWMutex
	sinks   []Sink

	selectionsMu sync.Mutex
	selections   map[*Selection]struct{}

	inFlight atomic.Bool

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	startOnce    sync.Once
	shutdownOnce sync.Once
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithMetrics(metrics Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(source Source, catalog Catalog, config Config, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		source:       source,
		catalog:      catalog,
		config:       config.withDefaults(),
		logger:       slog.Default(),
		metrics:      noopMetrics{},
		tracker:      NewTracker(),
		now:          time.Now,
		selections:   map[*Selection]struct{}{},
		ctx:          ctx,
		cancel:       cancel,
		shutdownChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.Component(m.logger, "fleet_manager")
	return m
}

func (m *Manager) Tracker() *Tracker { return m.tracker }

func (m *Manager) Catalog() Catalog { return m.catalog }

func (m *Manager) AddSink(s Sink) {
	m.sinksMu.Lock()
	defer m.sinksMu.Unlock()
	m.sinks = append(m.sinks, s)
}

// Watch registers a selection refreshed on every cycle. An empty vehicleID starts unselected.
func (m *Manager) Watch(vehicleID string) *Selection {
	s := &Selection{owner: m}
	m.selectionsMu.Lock()
	m.selections[s] = struct{}{}
	m.selectionsMu.Unlock()

	if vehicleID != "" {
		s.Select(vehicleID)
	}
	return s
}

func (m *Manager) Unwatch(s *Selection) {
	m.selectionsMu.Lock()
	defer m.selectionsMu.Unlock()
	delete(m.selections, s)
}

// Start launches the polling goroutine. The first cycle runs immediately.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		m.wg.Add(1)
		go m.pollLoop()
	})
}

// Shutdown stops polling and waits for an in-flight cycle to finish. It is safe to call repeatedly.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.cancel()
		close(m.shutdownChan)
		m.wg.Wait()
	})
}

func (m *Manager) pollLoop() {
	defer m.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-m.shutdownChan:
			m.logger.Info("fleet polling stopped")
			return
		case <-timer.C:
			_, _ = m.RunCycle(m.ctx)
			timer.Reset(m.config.PollInterval)
		}
	}
}

// RunCycle fetches, reconciles and publishes one snapshot. A failed fetch leaves the tracked set
// untouched and reaches no sink.
func (m *Manager) RunCycle(ctx context.Context) (CycleResult, error) {
	if !m.inFlight.CompareAndSwap(false, true) {
		m.metrics.CycleObserved(OutcomeSkipped, 0)
		return CycleResult{}, ErrCycleInFlight
	}
	defer m.inFlight.Store(false)

	started := m.now()
	cycleID := uuid.NewString()
	logger := m.logger.With(slog.String("cycle_id", cycleID))

	fetchCtx, cancel := context.WithTimeout(ctx, m.config.FetchTimeout)
	snapshot, err := m.source.Fetch(fetchCtx)
	cancel()
	if err != nil {
		elapsed := m.now().Sub(started)
		m.metrics.CycleObserved(OutcomeFetchError, elapsed)
		logging.LogError(logger, "fleet snapshot fetch failed", err,
			slog.Int("tracked", m.tracker.Len()))
		return CycleResult{}, err
	}

	diff := m.tracker.Apply(snapshot, started)
	m.refreshSelections()

	result := CycleResult{
		ID:        cycleID,
		StartedAt: started,
		Duration:  m.now().Sub(started),
		Diff:      diff,
		Tracked:   m.tracker.Len(),
	}

	m.metrics.CycleObserved(OutcomeOK, result.Duration)
	m.metrics.TrackedVehicles(result.Tracked)
	m.metrics.VehicleEvents(len(diff.Created), len(diff.Updated), len(diff.Removed))

	logger.Debug("fleet cycle completed",
		slog.Int("created", len(diff.Created)),
		slog.Int("updated", len(diff.Updated)),
		slog.Int("removed", len(diff.Removed)),
		slog.Duration("duration", result.Duration))

	m.sinksMu.RLock()
	sinks := append([]Sink(nil), m.sinks...)
	m.sinksMu.RUnlock()
	for _, s := range sinks {
		s.CycleCompleted(result)
	}

	return result, nil
}

func (m *Manager) refreshSelections() {
	m.selectionsMu.Lock()
	selections := make([]*Selection, 0, len(m.selections))
	for s := range m.selections {
		selections = append(selections, s)
	}
	m.selectionsMu.Unlock()

	for _, s := range selections {
		s.refresh()
	}
}

type noopMetrics struct{}

func (noopMetrics) CycleObserved(string, time.Duration) {}
func (noopMetrics) TrackedVehicles(int)                 {}
func (noopMetrics) VehicleEvents(int, int, int)         {}
