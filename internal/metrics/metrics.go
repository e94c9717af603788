package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	TrackedVehiclesGauge prometheus.Gauge
	Cycles               *prometheus.CounterVec // result label: ok|fetch_error|skipped
	VehicleEventsTotal   *prometheus.CounterVec // kind label: created|updated|removed
	CycleDuration        prometheus.Histogram

	DepartureQueries *prometheus.CounterVec // result label: ok|not_found|error

	StreamClients prometheus.Gauge

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		TrackedVehiclesGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_tracked_vehicles",
			Help: "Number of vehicles currently tracked.",
		}),
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_cycles_total",
			Help: "Reconciliation cycles by result.",
		}, []string{"result"}),
		VehicleEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_vehicle_events_total",
			Help: "Vehicle lifecycle events by kind.",
		}, []string{"kind"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleet_cycle_duration_seconds",
			Help:    "Duration of reconciliation cycles, fetch included.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		DepartureQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_departure_queries_total",
			Help: "Departure board queries by result.",
		}, []string{"result"}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_stream_clients",
			Help: "Number of connected event stream clients.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		c.TrackedVehiclesGauge, c.Cycles, c.VehicleEventsTotal, c.CycleDuration,
		c.DepartureQueries, c.StreamClients,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Skipped cycles never ran, so they are counted but not timed.
func (c *Collector) CycleObserved(outcome string, d time.Duration) {
	c.Cycles.WithLabelValues(outcome).Inc()
	if outcome != "skipped" {
		c.CycleDuration.Observe(d.Seconds())
	}
}

func (c *Collector) TrackedVehicles(n int) { c.TrackedVehiclesGauge.Set(float64(n)) }

func (c *Collector) VehicleEvents(created, updated, removed int) {
	c.VehicleEventsTotal.WithLabelValues("created").Add(float64(created))
	c.VehicleEventsTotal.WithLabelValues("updated").Add(float64(updated))
	c.VehicleEventsTotal.WithLabelValues("removed").Add(float64(removed))
}

func (c *Collector) DeparturesQueried(result string) {
	c.DepartureQueries.WithLabelValues(result).Inc()
}

func (c *Collector) StreamClientsConnected(n int) { c.StreamClients.Set(float64(n)) }

func (c *Collector) Published()    { c.NATSPublished.Inc() }
func (c *Collector) PublishError() { c.NATSPublishErrs.Inc() }

func (c *Collector) Connected(up bool) {
	if up {
		c.NATSConnected.Set(1)
		return
	}
	c.NATSConnected.Set(0)
}
