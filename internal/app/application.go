package app

import (
	"context"
	"log/slog"
	"time"

	"zpgsa.live/internal/appconf"
	"zpgsa.live/internal/departures"
	"zpgsa.live/internal/fleet"
	"zpgsa.live/internal/metrics"
	"zpgsa.live/internal/static"
	"zpgsa.live/internal/stream"
	"zpgsa.live/internal/transit"
)

// TimetableStore serves the raw timetable of a stop. Unknown stops yield static.ErrStopNotFound.
type TimetableStore interface {
	Timetable(ctx context.Context, stopID string) ([]transit.TimetableEntry, error)
}

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config     appconf.Config
	Logger     *slog.Logger
	Static     *static.Dataset
	Timetables TimetableStore
	Fleet      *fleet.Manager
	Departures *departures.Filter
	Location   *time.Location
	Metrics    *metrics.Collector
	Stream     *stream.Hub
	// Clock overrides time.Now, mostly for tests.
	Clock func() time.Time
}

// Now returns the current time in the configured service time zone.
func (a *Application) Now() time.Time {
	now := time.Now()
	if a.Clock != nil {
		now = a.Clock()
	}
	if a.Location != nil {
		now = now.In(a.Location)
	}
	return now
}

// DatasetTimetables serves timetables straight from an in-memory data set.
func DatasetTimetables(d *static.Dataset) TimetableStore {
	return datasetTimetables{d}
}

type datasetTimetables struct {
	d *static.Dataset
}

func (t datasetTimetables) Timetable(_ context.Context, stopID string) ([]transit.TimetableEntry, error) {
	return t.d.Timetable(stopID)
}
