package staticdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/bluele/gcache"
	"zpgsa.live/internal/logging"
	"zpgsa.live/internal/static"
	"zpgsa.live/internal/transit"
)

// Timetable returns the stored timetable of a stop. Results are cached until the next Import.
// Unknown stops yield static.ErrStopNotFound.
func (c *Client) Timetable(ctx context.Context, stopID string) ([]transit.TimetableEntry, error) {
	if cached, err := c.cache.Get(stopID); err == nil {
		entries, _ := cached.([]transit.TimetableEntry)
		return append([]transit.TimetableEntry(nil), entries...), nil
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		return nil, err
	}

	known, err := c.stopKnown(ctx, stopID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, static.ErrStopNotFound
	}

	entries, err := c.timetableEntries(ctx, stopID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(stopID, entries); err != nil {
		return nil, err
	}
	return append([]transit.TimetableEntry(nil), entries...), nil
}

func (c *Client) stopKnown(ctx context.Context, stopID string) (bool, error) {
	var n int
	err := c.DB.QueryRowContext(ctx, c.rebind(
		"SELECT (SELECT COUNT(*) FROM stops WHERE id = ?) + (SELECT COUNT(*) FROM timetables WHERE stop_id = ?)"),
		stopID, stopID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error looking up stop %s: %w", stopID, err)
	}
	return n > 0, nil
}

func (c *Client) timetableEntries(ctx context.Context, stopID string) (entries []transit.TimetableEntry, err error) {
	rows, err := c.DB.QueryContext(ctx, c.rebind(`SELECT departure_time, line_id, destination, service_days, school_restriction
		FROM timetable_entries WHERE stop_id = ? ORDER BY seq`), stopID)
	if err != nil {
		return nil, fmt.Errorf("error querying timetable of %s: %w", stopID, err)
	}
	defer logging.HandleDeferredError(&err, rows.Close, c.logger, "close_timetable_rows")

	for rows.Next() {
		var e transit.TimetableEntry
		var days, restriction string
		if err := rows.Scan(&e.DepartureTime, &e.LineID, &e.Destination, &days, &restriction); err != nil {
			return nil, fmt.Errorf("error scanning timetable entry: %w", err)
		}
		e.ServiceDays = transit.ParseServiceDays(days)
		e.SchoolRestriction = transit.ParseSchoolRestriction(restriction)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LoadDataset rebuilds an in-memory dataset from the stored rows.
func (c *Client) LoadDataset(ctx context.Context) (*static.Dataset, error) {
	stops, err := c.loadStops(ctx)
	if err != nil {
		return nil, err
	}
	routes, err := c.loadRoutes(ctx)
	if err != nil {
		return nil, err
	}
	timetables, err := c.loadTimetables(ctx)
	if err != nil {
		return nil, err
	}
	return static.NewDataset(stops, routes, timetables), nil
}

func (c *Client) loadStops(ctx context.Context) (stops []transit.Stop, err error) {
	rows, err := c.DB.QueryContext(ctx, "SELECT id, name, city, href, lat, lon FROM stops ORDER BY load_order")
	if err != nil {
		return nil, fmt.Errorf("error querying stops: %w", err)
	}
	defer logging.HandleDeferredError(&err, rows.Close, c.logger, "close_stop_rows")

	for rows.Next() {
		var s transit.Stop
		if err := rows.Scan(&s.ID, &s.Name, &s.City, &s.Href, &s.Position.Lat, &s.Position.Lon); err != nil {
			return nil, fmt.Errorf("error scanning stop: %w", err)
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

func (c *Client) loadRoutes(ctx context.Context) (routes []transit.RouteDefinition, err error) {
	rows, err := c.DB.QueryContext(ctx, `SELECT r.id, r.line_id, r.name, rs.stop_id
		FROM routes r LEFT JOIN route_stops rs ON rs.route_id = r.id
		ORDER BY r.id, rs.seq`)
	if err != nil {
		return nil, fmt.Errorf("error querying routes: %w", err)
	}
	defer logging.HandleDeferredError(&err, rows.Close, c.logger, "close_route_rows")

	for rows.Next() {
		var id, line, name string
		var stopID *string
		if err := rows.Scan(&id, &line, &name, &stopID); err != nil {
			return nil, fmt.Errorf("error scanning route: %w", err)
		}
		if len(routes) == 0 || routes[len(routes)-1].ID != id {
			routes = append(routes, transit.RouteDefinition{ID: id, LineID: line, Name: name})
		}
		if stopID != nil {
			last := &routes[len(routes)-1]
			last.StopIDs = append(last.StopIDs, *stopID)
		}
	}
	return routes, rows.Err()
}

func (c *Client) loadTimetables(ctx context.Context) (timetables map[string][]transit.TimetableEntry, err error) {
	rows, err := c.DB.QueryContext(ctx, `SELECT t.stop_id, e.departure_time, e.line_id, e.destination,
			e.service_days, e.school_restriction
		FROM timetables t LEFT JOIN timetable_entries e ON e.stop_id = t.stop_id
		ORDER BY t.stop_id, e.seq`)
	if err != nil {
		return nil, fmt.Errorf("error querying timetables: %w", err)
	}
	defer logging.HandleDeferredError(&err, rows.Close, c.logger, "close_timetable_rows")

	timetables = map[string][]transit.TimetableEntry{}
	for rows.Next() {
		var stopID string
		var clock, line, destination, days, restriction *string
		if err := rows.Scan(&stopID, &clock, &line, &destination, &days, &restriction); err != nil {
			return nil, fmt.Errorf("error scanning timetable entry: %w", err)
		}
		if _, ok := timetables[stopID]; !ok {
			timetables[stopID] = []transit.TimetableEntry{}
		}
		if clock == nil {
			continue
		}
		timetables[stopID] = append(timetables[stopID], transit.TimetableEntry{
			DepartureTime:     *clock,
			LineID:            *line,
			Destination:       *destination,
			ServiceDays:       transit.ParseServiceDays(*days),
			SchoolRestriction: transit.ParseSchoolRestriction(*restriction),
		})
	}
	return timetables, rows.Err()
}

// Counts reports the number of stored rows per collection.
func (c *Client) Counts(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, table := range []string{"stops", "routes", "timetables", "timetable_entries"} {
		var n int
		if err := c.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("error counting %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
