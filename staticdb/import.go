package staticdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"zpgsa.live/internal/logging"
	"zpgsa.live/internal/static"
)

// Import replaces the stored data set with d in a single transaction.
func (c *Client) Import(ctx context.Context, d *static.Dataset) error {
	start := time.Now()

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "static_import")

	for _, table := range []string{"timetable_entries", "timetables", "route_stops", "routes", "stops"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("error clearing %s: %w", table, err)
		}
	}

	if err := c.insertStops(ctx, tx, d); err != nil {
		return err
	}
	if err := c.insertRoutes(ctx, tx, d); err != nil {
		return err
	}
	if err := c.insertTimetables(ctx, tx, d); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	c.cache.Purge()

	counts := d.Counts()
	logging.LogOperation(c.logger, "static_data_imported",
		slog.Int("stops", counts["stops"]),
		slog.Int("routes", counts["routes"]),
		slog.Int("timetable_entries", counts["timetable_entries"]),
		slog.Duration("duration", time.Since(start)))

	return nil
}

func (c *Client) insertStops(ctx context.Context, tx *sql.Tx, d *static.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, c.rebind(
		"INSERT INTO stops (id, name, city, href, lat, lon, load_order) VALUES (?, ?, ?, ?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("error preparing stop insert: %w", err)
	}
	defer logging.SafeCloseWithLogging(stmt, c.logger, "stop_insert_statement")

	for i, s := range d.Stops() {
		if _, err := stmt.ExecContext(ctx, s.ID, s.Name, s.City, s.Href, s.Position.Lat, s.Position.Lon, i); err != nil {
			return fmt.Errorf("error inserting stop %s: %w", s.ID, err)
		}
	}
	return nil
}

func (c *Client) insertRoutes(ctx context.Context, tx *sql.Tx, d *static.Dataset) error {
	routeStmt, err := tx.PrepareContext(ctx, c.rebind("INSERT INTO routes (id, line_id, name) VALUES (?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("error preparing route insert: %w", err)
	}
	defer logging.SafeCloseWithLogging(routeStmt, c.logger, "route_insert_statement")

	stopStmt, err := tx.PrepareContext(ctx, c.rebind("INSERT INTO route_stops (route_id, seq, stop_id) VALUES (?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("error preparing route stop insert: %w", err)
	}
	defer logging.SafeCloseWithLogging(stopStmt, c.logger, "route_stop_insert_statement")

	for _, r := range d.Routes() {
		if _, err := routeStmt.ExecContext(ctx, r.ID, r.LineID, r.Name); err != nil {
			return fmt.Errorf("error inserting route %s: %w", r.ID, err)
		}
		for seq, stopID := range r.StopIDs {
			if _, err := stopStmt.ExecContext(ctx, r.ID, seq, stopID); err != nil {
				return fmt.Errorf("error inserting stop %d of route %s: %w", seq, r.ID, err)
			}
		}
	}
	return nil
}

func (c *Client) insertTimetables(ctx context.Context, tx *sql.Tx, d *static.Dataset) error {
	keyStmt, err := tx.PrepareContext(ctx, c.rebind("INSERT INTO timetables (stop_id) VALUES (?)"))
	if err != nil {
		return fmt.Errorf("error preparing timetable insert: %w", err)
	}
	defer logging.SafeCloseWithLogging(keyStmt, c.logger, "timetable_insert_statement")

	entryStmt, err := tx.PrepareContext(ctx, c.rebind(`INSERT INTO timetable_entries
		(stop_id, seq, departure_time, line_id, destination, service_days, school_restriction)
		VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("error preparing timetable entry insert: %w", err)
	}
	defer logging.SafeCloseWithLogging(entryStmt, c.logger, "timetable_entry_insert_statement")

	timetables := d.Timetables()
	stopIDs := make([]string, 0, len(timetables))
	for id := range timetables {
		stopIDs = append(stopIDs, id)
	}
	sort.Strings(stopIDs)

	for _, stopID := range stopIDs {
		if _, err := keyStmt.ExecContext(ctx, stopID); err != nil {
			return fmt.Errorf("error inserting timetable %s: %w", stopID, err)
		}
		for seq, e := range timetables[stopID] {
			_, err := entryStmt.ExecContext(ctx, stopID, seq, e.DepartureTime, e.LineID, e.Destination,
				e.ServiceDays.String(), e.SchoolRestriction.String())
			if err != nil {
				return fmt.Errorf("error inserting timetable entry %d of stop %s: %w", seq, stopID, err)
			}
		}
	}
	return nil
}
