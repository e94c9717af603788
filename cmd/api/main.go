package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zpgsa.live/internal/app"
	"zpgsa.live/internal/appconf"
	"zpgsa.live/internal/departures"
	"zpgsa.live/internal/fleet"
	"zpgsa.live/internal/logging"
	"zpgsa.live/internal/metrics"
	"zpgsa.live/internal/publisher"
	"zpgsa.live/internal/restapi"
	"zpgsa.live/internal/static"
	"zpgsa.live/internal/stream"
	"zpgsa.live/internal/vehiclesource"
	"zpgsa.live/staticdb"
)

func main() {
	cfg, err := appconf.Load(appconf.LoadOptions{Args: os.Args[1:], Output: os.Stderr})
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger := logging.NewLogger(os.Stdout, cfg.SlogLevel(), cfg.Env == appconf.Development)

	if err := run(cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

func run(cfg appconf.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location, err := cfg.Location()
	if err != nil {
		return err
	}
	classifier, err := cfg.Classifier()
	if err != nil {
		return err
	}

	db, err := openStaticDB(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer logging.SafeCloseWithLogging(db, logger, "static_db")
	}

	dataset, err := loadStatic(ctx, cfg, db, logger)
	if err != nil {
		return err
	}

	source, err := vehiclesource.New(cfg.Vehicles, vehiclesource.Options{Logger: logger})
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	manager := fleet.NewManager(source, dataset, fleet.Config{
		PollInterval: cfg.Vehicles.PollInterval,
		FetchTimeout: cfg.Vehicles.FetchTimeout,
	}, fleet.WithLogger(logger), fleet.WithMetrics(collector))

	hub := stream.NewHub(manager, stream.WithLogger(logger), stream.WithMetrics(collector))
	manager.AddSink(hub)

	if cfg.NATS.URL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger, collector)
		if err != nil {
			return err
		}
		defer pub.Close()
		manager.AddSink(pub)
	}

	var timetables app.TimetableStore = app.DatasetTimetables(dataset)
	if db != nil {
		timetables = db
	}

	application := &app.Application{
		Config:     cfg,
		Logger:     logger,
		Static:     dataset,
		Timetables: timetables,
		Fleet:      manager,
		Departures: departures.NewFilter(classifier),
		Location:   location,
		Metrics:    collector,
		Stream:     hub,
	}

	api := restapi.NewRestAPI(application)
	defer api.Shutdown()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	manager.Start()
	defer manager.Shutdown()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env.String())
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStaticDB(cfg appconf.Config, logger *slog.Logger) (*staticdb.Client, error) {
	if cfg.Static.DatabaseDSN == "" {
		return nil, nil
	}
	return staticdb.NewClient(staticdb.Config{
		DSN:    cfg.Static.DatabaseDSN,
		Env:    cfg.Env,
		Logger: logger,
	})
}

// loadStatic reads the configured source and mirrors it into the static database. When the source
// cannot be read, the last mirrored copy is used instead.
func loadStatic(ctx context.Context, cfg appconf.Config, db *staticdb.Client, logger *slog.Logger) (*static.Dataset, error) {
	dataset, err := static.Load(ctx, cfg.Static.Source, static.Options{
		MaxRetries: cfg.Static.MaxRetries,
		Logger:     logger,
	})
	if err == nil {
		if db != nil {
			if importErr := db.Import(ctx, dataset); importErr != nil {
				return nil, importErr
			}
		}
		return dataset, nil
	}

	if db == nil {
		return nil, err
	}
	logging.LogError(logger, "static source unavailable, falling back to static database", err,
		slog.String("source", cfg.Static.Source))

	dataset, dbErr := db.LoadDataset(ctx)
	if dbErr != nil {
		return nil, errors.Join(err, dbErr)
	}
	if len(dataset.Stops()) == 0 {
		return nil, fmt.Errorf("static database is empty: %w", err)
	}
	return dataset, nil
}
