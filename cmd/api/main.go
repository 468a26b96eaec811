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
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver

	"raptor.opentransit.org/internal/app"
	"raptor.opentransit.org/internal/appconf"
	"raptor.opentransit.org/internal/clock"
	"raptor.opentransit.org/internal/logging"
	"raptor.opentransit.org/internal/metrics"
	"raptor.opentransit.org/internal/raptor"
	"raptor.opentransit.org/internal/restapi"
	"raptor.opentransit.org/internal/stopsdb"
	"raptor.opentransit.org/internal/timetable"
	"raptor.opentransit.org/internal/webui"
)

func main() {
	// A .env file is optional; flags and real environment variables win.
	_ = godotenv.Load()

	var cfg appconf.Config
	var envFlag string
	var stopsDBPath string

	flag.IntVar(&cfg.Port, "port", envInt("PORT", 4000), "API server port")
	flag.StringVar(&envFlag, "env", envString("ENV", "development"), "Environment (development|test|production)")
	flag.StringVar(&cfg.TimetablePath, "timetable", envString("TIMETABLE_PATH", "./text"), "Timetable directory or GTFS zip file")
	flag.StringVar(&cfg.StaticDir, "static-dir", envString("STATIC_DIR", "./web"), "Directory of static web assets")
	flag.StringVar(&stopsDBPath, "stops-db", envString("STOPS_DB", ":memory:"), "Path of the stops search database")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging")
	flag.IntVar(&cfg.RateLimit, "rate-limit", envInt("RATE_LIMIT", 100), "Requests per second per API key")
	flag.IntVar(&cfg.Workers, "workers", 0, "Planner workers per query (0 = one per CPU)")
	flag.Parse()

	cfg.Env = appconf.EnvFlagToEnvironment(envFlag)

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, stopsDBPath, logger); err != nil {
		logging.LogError(logger, "server exited", err)
		os.Exit(1)
	}
}

func run(cfg appconf.Config, stopsDBPath string, logger *slog.Logger) error {
	snapshot, err := timetable.Load(cfg.TimetablePath)
	if err != nil {
		return fmt.Errorf("loading timetable from %s: %w", cfg.TimetablePath, err)
	}

	stopsDB, err := stopsdb.NewClient(stopsDBPath)
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(stopsDB, logger, "stops_database")

	if err := stopsDB.Populate(context.Background(), snapshot); err != nil {
		return fmt.Errorf("populating stops database: %w", err)
	}

	appMetrics := metrics.NewWithLogger(logger)
	appMetrics.StartDBStatsCollector(stopsDB.DB, 15*time.Second)
	defer appMetrics.Shutdown()

	application := &app.Application{
		Config:   cfg,
		Logger:   logger,
		Snapshot: snapshot,
		Engine:   raptor.New(snapshot, cfg.Workers),
		StopsDB:  stopsDB,
		Clock:    clock.RealClock{},
		Metrics:  appMetrics,
	}

	mux := http.NewServeMux()
	restapi.New(application).SetRoutes(mux)
	webui.New(cfg, snapshot).SetRoutes(mux)

	rateLimiter := restapi.NewRateLimitMiddleware(cfg.RateLimit, time.Second, nil, application.Clock)
	defer rateLimiter.Stop()

	var handler http.Handler = mux
	handler = restapi.CompressionMiddleware(handler)
	handler = rateLimiter.Handler()(handler)
	handler = restapi.MetricsHandler(appMetrics)(handler)
	handler = restapi.NewRequestLoggingMiddleware(logger)(handler)
	handler = restapi.RequestIDMiddleware(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.LogOperation(logger, "server_starting",
			slog.Int("port", cfg.Port),
			slog.String("env", cfg.Env.String()))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logging.LogOperation(logger, "server_shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}

	return nil
}

func envString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
