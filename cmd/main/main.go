package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/UnknownOlympus/iris/internal/api"
	"github.com/UnknownOlympus/iris/internal/config"
	"github.com/UnknownOlympus/iris/internal/lib/logger"
	"github.com/UnknownOlympus/iris/internal/metrics"
	"github.com/UnknownOlympus/iris/internal/repository"
	"github.com/UnknownOlympus/iris/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const readHeaderTimeout = 5 * time.Second

// main runs the task API and its monitoring server.
func main() {
	var wgr sync.WaitGroup

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env, os.Stdout)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	dtb, err := repository.NewDatabase(ctx, repository.DSN(cfg.Postgres))
	if err != nil {
		log.Error("Failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer dtb.Close()

	taskRepo := repository.NewTaskRepository(dtb, appMetrics)

	apiServer := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.NewRouter(log, taskRepo, appMetrics, cfg.HTTP.AllowedOrigins),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	wgr.Add(2)

	go func() {
		defer wgr.Done()
		server.StartMonitoringServer(ctx, log, reg, dtb, cfg.Monitoring.Port)
	}()

	go func() {
		defer wgr.Done()
		if serveErr := server.Serve(ctx, log.With("server", "api"), apiServer); serveErr != nil {
			log.ErrorContext(ctx, "Task API failed", "error", serveErr)
			stop()
		}
	}()

	log.InfoContext(ctx, "Application started. Press Ctrl+C to stop.", "address", cfg.HTTP.Address)

	wgr.Wait()

	log.InfoContext(ctx, "Application stopped gracefully...")
}
