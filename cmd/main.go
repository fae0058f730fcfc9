package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	service "github.com/okian/seqprep/internal/app"
	"github.com/okian/seqprep/internal/config"
	"github.com/okian/seqprep/pkg/logger"
	"github.com/okian/seqprep/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readHeaderTimeout = 5 * time.Second
)

func main() {
	metricsAddr := flag.String("metrics-addr", "", "expose Prometheus metrics on this address (empty disables)")
	flag.Parse()

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Metrics endpoint is optional; the pipeline is batch-shaped and most
	// runs scrape nothing.
	if *metricsAddr != "" {
		go serveMetrics(ctx, *metricsAddr)
	}

	svc := service.New(cfg, service.WithLogger(loggerInstance))
	report, err := svc.Run(ctx)
	if err != nil {
		loggerInstance.Error(ctx, "pipeline failed", logger.Error(err))
		os.Exit(1)
	}

	loggerInstance.Info(ctx, "pipeline complete",
		logger.String("runID", report.RunID),
		logger.Int("subjects", report.SubjectCount),
		logger.Int("events", report.EventCount),
		logger.Any("splits", report.Splits),
		logger.Any("droppedColumns", report.DroppedColumns),
		logger.String("outputDir", cfg.OutputDir))
}

// serveMetrics exposes the custom registry until the context ends.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		os.Stderr.WriteString("metrics server failed: " + err.Error() + "\n")
	}
}
