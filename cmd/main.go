package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cnoe-io/platform-api-gateway/internal/adapters/http/admin"
	"github.com/cnoe-io/platform-api-gateway/internal/adapters/http/api"
	"github.com/cnoe-io/platform-api-gateway/internal/app"
	"github.com/cnoe-io/platform-api-gateway/internal/config"
	"github.com/cnoe-io/platform-api-gateway/internal/domain/platform"
	"github.com/cnoe-io/platform-api-gateway/pkg/logger"
	"github.com/cnoe-io/platform-api-gateway/pkg/metrics"
)

const (
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env -> PORT)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(ctx, cfg, log)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return 1
	}

	metrics.SetBuildInfo(platform.ServiceName, platform.ServiceVersion)
	go startSystemMetricsUpdater(ctx)

	log.Info(ctx, "CNOE Platform API Gateway running on port "+portOf(svc.Addr()))

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-svc.Err():
		log.Error(ctx, "server failed", logger.Error(err))
		exitCode = 1
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return 1
	}
	return exitCode
}

// newService wires the router and the optional admin surface from cfg.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) *app.Service {
	router := api.NewServer(api.WithLogger(log.Named("http")))

	opts := []app.Option{
		app.WithLogger(log),
		app.WithAddr(cfg.Addr()),
		app.WithHandler(router.Handler()),
		app.WithTimeouts(app.Timeouts{
			Read:       cfg.ReadTimeout(),
			Write:      cfg.WriteTimeout(),
			Idle:       cfg.IdleTimeout(),
			ReadHeader: cfg.ReadHeaderTimeout(),
		}),
	}
	if cfg.MetricsAddr != "" {
		opts = append(opts, app.WithAdmin(cfg.MetricsAddr, admin.NewHandler(ctx, metrics.GetRegistry())))
	}
	return app.New(opts...)
}

func portOf(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return port
}

// startSystemMetricsUpdater samples runtime stats until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
