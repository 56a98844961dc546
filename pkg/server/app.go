package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"Indicadores/internal/service/ratelimit"
	"Indicadores/internal/usecase"
	"Indicadores/pkg/config"
	xhttp "Indicadores/pkg/http"
	applogger "Indicadores/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	registry   *usecase.SessionRegistry
	limiter    *ratelimit.Limiter

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	httpServer *xhttp.Server,
	registry *usecase.SessionRegistry,
	limiter *ratelimit.Limiter,
) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		registry:   registry,
		limiter:    limiter,
		stop:       make(chan struct{}),
	}
}

// Start launches the session sweeper, the limiter pruner and the HTTP server.
func (a *App) Start() error {
	a.registry.Start()
	a.logger.Info("session sweeper started",
		applogger.Duration("ttl_ms", a.cfg.Dashboard.SessionTTL),
		applogger.Duration("every_ms", a.cfg.Dashboard.SweepEvery),
	)

	if a.limiter != nil {
		a.wg.Add(1)
		go a.pruneLimiter(a.cfg.Dashboard.SweepEvery)
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	return nil
}

// pruneLimiter forgets idle clients. A bucket idle for a full sweep has refilled anyway.
func (a *App) pruneLimiter(every time.Duration) {
	defer a.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := a.limiter.Prune(every); n > 0 {
				a.logger.Debug("rate limiter pruned", applogger.Int("keys", n))
			}
		case <-a.stop:
			return
		}
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Shutdown gracefully stops all services.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	// Stop accepting requests first so no session is created after the sweeper exits.
	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	a.registry.Stop()
	close(a.stop)
	a.wg.Wait()

	a.logger.Info("shutdown complete")
	return nil
}
