package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"MarketCal/internal/pattern"
	"MarketCal/internal/service/metrics"
	"MarketCal/internal/usecase"
	"MarketCal/pkg/cache"
	"MarketCal/pkg/config"
	xhttp "MarketCal/pkg/http"
	applogger "MarketCal/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	live       *usecase.LiveSession
	runner     *pattern.Runner
	cache      cache.Service
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	live *usecase.LiveSession,
	runner *pattern.Runner,
	c cache.Service,
) *App {
	return &App{
		cfg:     cfg,
		log:     log,
		handler: handler,
		live:    live,
		runner:  runner,
		cache:   c,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.Register()

	if a.runner.Background() {
		a.runner.Start()
		a.log.Info("pattern worker started")
	}

	if err := a.live.Start(ctx); err != nil {
		a.log.Error("live session start error", applogger.Error(err))
		return err
	}
	a.log.Info("live session started",
		applogger.String("symbol", a.live.Symbol()),
		applogger.Strings("symbols", a.cfg.Binance.Symbols))

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.live.Close(); err != nil {
		a.log.Warn("live session close error", applogger.Error(err))
	}

	if a.runner.Background() {
		a.runner.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if closer, ok := a.cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
