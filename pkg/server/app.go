package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	pkgcache "MarketPull/pkg/cache"
	pkgch "MarketPull/pkg/clickhouse"
	"MarketPull/pkg/config"
	xhttp "MarketPull/pkg/http"
	xlogger "MarketPull/pkg/logger"
)

// App encapsulates the application lifecycle: HTTP server plus the
// infrastructure clients that need closing on shutdown.
type App struct {
	cfg        *config.Config
	handler    xhttp.Handler
	logger     *xlogger.Logger
	cache      pkgcache.Service
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates an App. chClient may be nil when history archiving is off.
func New(
	cfg *config.Config,
	handler xhttp.Handler,
	logger *xlogger.Logger,
	cache pkgcache.Service,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:      cfg,
		handler:  handler,
		logger:   logger,
		cache:    cache,
		chClient: chClient,
	}
}

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.logger.Info("serving market prices",
		xlogger.Int("port", a.cfg.Server.Port),
		xlogger.String("env", a.cfg.Environment))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", xlogger.Error(err))
	}

	if closer, ok := a.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("cache close error", xlogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", xlogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
