package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"AssetHist/internal/scheduler"
	"AssetHist/pkg/config"
	xhttp "AssetHist/pkg/http"
	applogger "AssetHist/pkg/logger"
)

// App ties the HTTP server and the background scheduler to one
// lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	sched      *scheduler.Scheduler
	closers    []func() error
	httpServer *xhttp.Server
}

// New creates an App. sched may be nil when the scheduler is disabled.
func New(cfg *config.Config, log *applogger.Logger, handler xhttp.Handler, sched *scheduler.Scheduler) *App {
	return &App{cfg: cfg, log: log, handler: handler, sched: sched}
}

// AddCloser registers a resource to close on shutdown, after the HTTP
// server has stopped.
func (a *App) AddCloser(close func() error) { a.closers = append(a.closers, close) }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.sched != nil {
		a.sched.Start()
		a.log.Info("scheduler started",
			applogger.Strings("assets", a.cfg.Scheduler.Sources),
			applogger.Int("concurrency", a.cfg.Scheduler.Concurrency),
		)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server listening", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops the scheduler, drains the HTTP server and closes the
// registered resources.
func (a *App) shutdown() error {
	if a.sched != nil {
		a.sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	for _, close := range a.closers {
		if err := close(); err != nil {
			a.log.Warn("resource close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
