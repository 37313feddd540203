package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"ChiliPulse/pkg/cache"
	"ChiliPulse/pkg/config"
	xhttp "ChiliPulse/pkg/http"
	pkgkafka "ChiliPulse/pkg/kafka"
	applogger "ChiliPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	store      cache.Service
	producer   *pkgkafka.Producer
}

// New creates a new App instance with all dependencies. producer may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	store cache.Service,
	producer *pkgkafka.Producer,
) *App {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	srv := xhttp.NewServer(handler, l,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(metricsPath, cfg.Metrics.SlowThreshold),
	)
	return &App{
		cfg:        cfg,
		l:          l,
		httpServer: srv,
		store:      store,
		producer:   producer,
	}
}

// Echo exposes the router, mainly for tests.
func (a *App) Echo() *echo.Echo { return a.httpServer.Echo() }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("chilipulse started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("upstream", a.cfg.Upstream.BaseURL),
		applogger.String("sessions", a.cfg.Sessions.Backend),
		applogger.Bool("events", a.producer != nil),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Shutdown stops the HTTP server and closes infrastructure clients.
func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	// flush pending error logs while the producer is still open
	a.l.RemoveCollector()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.l.Warn("kafka producer close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.l.Warn("session store close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}
