package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"keeperbridge/internal/domain"
)

// App is the running process: configuration, logger and the wired services.
type App struct {
	*Wire
	Config Config
	Log    *zap.Logger

	out       domain.EventSink
	stopDrain context.CancelFunc
	drained   chan struct{}
}

// New builds the logger and dependency graph from cfg. Inbound messages are
// delivered to out once Start runs.
func New(cfg Config, out domain.EventSink) (*App, error) {
	log, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &App{
		Wire:   NewWire(cfg, log),
		Config: cfg,
		Log:    log,
		out:    out,
	}, nil
}

// Start delivers inbound messages to the output sink and serves metrics.
// Delivery stops at Close.
func (a *App) Start(ctx context.Context) error {
	drainCtx, stop := context.WithCancel(ctx)
	a.stopDrain = stop
	a.drained = make(chan struct{})
	go func() {
		defer close(a.drained)
		if err := a.Inbox.Drain(drainCtx, a.out); err != nil {
			a.Log.Error("output sink failed", zap.Error(err))
		}
	}()
	return a.ServeMetrics(ctx)
}

// ServeMetrics exposes /metrics on Config.Metrics.Addr until ctx ends. It
// returns immediately when no address is configured.
func (a *App) ServeMetrics(ctx context.Context) error {
	if a.Config.Metrics.Addr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", a.Config.Metrics.Addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	a.Log.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Close tears the channel down, delivers what is still buffered and flushes
// the logger.
func (a *App) Close() {
	_ = a.Channel.Close()
	if a.stopDrain != nil {
		a.stopDrain()
		<-a.drained
	}
	_ = a.Log.Sync()
}
