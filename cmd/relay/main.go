package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"keeperbridge/internal/app"
	"keeperbridge/internal/relay"
)

func main() {
	addr := pflag.String("addr", ":8080", "listen address")
	pingInterval := pflag.Duration("ping-interval", 25*time.Second, "Engine.IO ping interval")
	pingTimeout := pflag.Duration("ping-timeout", 20*time.Second, "Engine.IO ping timeout")
	level := pflag.String("log-level", "info", "log level")
	pflag.Parse()

	log, err := app.NewLogger(app.LogConfig{Level: *level, Format: "console"})
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	defer log.Sync()

	hub := relay.NewHub(relay.HubOptions{Logger: log, PingInterval: *pingInterval, PingTimeout: *pingTimeout})
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", hub)

	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info("relay listening", zap.String("addr", *addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("relay stopped", zap.Error(err))
	}
}
