// Command usercache serves users over HTTP from a cache-aside store:
//
//	GET    /users/{id}            name, or 404 "user not found"
//	POST   /users/{id}?name=...   "user <name> added"
//	DELETE /users/{id}            "user deleted"
//	GET    /metrics               Prometheus metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/cacheaside/internal/config"
	"github.com/unkn0wn-root/cacheaside/promhooks"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "usercache: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	d := &deps{}
	users, err := buildStore(ctx, cfg, log, promhooks.New(reg, cfg.Cache.Namespace), d)
	if err != nil {
		_ = d.close(context.Background())
		return err
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: newServer(users, log, reg),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting usercache",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("provider", cfg.Cache.Provider),
			zap.String("authority", cfg.Authority.Kind),
			zap.Duration("ttl", cfg.Cache.TTL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = d.close(context.Background())
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	if err := d.close(shutdownCtx); err != nil {
		log.Error("release resources", zap.Error(err))
		return err
	}
	return nil
}
