package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"giatla/backend/internal/config"
	"giatla/backend/internal/httpapi"
	"giatla/backend/internal/logger"
	"giatla/backend/internal/metrics"
	"giatla/backend/internal/persist"
	"giatla/backend/internal/persist/memkv"
	"giatla/backend/internal/persist/postgres"
	"giatla/backend/internal/persist/rediskv"
	"giatla/backend/internal/persist/s3kv"
	"giatla/backend/internal/persist/sqlite"
	"giatla/backend/internal/seed"
	"giatla/backend/internal/service"
	"giatla/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get("app").WithError(err).Fatal("load config")
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	log := logger.Get("app")

	if err := validateSecurityConfig(cfg); err != nil {
		log.WithError(err).Fatal("invalid security configuration")
	}
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}

func run(cfg config.Config, log *logrus.Entry) error {
	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := openKV(startCtx, cfg)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.PersistDriver, err)
	}
	adapter := persist.NewAdapter(kv, nil)
	defer func() {
		if err := adapter.Close(); err != nil {
			log.WithError(err).Warn("close storage")
		}
	}()
	log.WithField("driver", cfg.PersistDriver).Info("storage ready")

	m := metrics.New()
	st := store.New(store.NewClock())
	st.Load(startCtx, adapter)
	flusher := store.NewFlusher(st, adapter, cfg.FlushDebounce(), m)

	if cfg.SeedOnStart {
		fixture, err := seed.Default()
		if err != nil {
			return fmt.Errorf("parse seed fixture: %w", err)
		}
		applied, err := seed.Apply(startCtx, st, adapter, fixture)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if applied {
			flusher.FlushAll(startCtx)
		}
	}

	svc := service.New(st, service.Options{NotificationLimit: cfg.NotificationLimit, Metrics: m})
	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), svc)
	api := httpapi.New(svc, auth, m, cfg.AllowedOrigin).TrustProxyHeaders(cfg.TrustedProxy)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	flushCtx, stopFlush := context.WithCancel(context.Background())
	flushDone := make(chan struct{})
	go func() {
		defer close(flushDone)
		flusher.Run(flushCtx, 0)
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Address()).Info("laundromat backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case <-sig:
	case err, ok := <-serveErr:
		if ok {
			runErr = err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}

	stopFlush()
	<-flushDone
	n := flusher.FlushAll(shutdownCtx)
	log.WithField("collections", n).Info("final flush done, server stopped")
	return runErr
}

// openKV builds the key-value backend named by PERSIST_DRIVER.
func openKV(ctx context.Context, cfg config.Config) (persist.KV, error) {
	switch cfg.PersistDriver {
	case "memory":
		return memkv.New(), nil
	case "sqlite", "":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return sqlite.New(ctx, cfg.SQLitePath)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required")
		}
		return postgres.New(ctx, cfg.DatabaseURL)
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, errors.New("REDIS_ADDR is required")
		}
		kv := rediskv.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := kv.Ping(ctx); err != nil {
			_ = kv.Close()
			return nil, err
		}
		return kv, nil
	case "s3":
		return s3kv.New(ctx, s3kv.Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			PathStyle:       cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown PERSIST_DRIVER %q", cfg.PersistDriver)
	}
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
