// Package cli provides the process bootstrap shared by the spendwise
// commands: env files, configuration, logging, and the wired application.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendwise/internal/auth"
	"spendwise/internal/config"
	"spendwise/internal/live"
	"spendwise/internal/log"
	"spendwise/internal/repository"
	"spendwise/internal/services"
	"spendwise/internal/session"
	"spendwise/internal/storage"
	"spendwise/internal/worker"
)

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config, out io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads .env files for local use. A missing file is not an
// error; a malformed one is.
func LoadEnvFile(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadAndValidateConfig loads configuration, lets override adjust it and
// validates the result.
func LoadAndValidateConfig(override func(*config.Config)) (*config.Config, error) {
	cfg := config.Load()
	if override != nil {
		override(cfg)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenStore opens the record store named by cfg.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*storage.Store, error) {
	path := cfg.DBPath
	if path == config.MemoryDBPath {
		path = storage.MemoryPath
	}
	store, err := storage.Open(ctx, path, storage.WithBusyTimeout(cfg.BusyTimeout))
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, log.FieldDBPath, cfg.DBPath)
		return nil, err
	}
	logger.Debug("Database ready", log.FieldDBPath, cfg.DBPath)
	return store, nil
}

// App is the wired application: one store, one hub, one worker pool and
// the repositories and services built on them.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Store    *storage.Store
	Hub      *live.Hub
	Pool     *worker.Pool
	Repos    *repository.Repositories
	Auth     *services.AuthService
	Summary  *services.SummaryService
	Sessions *session.Store
}

func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool(worker.Config{Workers: cfg.Workers, QueueSize: cfg.WorkerQueue}, logger)
	if err := pool.Start(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("start worker pool: %w", err)
	}

	hub := live.NewHub(logger)
	repos := repository.New(store, hub, auth.NewHasher(cfg.BcryptCost), logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Hub:      hub,
		Pool:     pool,
		Repos:    repos,
		Auth:     services.NewAuthService(repos.Users, logger),
		Summary:  services.NewSummaryService(repos.Expenses, repos.Categories, repos.Goals, logger),
		Sessions: session.NewStore(cfg.SessionFile, cfg.SessionKeyFile, logger),
	}, nil
}

// Close drains the worker pool, stops live loads and closes the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Pool.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop worker pool: %w", err))
	}
	a.Hub.Close()
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}

// GracefulShutdown returns a context cancelled on SIGINT/SIGTERM or when
// parent ends. cleanup then runs with timeout; done is closed after it.
func GracefulShutdown(parent context.Context, logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Debug("Shutdown complete")
		}
	}()

	return ctx, done
}
