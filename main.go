package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gosplit/adapters/filestore"
	"gosplit/adapters/memstore"
	"gosplit/adapters/postgres"
	"gosplit/api"
	"gosplit/app"
	"gosplit/internal"
	"gosplit/internal/config"
	"gosplit/ports"
)

func main() {
	// .env is optional, environment variables win
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()

	if err := run(logger); err != nil {
		logger.Error("fatal: %v", err)
		os.Exit(1)
	}
}

func run(logger *internal.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}

	core, err := app.New(ctx, store)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.NewServer(core).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on :%s (store driver %s)", cfg.Server.Port, cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildStore selects the snapshot store adapter from configuration
func buildStore(ctx context.Context, cfg *config.Config) (ports.SnapshotStore, error) {
	switch cfg.Store.Driver {
	case "memory":
		return memstore.New(), nil
	case "file":
		return filestore.New(cfg.Store.FilePath)
	case "postgres":
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		store := postgres.New(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
