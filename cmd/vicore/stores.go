package vicore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/matdaan/vicore/internal/config"
	"github.com/matdaan/vicore/internal/store"
	"github.com/matdaan/vicore/internal/store/postgres"
)

// chainDifficulty reads and bounds the shared difficulty flag.
func chainDifficulty() (uint, error) {
	difficulty := viper.GetUint("difficulty")
	if difficulty == 0 || difficulty >= 256 {
		return 0, fmt.Errorf("difficulty must be between 1 and 255 leading zero bits, got %d", difficulty)
	}
	return difficulty, nil
}

func openJSONStore() (store.Store, error) {
	cfg := config.LoadJSONStoreConfigFromCLI()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid JSON store configuration: %w", err)
	}
	return store.NewJSONStore(cfg.Dir)
}

func openPostgresStore() (*postgres.PostgresStore, error) {
	cfg := config.LoadPostgresConfigFromCLI()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid PostgreSQL configuration: %w", err)
	}
	return postgres.NewPostgresStore(cfg.ConnString)
}

// handleInterrupt handles interrupt signals for graceful shutdown.
func handleInterrupt(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		slog.Info("Received interrupt signal, shutting down...")
		cancel()
	}()
}
