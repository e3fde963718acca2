package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/slot-watcher/internal/config"
	"github.com/donaldgifford/slot-watcher/internal/store"
	"github.com/donaldgifford/slot-watcher/pkg/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  "Applies pending schema migrations when store.backend is postgres.",
		RunE:  runMigrate,
	}
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	if cfg.Store.Backend != config.StorePostgres {
		log.Info("nothing to migrate", "store", cfg.Store.Backend)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := cfg.Store.Database
	s, err := store.NewPostgresStore(ctx, db.DSN(), store.WithPoolSize(db.PoolSize))
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer s.Close()

	log.Info("running migrations", "host", db.Host, "database", db.Name)

	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	log.Info("migrations complete")
	return nil
}
