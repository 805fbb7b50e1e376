package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ecomkit/pkg/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply every pending migration from MIGRATIONS_PATH (default file://migrations).

DIRECT_URL is used when set, so migrations bypass a transaction pooler.
The runtime connection (DATABASE_URL) is opened afterwards as a sanity check.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	path := cfg.MigrationsPath
	if path == "" {
		path = "file://migrations"
	}

	version, err := db.MigrateConfig(path, cfg)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// DSNs are never printed; they carry credentials.
	pool, err := db.Open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("runtime db open: %w", err)
	}
	pool.Close()

	log.Info("migrations applied", zap.Uint("version", version))
	return nil
}
