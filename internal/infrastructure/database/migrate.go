package database

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

// RunMigrations applies pending goose migrations against the master.
func RunMigrations(database *dbpg.DB, path string) error {
	if database == nil || database.Master == nil {
		return fmt.Errorf("no master connection for migrations")
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(database.Master, path); err != nil {
		return fmt.Errorf("apply migrations from %s: %w", path, err)
	}

	zlog.Logger.Info().Str("path", path).Msg("Database migrations applied")
	return nil
}
