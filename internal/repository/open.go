package repository

import (
	"fmt"

	"github.com/guestbook-api/internal/config"
	"github.com/guestbook-api/internal/database"
	"github.com/rs/zerolog"
)

// OpenBackend builds the backend selected by STORE_DRIVER. For postgres it
// connects and applies migrations first.
func OpenBackend(cfg *config.Config, log zerolog.Logger) (Backend, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverFile:
		log.Info().Str("path", cfg.Store.FilePath).Msg("Using file record store")
		return NewFileBackend(cfg.Store.FilePath), nil
	case config.StoreDriverPebble:
		log.Info().Str("dir", cfg.Store.PebbleDir).Msg("Using pebble record store")
		return NewPebbleBackend(cfg.Store.PebbleDir)
	case config.StoreDriverPostgres:
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
		return NewPostgresBackend(db), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
