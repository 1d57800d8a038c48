// Package database provides the reading store backends.
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rafapcjs/climate-system/config"
	"github.com/rafapcjs/climate-system/internal/models"
)

// Store is the contract shared by every backend.
type Store interface {
	InitializeTable(ctx context.Context) error
	InsertReading(ctx context.Context, r models.NewReading) (models.SavedRecord, error)
	LatestReading(ctx context.Context) (models.SensorReading, error)
	Close() error
}

var (
	_ Store = (*PostgresDB)(nil)
	_ Store = (*SQLiteDB)(nil)
)

// Open connects to the backend selected by cfg.Database.Driver.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (Store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := NewPostgresDB(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverSQLite:
		db, err := NewSQLiteDB(cfg.Database.SQLitePath, cfg.Database.TableName, log)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
