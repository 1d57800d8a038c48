package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rafapcjs/climate-system/config"
	"github.com/rafapcjs/climate-system/internal/models"
)

// ErrNoReadings is returned when the table holds no rows yet.
var ErrNoReadings = errors.New("no sensor readings stored")

// PostgresDB handles database operations over a pgx connection pool
type PostgresDB struct {
	pool      *pgxpool.Pool
	tableName string
	table     string // sanitized identifier
	log       *slog.Logger
}

// NewPostgresDB opens the pool and checks connectivity
func NewPostgresDB(ctx context.Context, cfg *config.Config, log *slog.Logger) (*PostgresDB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.GetDBConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	if cfg.Database.MinConns > 0 {
		poolCfg.MinConns = cfg.Database.MinConns
	}

	log.Info("connecting to database",
		"host", poolCfg.ConnConfig.Host,
		"port", poolCfg.ConnConfig.Port,
		"dbname", poolCfg.ConnConfig.Database,
		"max_conns", poolCfg.MaxConns,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{
		pool:      pool,
		tableName: cfg.Database.TableName,
		table:     pgx.Identifier{cfg.Database.TableName}.Sanitize(),
		log:       log,
	}, nil
}

// Close releases every pooled connection
func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

// InitializeTable creates the readings table and its index if they don't exist
func (db *PostgresDB) InitializeTable(ctx context.Context) error {
	var exists bool
	err := db.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = current_schema()
			AND table_name = $1
		)
	`, db.tableName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if table exists: %w", err)
	}
	if exists {
		db.log.Info("table already exists", "table", db.tableName)
		return nil
	}

	db.log.Info("creating table", "table", db.tableName)
	_, err = db.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id                 SERIAL PRIMARY KEY,
			temperatura        DOUBLE PRECISION NOT NULL,
			humedad            DOUBLE PRECISION NOT NULL,
			humedad_suelo      DOUBLE PRECISION NOT NULL,
			calidad_aire       TEXT NOT NULL,
			estado_agua        TEXT NOT NULL,
			estado_temperatura TEXT NOT NULL,
			estado_humedad     TEXT NOT NULL,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, db.table))
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.pool.Exec(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s ON %s (created_at DESC, id DESC)`,
		pgx.Identifier{db.tableName + "_created_at_idx"}.Sanitize(), db.table,
	))
	if err != nil {
		return fmt.Errorf("failed to create created_at index: %w", err)
	}

	db.log.Info("table created", "table", db.tableName)
	return nil
}

// InsertReading stores one reading and returns the id and timestamp the database assigned
func (db *PostgresDB) InsertReading(ctx context.Context, r models.NewReading) (models.SavedRecord, error) {
	var rec models.SavedRecord
	err := db.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s
			(temperatura, humedad, humedad_suelo, calidad_aire,
			 estado_agua, estado_temperatura, estado_humedad)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, db.table),
		r.Temperatura, r.Humedad, r.HumedadSuelo, r.CalidadAire,
		r.EstadoAgua, r.EstadoTemperatura, r.EstadoHumedad,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return models.SavedRecord{}, err
	}
	return rec, nil
}

// LatestReading returns the row with the greatest created_at
func (db *PostgresDB) LatestReading(ctx context.Context) (models.SensorReading, error) {
	var r models.SensorReading
	err := db.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, temperatura, humedad, humedad_suelo, calidad_aire,
		       estado_agua, estado_temperatura, estado_humedad, created_at
		FROM   %s
		ORDER  BY created_at DESC, id DESC
		LIMIT  1
	`, db.table)).Scan(
		&r.ID, &r.Temperatura, &r.Humedad, &r.HumedadSuelo, &r.CalidadAire,
		&r.EstadoAgua, &r.EstadoTemperatura, &r.EstadoHumedad, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SensorReading{}, ErrNoReadings
	}
	if err != nil {
		return models.SensorReading{}, err
	}
	return r, nil
}
