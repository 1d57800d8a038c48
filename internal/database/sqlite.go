package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rafapcjs/climate-system/internal/models"
)

// sqliteTimeLayout matches strftime('%Y-%m-%d %H:%M:%f'), always UTC.
const sqliteTimeLayout = "2006-01-02 15:04:05.000"

// SQLiteDB implements the reading store on a local SQLite file
type SQLiteDB struct {
	db    *sql.DB
	table string
	log   *slog.Logger
}

// NewSQLiteDB opens (and creates when missing) the database file at path
func NewSQLiteDB(path, table string, log *slog.Logger) (*SQLiteDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	log.Info("opening sqlite database", "path", path)
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteDB{
		db:    db,
		table: `"` + strings.ReplaceAll(table, `"`, `""`) + `"`,
		log:   log,
	}, nil
}

// Close closes the database handle
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// InitializeTable creates the readings table if it doesn't exist
func (s *SQLiteDB) InitializeTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		temperatura        REAL NOT NULL,
		humedad            REAL NOT NULL,
		humedad_suelo      REAL NOT NULL,
		calidad_aire       TEXT NOT NULL,
		estado_agua        TEXT NOT NULL,
		estado_temperatura TEXT NOT NULL,
		estado_humedad     TEXT NOT NULL,
		created_at         TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%d %%H:%%M:%%f', 'now'))
	);
	CREATE INDEX IF NOT EXISTS idx_created_at ON %[1]s(created_at);`, s.table))
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	s.log.Info("sqlite table ready", "table", s.table)
	return nil
}

// InsertReading stores one reading and returns the id and timestamp SQLite assigned
func (s *SQLiteDB) InsertReading(ctx context.Context, r models.NewReading) (models.SavedRecord, error) {
	var (
		rec     models.SavedRecord
		created string
	)
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		INSERT INTO %s
			(temperatura, humedad, humedad_suelo, calidad_aire,
			 estado_agua, estado_temperatura, estado_humedad)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at`, s.table),
		r.Temperatura, r.Humedad, r.HumedadSuelo, r.CalidadAire,
		r.EstadoAgua, r.EstadoTemperatura, r.EstadoHumedad,
	).Scan(&rec.ID, &created)
	if err != nil {
		return models.SavedRecord{}, err
	}
	if rec.CreatedAt, err = parseSQLiteTime(created); err != nil {
		return models.SavedRecord{}, err
	}
	return rec, nil
}

// LatestReading returns the most recent row, ties broken by id
func (s *SQLiteDB) LatestReading(ctx context.Context) (models.SensorReading, error) {
	var (
		r       models.SensorReading
		created string
	)
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, temperatura, humedad, humedad_suelo, calidad_aire,
		       estado_agua, estado_temperatura, estado_humedad, created_at
		FROM %s
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, s.table)).Scan(
		&r.ID, &r.Temperatura, &r.Humedad, &r.HumedadSuelo, &r.CalidadAire,
		&r.EstadoAgua, &r.EstadoTemperatura, &r.EstadoHumedad, &created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SensorReading{}, ErrNoReadings
	}
	if err != nil {
		return models.SensorReading{}, err
	}
	if r.CreatedAt, err = parseSQLiteTime(created); err != nil {
		return models.SensorReading{}, err
	}
	return r, nil
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(sqliteTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse created_at %q: %w", s, err)
	}
	return t, nil
}
