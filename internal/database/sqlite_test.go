package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/rafapcjs/climate-system/config"
	"github.com/rafapcjs/climate-system/internal/models"
)

func newTestSQLite(t *testing.T) *SQLiteDB {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "sensores.db"), "sensor_readings", log)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitializeTable(context.Background()); err != nil {
		t.Fatalf("init table: %v", err)
	}
	return db
}

func sampleReading(temp float64) models.NewReading {
	return models.NewReading{
		Temperatura:       temp,
		Humedad:           55,
		HumedadSuelo:      30,
		CalidadAire:       "Buena",
		EstadoAgua:        "Hay agua",
		EstadoTemperatura: "Normal",
		EstadoHumedad:     "Normal",
	}
}

func TestSQLiteLatestOnEmptyTable(t *testing.T) {
	db := newTestSQLite(t)
	_, err := db.LatestReading(context.Background())
	if !errors.Is(err, ErrNoReadings) {
		t.Fatalf("expected ErrNoReadings, got %v", err)
	}
}

func TestSQLiteInsertAndLatest(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()
	before := time.Now().UTC().Add(-time.Second)

	first, err := db.InsertReading(ctx, sampleReading(21))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID == 0 || first.CreatedAt.Before(before) {
		t.Fatalf("unexpected record %+v", first)
	}

	second, err := db.InsertReading(ctx, sampleReading(26.5))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("ids must increase: %d then %d", first.ID, second.ID)
	}

	latest, err := db.LatestReading(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != second.ID || latest.Temperatura != 26.5 {
		t.Fatalf("expected second reading, got %+v", latest)
	}
	if !latest.CreatedAt.Equal(second.CreatedAt) {
		t.Fatalf("created_at mismatch %v vs %v", latest.CreatedAt, second.CreatedAt)
	}
	if latest.CalidadAire != "Buena" || latest.EstadoAgua != "Hay agua" {
		t.Fatalf("text columns not round-tripped: %+v", latest)
	}
}

func TestSQLiteReopenKeepsRows(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "nested", "sensores.db")
	ctx := context.Background()

	db, err := NewSQLiteDB(path, "sensor_readings", log)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.InitializeTable(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertReading(ctx, sampleReading(19)); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = NewSQLiteDB(path, "sensor_readings", log)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := db.InitializeTable(ctx); err != nil {
		t.Fatalf("second init must be idempotent: %v", err)
	}
	latest, err := db.LatestReading(ctx)
	if err != nil || latest.Temperatura != 19 {
		t.Fatalf("expected persisted row, got %+v, %v", latest, err)
	}
}

func TestOpenSelectsSQLite(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "open.db")

	store, err := Open(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*SQLiteDB); !ok {
		t.Fatalf("expected *SQLiteDB, got %T", store)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Database.Driver = "mysql"
	store, err := Open(context.Background(), cfg, slog.Default())
	if err == nil || store != nil {
		t.Fatalf("expected error and nil store, got %v, %v", store, err)
	}
}
