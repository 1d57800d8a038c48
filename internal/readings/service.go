// Package readings validates, records and serves sensor readings. It is the
// single ingestion path shared by the HTTP API and the MQTT subscriber.
package readings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rafapcjs/climate-system/internal/classify"
	"github.com/rafapcjs/climate-system/internal/database"
	"github.com/rafapcjs/climate-system/internal/metrics"
	"github.com/rafapcjs/climate-system/internal/models"
)

// ErrEmpty means no reading has been recorded yet.
var ErrEmpty = database.ErrNoReadings

// Store is the persistence the service needs.
type Store interface {
	InsertReading(ctx context.Context, r models.NewReading) (models.SavedRecord, error)
	LatestReading(ctx context.Context) (models.SensorReading, error)
}

// StorageError wraps a backend failure with the operation that failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("DB %s failed: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// Options tune the service.
type Options struct {
	// ClassifyServerSide overwrites caller statuses with classify results.
	ClassifyServerSide bool
}

// Service records and fetches readings.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	log     *slog.Logger
	opts    Options
}

// NewService wires a service. m may be nil.
func NewService(store Store, m *metrics.Metrics, log *slog.Logger, opts Options) *Service {
	return &Service{store: store, metrics: m, log: log, opts: opts}
}

// Record validates in and persists it. Errors are *models.ValidationError
// for bad input or *StorageError when the insert fails.
func (s *Service) Record(ctx context.Context, source string, in models.ReadingInput) (models.SavedRecord, error) {
	r, err := in.Validate()
	if err != nil {
		reason := metrics.ReasonMissing
		if errors.Is(err, models.ErrInvalidNumber) {
			reason = metrics.ReasonInvalid
		}
		s.rejected(source, reason)
		s.log.Debug("reading rejected", "source", source, "error", err)
		return models.SavedRecord{}, err
	}

	s.applyClassification(&r)

	rec, err := s.store.InsertReading(ctx, r)
	if err != nil {
		s.rejected(source, metrics.ReasonStorage)
		s.log.Error("DB insert error", "source", source, "error", err)
		return models.SavedRecord{}, &StorageError{Op: "insert", Err: err}
	}

	if s.metrics != nil {
		s.metrics.ReadingSaved(source)
	}
	s.log.Info("reading saved",
		"source", source,
		"id", rec.ID,
		"temperatura", r.Temperatura,
		"humedad", r.Humedad,
		"humedad_suelo", r.HumedadSuelo,
	)
	return rec, nil
}

// Latest returns the most recent reading, ErrEmpty when there is none,
// or a *StorageError.
func (s *Service) Latest(ctx context.Context) (models.SensorReading, error) {
	r, err := s.store.LatestReading(ctx)
	if errors.Is(err, database.ErrNoReadings) {
		return models.SensorReading{}, ErrEmpty
	}
	if err != nil {
		s.log.Error("DB query error", "error", err)
		return models.SensorReading{}, &StorageError{Op: "query", Err: err}
	}
	return r, nil
}

func (s *Service) applyClassification(r *models.NewReading) {
	temp := classify.Temperature(r.Temperatura)
	hum := classify.Humidity(r.Humedad)
	if s.opts.ClassifyServerSide {
		r.EstadoTemperatura = temp
		r.EstadoHumedad = hum
		return
	}
	if r.EstadoTemperatura != temp || r.EstadoHumedad != hum {
		s.log.Debug("caller status differs from computed status",
			"estado_temperatura", r.EstadoTemperatura, "computed_temperatura", temp,
			"estado_humedad", r.EstadoHumedad, "computed_humedad", hum,
		)
	}
}

func (s *Service) rejected(source, reason string) {
	if s.metrics != nil {
		s.metrics.ReadingRejected(source, reason)
	}
}
