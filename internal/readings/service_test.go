package readings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rafapcjs/climate-system/internal/database"
	"github.com/rafapcjs/climate-system/internal/metrics"
	"github.com/rafapcjs/climate-system/internal/models"
)

type stubStore struct {
	inserted  []models.NewReading
	latest    models.SensorReading
	insertErr error
	latestErr error
}

func (s *stubStore) InsertReading(_ context.Context, r models.NewReading) (models.SavedRecord, error) {
	if s.insertErr != nil {
		return models.SavedRecord{}, s.insertErr
	}
	s.inserted = append(s.inserted, r)
	return models.SavedRecord{ID: int64(len(s.inserted)), CreatedAt: time.Now().UTC()}, nil
}

func (s *stubStore) LatestReading(context.Context) (models.SensorReading, error) {
	return s.latest, s.latestErr
}

func newTestService(store Store, opts Options) *Service {
	return NewService(store, metrics.New(), slog.New(slog.NewTextHandler(io.Discard, nil)), opts)
}

func mustInput(t *testing.T, payload string) models.ReadingInput {
	t.Helper()
	in, err := models.DecodeReadingInput([]byte(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return in
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rr.Body.String()
}

const hotPayload = `{"temperatura_C":"35.5","estado_temperatura":"Normal","humedad_relativa_pct":20,
	"estado_humedad":"Normal","calidad_aire":"Moderada","agua":"No hay agua","humedad_suelo_pct":10}`

func TestRecordTrustsCallerStatusByDefault(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store, Options{})

	rec, err := svc.Record(context.Background(), metrics.SourceHTTP, mustInput(t, hotPayload))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.ID != 1 || rec.CreatedAt.IsZero() {
		t.Fatalf("unexpected record %+v", rec)
	}
	got := store.inserted[0]
	if got.Temperatura != 35.5 || got.EstadoTemperatura != "Normal" || got.EstadoHumedad != "Normal" {
		t.Fatalf("caller statuses must be stored verbatim, got %+v", got)
	}
}

func TestRecordClassifiesServerSideWhenEnabled(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store, Options{ClassifyServerSide: true})

	if _, err := svc.Record(context.Background(), metrics.SourceHTTP, mustInput(t, hotPayload)); err != nil {
		t.Fatalf("record: %v", err)
	}
	got := store.inserted[0]
	if got.EstadoTemperatura != "Alta" || got.EstadoHumedad != "Baja" {
		t.Fatalf("expected computed statuses, got %+v", got)
	}
}

func TestRecordValidationErrorSkipsStore(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store, Options{})

	_, err := svc.Record(context.Background(), metrics.SourceMQTT, mustInput(t, `{"temperatura_C":"abc"}`))
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Kind != models.ErrMissingFields {
		t.Fatalf("expected missing fields, got %v", err)
	}
	if len(store.inserted) != 0 {
		t.Fatal("store must not be called on invalid input")
	}
	body := scrape(t, svc.metrics)
	want := `sensores_readings_rejected_total{reason="missing",source="mqtt"} 1`
	if !strings.Contains(body, want) {
		t.Fatalf("metrics missing %q", want)
	}
}

func TestRecordStorageFailure(t *testing.T) {
	store := &stubStore{insertErr: errors.New("connection refused")}
	svc := newTestService(store, Options{})

	_, err := svc.Record(context.Background(), metrics.SourceHTTP, mustInput(t, hotPayload))
	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if err.Error() != "DB insert failed: connection refused" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestLatest(t *testing.T) {
	want := models.SensorReading{ID: 4, Temperatura: 22}
	svc := newTestService(&stubStore{latest: want}, Options{})
	got, err := svc.Latest(context.Background())
	if err != nil || got != want {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func TestLatestEmpty(t *testing.T) {
	svc := newTestService(&stubStore{latestErr: database.ErrNoReadings}, Options{})
	if _, err := svc.Latest(context.Background()); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestLatestStorageFailure(t *testing.T) {
	svc := newTestService(&stubStore{latestErr: errors.New("timeout")}, Options{})
	_, err := svc.Latest(context.Background())
	if err == nil || err.Error() != "DB query failed: timeout" {
		t.Fatalf("unexpected error %v", err)
	}
}
