package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/rafapcjs/climate-system/internal/metrics"
	"github.com/rafapcjs/climate-system/internal/models"
	"github.com/rafapcjs/climate-system/internal/readings"
)

// maxBodyBytes caps the POST body, matching the usual JSON body-parser limit.
const maxBodyBytes = 100 << 10

// ReadingService is what the handlers need from the readings package.
type ReadingService interface {
	Record(ctx context.Context, source string, in models.ReadingInput) (models.SavedRecord, error)
	Latest(ctx context.Context) (models.SensorReading, error)
}

// Handlers serves the sensor endpoints.
type Handlers struct {
	Log     *slog.Logger
	Service ReadingService
}

// Liveness answers GET / without touching storage.
func (h *Handlers) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, h.Log, http.StatusOK, statusOK, msgRunning)
}

// CreateReading answers POST /sensores.
func (h *Handlers) CreateReading(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, h.Log, http.StatusRequestEntityTooLarge, statusError, msgBodyTooLarge)
			return
		}
		writeMessage(w, h.Log, http.StatusBadRequest, statusError, msgInvalidJSON)
		return
	}

	in, err := models.DecodeReadingInput(body)
	if err != nil {
		h.Log.Debug("malformed reading body", "error", err)
		writeMessage(w, h.Log, http.StatusBadRequest, statusError, msgInvalidJSON)
		return
	}

	rec, err := h.Service.Record(r.Context(), metrics.SourceHTTP, in)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			writeMessage(w, h.Log, http.StatusBadRequest, statusError, verr.Error())
			return
		}
		writeMessage(w, h.Log, http.StatusInternalServerError, statusError, err.Error())
		return
	}

	writeJSON(w, h.Log, http.StatusOK, savedResponse{Status: statusOK, Saved: true, Record: rec})
}

// LatestReading answers GET /sensores/ultimo.
func (h *Handlers) LatestReading(w http.ResponseWriter, r *http.Request) {
	reading, err := h.Service.Latest(r.Context())
	if errors.Is(err, readings.ErrEmpty) {
		writeMessage(w, h.Log, http.StatusNotFound, statusEmpty, msgNoRecords)
		return
	}
	if err != nil {
		writeMessage(w, h.Log, http.StatusInternalServerError, statusError, err.Error())
		return
	}
	writeJSON(w, h.Log, http.StatusOK, latestResponse{Status: statusOK, Data: reading.View()})
}

// NotFound answers unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, h.Log, http.StatusNotFound, statusError, msgNotFound)
}

// MethodNotAllowed answers known routes hit with the wrong method.
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, h.Log, http.StatusMethodNotAllowed, statusError, msgNotAllowed)
}
