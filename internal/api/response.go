package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rafapcjs/climate-system/internal/models"
)

// Values of the top-level "status" discriminator.
const (
	statusOK    = "ok"
	statusEmpty = "empty"
	statusError = "error"
)

// Fixed response messages.
const (
	msgRunning       = "Servidor funcionando"
	msgNoRecords     = "Sin registros aún"
	msgInvalidJSON   = "JSON inválido"
	msgBodyTooLarge  = "Cuerpo de la petición demasiado grande"
	msgNotFound      = "Ruta no encontrada"
	msgNotAllowed    = "Método no permitido"
	msgInternalError = "Error interno del servidor"
)

type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type savedResponse struct {
	Status string             `json:"status"`
	Saved  bool               `json:"saved"`
	Record models.SavedRecord `json:"record"`
}

type latestResponse struct {
	Status string            `json:"status"`
	Data   models.LatestView `json:"data"`
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to write response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, log *slog.Logger, code int, status, msg string) {
	writeJSON(w, log, code, messageResponse{Status: status, Message: msg})
}
