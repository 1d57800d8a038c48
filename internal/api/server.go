package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/rafapcjs/climate-system/config"
	"github.com/rafapcjs/climate-system/internal/metrics"
)

// NewRouter binds the routes and wraps them in the middleware chain:
// request id, access log, CORS, then per-route metrics and recover.
func NewRouter(h *Handlers, m *metrics.Metrics, cfg config.ServerConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.MethodNotAllowed)

	r.HandleFunc("/", h.Liveness).Methods(http.MethodGet)
	r.HandleFunc("/sensores/ultimo", h.LatestReading).Methods(http.MethodGet)
	r.HandleFunc("/sensores", h.CreateReading).Methods(http.MethodPost)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	r.Use(withMetrics(m), withRecover(h.Log))

	var handler http.Handler = r
	if cfg.CORSEnabled {
		handler = handlers.CORS(
			handlers.AllowedOrigins(cfg.CORSAllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", RequestIDHeader}),
			handlers.ExposedHeaders([]string{RequestIDHeader}),
		)(handler)
	}
	return withRequestID(withAccessLog(h.Log, handler))
}

// Server wraps the HTTP listener
type Server struct {
	HTTP *http.Server
	Log  *slog.Logger
}

// NewServer prepares the listener on addr
func NewServer(addr string, handler http.Handler, log *slog.Logger) *Server {
	hs := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{HTTP: hs, Log: log}
}

// Start blocks serving requests until Stop is called
func (s *Server) Start() error {
	s.Log.Info("http server listening", "addr", s.HTTP.Addr)
	if err := s.HTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests
func (s *Server) Stop(ctx context.Context) error {
	s.Log.Info("http server stopping")
	return s.HTTP.Shutdown(ctx)
}
