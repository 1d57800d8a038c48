package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/rafapcjs/climate-system/internal/metrics"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// RequestID returns the correlation id stored on ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// withRequestID keeps an inbound X-Request-ID or assigns a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// withRecover turns a handler panic into a single JSON 500 response.
func withRecover(log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic serving request",
						"path", r.URL.Path,
						"request_id", RequestID(r.Context()),
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					writeMessage(w, log, http.StatusInternalServerError, statusError, msgInternalError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// withMetrics records status and latency per route template.
func withMetrics(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			res := httpsnoop.CaptureMetrics(next, w, r)
			m.ObserveHTTP(route, r.Method, res.Code, res.Duration)
		})
	}
}

// withAccessLog writes one slog line per request through gorilla's logging handler.
func withAccessLog(log *slog.Logger, next http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, p handlers.LogFormatterParams) {
		log.Info("http request",
			"method", p.Request.Method,
			"path", p.URL.Path,
			"status", p.StatusCode,
			"bytes", p.Size,
			"remote", p.Request.RemoteAddr,
			"request_id", p.Request.Header.Get(RequestIDHeader),
		)
	})
}
