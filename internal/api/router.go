package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/honeynil/conduit/internal/handler"
	"github.com/honeynil/conduit/internal/infrastructure/auth"
	"github.com/honeynil/conduit/internal/infrastructure/observability"
	pkgerrors "github.com/honeynil/conduit/pkg/errors"
)

var errRouteNotFound = &pkgerrors.AppError{
	Status:  http.StatusNotFound,
	Code:    pkgerrors.CodeNotFound,
	Message: "route not found",
}

var errMethodNotAllowed = &pkgerrors.AppError{
	Status:  http.StatusMethodNotAllowed,
	Code:    pkgerrors.CodeBadRequest,
	Message: "method not allowed",
}

func SetupRouter(h *handler.Handler, gate *auth.Gate) *mux.Router {
	r := mux.NewRouter()
	// metrics wraps recover so a recovered panic is still counted as a 500.
	r.Use(metricsMiddleware, recoverMiddleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	h.RegisterRoutes(r.PathPrefix("/api").Subrouter(), gate)

	// mux skips Use middleware for these two.
	r.NotFoundHandler = metricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteError(w, req, errRouteNotFound)
	}))
	r.MethodNotAllowedHandler = metricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteError(w, req, errMethodNotAllowed)
	}))
	return r
}

// metricsMiddleware labels by route template so that slugs and usernames do
// not explode metric cardinality. It also writes the access log.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)
		if recorder.status == 0 {
			recorder.status = http.StatusOK
		}

		elapsed := time.Since(start)
		status := strconv.Itoa(recorder.status)
		observability.HTTPRequests.WithLabelValues(r.Method, route, status).Inc()
		observability.HTTPDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", recorder.status,
			"duration", elapsed)
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic while serving request", "method", r.Method, "path", r.URL.Path, "panic", rec)
				handler.WriteError(w, r, pkgerrors.ErrInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder для захвата статуса ответа
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
