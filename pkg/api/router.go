// Package api wires the HTTP surface: the three endpoints the scale
// firmware calls and the JSON management API over the same entities.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openaria/ariad/internal/logger"
	"github.com/openaria/ariad/pkg/api/handlers"
	"github.com/openaria/ariad/pkg/ingest"
	"github.com/openaria/ariad/pkg/store"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// Scale routes (binary, consumed by firmware):
//   - GET  /scale/validate
//   - GET  /scale/register
//   - POST /scale/upload
//
// Management routes (JSON, unauthenticated by design — the scale cannot
// authenticate and the server is meant to sit on a private network):
//   - GET    /api/health
//   - GET    /api/scales, /api/scales/{mac}
//   - GET    /api/measurements, /api/measurements/latest, /api/conflicts
//   - GET    /api/users, POST /api/users, DELETE /api/users/{id}
//   - GET    /api/raw-uploads
func NewRouter(st store.Store, pipeline *ingest.Pipeline, unit string) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	scaleHandler := handlers.NewScaleHandler(pipeline, st)

	// The firmware ignores the Host header contract; any vhost that
	// reaches this listener is served.
	r.Route("/scale", func(r chi.Router) {
		r.Get("/validate", scaleHandler.Validate)
		r.Get("/register", scaleHandler.Register)
		r.Post("/upload", scaleHandler.Upload)
	})

	healthHandler := handlers.NewHealthHandler(st)
	scalesHandler := handlers.NewScalesHandler(st)
	measurementsHandler := handlers.NewMeasurementsHandler(st, unit)
	usersHandler := handlers.NewUsersHandler(st)
	rawHandler := handlers.NewRawUploadsHandler(st)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		r.Get("/scales", scalesHandler.List)
		r.Get("/scales/{mac}", scalesHandler.Get)

		r.Get("/measurements", measurementsHandler.List)
		r.Get("/measurements/latest", measurementsHandler.Latest)
		r.Get("/conflicts", measurementsHandler.Conflicts)

		r.Get("/users", usersHandler.List)
		r.Post("/users", usersHandler.Create)
		r.Delete("/users/{id}", usersHandler.Delete)

		r.Get("/raw-uploads", rawHandler.List)
	})

	return r
}

// requestLogger logs request start at DEBUG and completion at INFO using
// the internal logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
