package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mona-backend/internal/log"
)

// NewRouter builds the HTTP API
func NewRouter(h *Handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Post("/predict", h.Predict)
		r.Get("/thresholds", h.Thresholds)

		r.Get("/stations", h.Stations)
		r.Get("/stations/{deviceID}/latest", h.LatestPrediction)
		r.Get("/stations/{deviceID}/predictions", h.RecentPredictions)
	})

	return r
}

// loggingMiddleware logs every request with its status and duration
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// Health checks are polled constantly
		if r.URL.Path == "/api/health" {
			log.Debugw("API: Request", "method", r.Method, "path", r.URL.Path, "status", ww.Status())
			return
		}
		log.Infow("API: Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
			"remote", r.RemoteAddr)
	})
}
