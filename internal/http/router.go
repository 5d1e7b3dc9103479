package http

import (
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// RouterConfig controls route registration.
type RouterConfig struct {
	// RequestTimeout bounds routes that call the weather provider.
	RequestTimeout time.Duration
	// TestingMode exposes /test endpoints for simulating load and errors.
	TestingMode bool
}

// NewRouter registers the dashboard API on a gorilla/mux router.
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	upstream := router.NewRoute().Subrouter()
	if cfg.RequestTimeout > 0 {
		upstream.Use(TimeoutMiddleware(cfg.RequestTimeout))
	}
	upstream.HandleFunc("/dashboard", h.GetDashboard).Methods("GET")
	upstream.HandleFunc("/dashboard/locate", h.PostLocate).Methods("POST")
	upstream.HandleFunc("/weather/{location}", h.GetWeather).Methods("GET")

	if cfg.TestingMode {
		logger.Warn("Testing mode enabled; /test endpoint exposed")
		router.HandleFunc("/test", h.GetTestStatus).Methods("GET")
		router.HandleFunc("/test/{action}", h.PostTestAction).Methods("POST")
	}
	return router
}
