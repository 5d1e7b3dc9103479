package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/weather-dashboard/internal/location"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/service"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

// maxLocateBody bounds POST /dashboard/locate request bodies.
const maxLocateBody = 4 << 10

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	StartTime        time.Time
}

// Dashboard is the service surface the handlers drive. *service.DashboardService satisfies it.
type Dashboard interface {
	State() service.State
	Search(ctx context.Context, loc string) (service.State, error)
	Locate(ctx context.Context, device location.DeviceLocator) (service.State, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	dashboard        Dashboard
	client           client.WeatherClient
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(dashboard Dashboard, client client.WeatherClient, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		dashboard:    dashboard,
		client:       client,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetDashboard handles GET /dashboard.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.State())
}

// GetWeather handles GET /weather/{location}. It runs a search cycle and returns
// the resulting dashboard state.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	st, err := h.dashboard.Search(r.Context(), mux.Vars(r)["location"])
	if err != nil {
		if msg := service.UserMessage(err); msg != "" {
			writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", msg)
			return
		}
		traffic.RecordError()
		writeServiceError(w, r, err)
		return
	}
	traffic.RecordSuccess()
	writeJSON(w, http.StatusOK, st)
}

// locateRequest is the POST /dashboard/locate body. Timestamp is milliseconds since
// the Unix epoch, as reported by the browser Geolocation API.
type locateRequest struct {
	Position *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Timestamp int64    `json:"timestamp"`
	} `json:"position"`
	PositionError string `json:"positionError"`
}

// PostLocate handles POST /dashboard/locate. An empty body means the client has no
// geolocation support. The caller's address is passed on for the IP fallback.
func (h *Handler) PostLocate(w http.ResponseWriter, r *http.Request) {
	var body locateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxLocateBody)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "INVALID_POSITION", "request body must be JSON")
		return
	}
	device, err := deviceFromRequest(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_POSITION", err.Error())
		return
	}

	ctx := location.WithCallerIP(r.Context(), clientIP(r))
	st, err := h.dashboard.Locate(ctx, device)
	if err != nil {
		traffic.RecordError()
		writeServiceError(w, r, err)
		return
	}
	traffic.RecordSuccess()
	writeJSON(w, http.StatusOK, st)
}

func deviceFromRequest(body locateRequest) (location.DeviceLocator, error) {
	if perr := location.ParsePositionError(body.PositionError); perr != nil {
		return location.ReportedPosition{Err: perr}, nil
	}
	p := body.Position
	if p == nil {
		return location.NoDevice{}, nil
	}
	if p.Latitude == nil || p.Longitude == nil {
		return nil, errors.New("position requires latitude and longitude")
	}
	if *p.Latitude < -90 || *p.Latitude > 90 || *p.Longitude < -180 || *p.Longitude > 180 {
		return nil, errors.New("position is out of range")
	}
	pos := &location.Position{
		Coordinates: models.Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude},
	}
	if p.Timestamp > 0 {
		pos.Timestamp = time.UnixMilli(p.Timestamp)
	}
	return location.ReportedPosition{Position: pos}, nil
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"weatherApi": "healthy"}
	if result.status == "degraded" {
		checks["weatherApi"] = "unhealthy"
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "weather-dashboard",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.healthConfig != nil && !h.healthConfig.StartTime.IsZero() {
		resp["uptime"] = time.Since(h.healthConfig.StartTime).Round(time.Second).String()
	}
	if since, ok := lifecycle.ShuttingDownSince(); ok {
		resp["drainingSince"] = since.UTC().Format(time.RFC3339)
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates, in order: shutting-down > API key invalid >
// error rate breach > healthy.
func (h *Handler) computeHealthStatus(ctx context.Context) healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if err := h.client.ValidateAPIKey(ctx); err != nil {
		return healthResult{"degraded", http.StatusServiceUnavailable, "api_key_invalid"}
	}
	if h.healthConfig != nil && h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		errs, total := traffic.ErrorRate(h.healthConfig.DegradedWindow)
		if total > 0 && float64(errs)*100/float64(total) >= float64(h.healthConfig.DegradedErrorPct) {
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error":{"code","message","requestId"}} with the request's
// correlation ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID, _ := r.Context().Value(observability.CorrelationIDKey).(string)
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// errorMapping pairs a taxonomy sentinel with its HTTP status and stable code.
// Order matters: ErrLocationNotFound also matches ErrProvider.
var errorMapping = []struct {
	target  error
	status  int
	code    string
	message string
}{
	{client.ErrLocationNotFound, http.StatusNotFound, "LOCATION_NOT_FOUND", service.MsgLocationNotFound},
	{client.ErrAuth, http.StatusBadGateway, "AUTH_FAILED", "Weather provider rejected the API key"},
	{client.ErrRateLimited, http.StatusServiceUnavailable, "RATE_LIMITED", "Weather provider quota exceeded"},
	{client.ErrServiceUnavailable, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Weather provider is unavailable"},
	{client.ErrRequestTimeout, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "Weather provider timed out"},
	{client.ErrTransport, http.StatusBadGateway, "UPSTREAM_UNREACHABLE", "Weather provider is unreachable"},
	{client.ErrProvider, http.StatusBadGateway, "PROVIDER_ERROR", "Weather provider returned an error"},
	{validation.ErrLocationEmpty, http.StatusBadRequest, "INVALID_LOCATION", service.MsgEmptyLocation},
	{validation.ErrLocationTooLong, http.StatusBadRequest, "INVALID_LOCATION", service.MsgLocationTooLong},
}

// statusForError maps err to an HTTP status, a stable error code and a message.
// Unclassified errors map to 503 UPSTREAM_UNAVAILABLE.
func statusForError(err error) (int, string, string) {
	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			return m.status, m.code, m.message
		}
	}
	return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Unable to fetch weather data"
}

// writeServiceError writes the taxonomy error response for err and logs the
// underlying cause at DEBUG through the request logger.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := statusForError(err)
	writeError(w, r, status, code, message)
	observability.LoggerFromContext(r.Context(), nil).Debug("upstream error",
		zap.String("code", code),
		zap.String("category", string(client.CategorizeError(err))),
		zap.Error(err))
}

// GetTestStatus handles GET /test. Returns current simulated state.
func (h *Handler) GetTestStatus(w http.ResponseWriter, r *http.Request) {
	window := h.degradedWindow()
	errs, total := traffic.ErrorRate(window)
	cfg := make(map[string]interface{})
	if h.healthConfig != nil {
		cfg["degraded_error_pct"] = h.healthConfig.DegradedErrorPct
		cfg["degraded_window_seconds"] = window.Seconds()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_requests_in_window": traffic.RequestCount(window),
		"errors_in_window":         errs,
		"outcomes_in_window":       total,
		"window_length":            window.String(),
		"in_flight":                InFlightCount(),
		"config":                   cfg,
	})
}

// PostTestAction handles POST /test/{action} for load, error, reset and shutdown.
func (h *Handler) PostTestAction(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	switch action {
	case "load":
		n := testCount(r, 10)
		traffic.RecordSuccessN(n)
		h.writeTestResult(w, r, action, "Recorded "+strconv.Itoa(n)+" successes")
	case "error":
		n := testCount(r, 1)
		traffic.RecordErrorN(n)
		h.writeTestResult(w, r, action, "Recorded "+strconv.Itoa(n)+" errors")
	case "reset":
		traffic.Reset()
		lifecycle.SetShuttingDown(false)
		h.writeTestResult(w, r, action, "All simulated state cleared")
	case "shutdown":
		lifecycle.SetShuttingDown(true)
		h.writeTestResult(w, r, action, "Shutting-down flag set")
	default:
		writeError(w, r, http.StatusNotFound, "UNKNOWN_ACTION", "unknown test action: "+action)
	}
}

func (h *Handler) writeTestResult(w http.ResponseWriter, r *http.Request, action, message string) {
	errs, total := traffic.ErrorRate(h.degradedWindow())
	pct := 0
	if total > 0 {
		pct = errs * 100 / total
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":             true,
		"action":         action,
		"message":        message,
		"state":          h.computeHealthStatus(r.Context()).status,
		"error_rate_pct": pct,
	})
}

func (h *Handler) degradedWindow() time.Duration {
	if h.healthConfig != nil && h.healthConfig.DegradedWindow > 0 {
		return h.healthConfig.DegradedWindow
	}
	return 60 * time.Second
}

// testCount reads {"count":N} from the body, returning def when absent or invalid.
func testCount(r *http.Request, def int) int {
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Count <= 0 {
		return def
	}
	return body.Count
}
