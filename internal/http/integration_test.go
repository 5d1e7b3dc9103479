//go:build integration
// +build integration

package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/location"
	"github.com/kjstillabower/weather-dashboard/internal/service"
	testhelpers "github.com/kjstillabower/weather-dashboard/internal/testhelpers"
)

// setupIntegrationRouter wires the production router over the live provider.
func setupIntegrationRouter(t *testing.T) *mux.Router {
	cfg := testhelpers.GetIntegrationConfig(t)
	svc, weatherClient := testhelpers.SetupIntegrationService(t, cfg)
	handler := NewHandler(svc, weatherClient, &HealthConfig{StartTime: time.Now()}, zap.NewNop())
	return NewRouter(handler, zap.NewNop(), RouterConfig{RequestTimeout: 20 * time.Second})
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestIntegration_GetWeather_Live verifies a full search cycle against the provider.
func TestIntegration_GetWeather_Live(t *testing.T) {
	router := setupIntegrationRouter(t)

	w := doRequest(router, "GET", "/weather/London", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200. Body: %s", w.Code, w.Body.String())
	}
	var st service.State
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Report == nil || st.Report.Place.Name == "" {
		t.Fatalf("Report = %+v, want a resolved place", st.Report)
	}
	if len(st.Report.Forecast) == 0 {
		t.Error("Forecast should not be empty")
	}
	if st.Report.Astronomy.Sunrise == "" {
		t.Error("Astronomy.Sunrise should be populated")
	}
	if st.Hints == nil || st.Hints.Background == "" {
		t.Error("Hints should be populated")
	}
}

// TestIntegration_GetWeather_NotFound verifies provider code 1006 surfaces as 404.
func TestIntegration_GetWeather_NotFound(t *testing.T) {
	router := setupIntegrationRouter(t)

	w := doRequest(router, "GET", "/weather/qzxqzxqzxnotaplace", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404. Body: %s", w.Code, w.Body.String())
	}
}

// TestIntegration_PostLocate_Coordinates verifies a device fix is reverse-geocoded
// and fetched.
func TestIntegration_PostLocate_Coordinates(t *testing.T) {
	router := setupIntegrationRouter(t)

	w := doRequest(router, "POST", "/dashboard/locate", `{"position":{"latitude":47.6062,"longitude":-122.3321}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200. Body: %s", w.Code, w.Body.String())
	}
	var st service.State
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Permission != location.PermissionGranted {
		t.Errorf("Permission = %q, want granted", st.Permission)
	}
	if st.Source != location.SourceDevice && st.Source != location.SourceCoordinates {
		t.Errorf("Source = %q, want device or coordinates", st.Source)
	}
}

// TestIntegration_Health_InvalidKey verifies a rejected key degrades health.
func TestIntegration_Health_InvalidKey(t *testing.T) {
	cfg := testhelpers.GetIntegrationConfig(t)
	cfg.APIKey = "invalid-key-for-integration-test"
	badClient := testhelpers.SetupIntegrationClient(t, cfg)
	if err := badClient.ValidateAPIKey(t.Context()); err == nil {
		t.Fatal("ValidateAPIKey() = nil, want error for invalid key")
	}

	handler := NewHandler(service.NewDashboardService(badClient, nil, 100, nil), badClient, nil, zap.NewNop())
	router := NewRouter(handler, zap.NewNop(), RouterConfig{})
	w := doRequest(router, "GET", "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", w.Code)
	}

	w = doRequest(router, "GET", "/weather/London", "")
	var body errorBody
	_ = json.NewDecoder(w.Body).Decode(&body)
	if body.Error.Code != "AUTH_FAILED" && body.Error.Code != "PROVIDER_ERROR" {
		t.Errorf("error.code = %q, want AUTH_FAILED or PROVIDER_ERROR", body.Error.Code)
	}
}
