//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/iplocate"
	"github.com/kjstillabower/weather-dashboard/internal/location"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/service"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	APIKey           string
	APIURL           string
	IPGeolocationURL string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test if WEATHER_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	apiKey := os.Getenv("WEATHER_API_KEY")
	if apiKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}
	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		apiURL = "https://api.weatherapi.com/v1"
	}
	ipURL := os.Getenv("IP_GEOLOCATION_URL")
	if ipURL == "" {
		ipURL = "https://ipapi.co"
	}
	return IntegrationTestConfig{APIKey: apiKey, APIURL: apiURL, IPGeolocationURL: ipURL}
}

// SetupIntegrationClient creates a live weather client.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig) *client.WeatherAPIClient {
	t.Helper()
	c, err := client.NewWeatherAPIClient(cfg.APIKey, cfg.APIURL, 10*time.Second)
	if err != nil {
		t.Fatalf("NewWeatherAPIClient() error = %v", err)
	}
	return c
}

// SetupIntegrationService wires a dashboard service over the live provider and IP
// geolocation endpoint. It returns the client too, for health checks.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) (*service.DashboardService, *client.WeatherAPIClient) {
	t.Helper()
	logger, err := observability.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	t.Cleanup(func() { _ = logger.Sync() })

	weatherClient := SetupIntegrationClient(t, cfg)
	ip := iplocate.New(cfg.IPGeolocationURL, 5*time.Second, nil)
	resolver := location.NewResolver(weatherClient, ip, location.Config{Timeout: 5 * time.Second}, logger.With(zap.String("component", "resolver")))
	return service.NewDashboardService(weatherClient, resolver, 100, logger), weatherClient
}
