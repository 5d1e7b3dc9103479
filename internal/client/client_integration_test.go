//go:build integration
// +build integration

package client

import (
	"context"
	"os"
	"testing"
	"time"
)

const integrationBaseURL = "https://api.weatherapi.com/v1"

func integrationClient(t *testing.T) *WeatherAPIClient {
	t.Helper()
	apiKey := os.Getenv("WEATHER_API_KEY")
	if apiKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}
	c, err := NewWeatherAPIClient(apiKey, integrationBaseURL, 10*time.Second)
	if err != nil {
		t.Fatalf("NewWeatherAPIClient() error = %v", err)
	}
	return c
}

func TestWeatherAPIClient_ValidateAPIKey_Integration(t *testing.T) {
	c := integrationClient(t)
	if err := c.ValidateAPIKey(context.Background()); err != nil {
		t.Errorf("ValidateAPIKey() error = %v, want nil (API key may not be activated yet)", err)
	}
}

func TestWeatherAPIClient_Dashboard_Integration(t *testing.T) {
	c := integrationClient(t)
	ctx := context.Background()

	current, err := c.GetCurrentWeather(ctx, "London")
	if err != nil {
		t.Fatalf("GetCurrentWeather() error = %v", err)
	}
	if current.Place.Name == "" {
		t.Error("GetCurrentWeather() returned empty location name")
	}
	if current.Current.Condition.Code == 0 {
		t.Error("GetCurrentWeather() returned zero condition code")
	}

	_, days, err := c.GetForecast(ctx, "London")
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}
	if len(days) == 0 {
		t.Error("GetForecast() returned no days")
	}

	astro, err := c.GetAstronomy(ctx, "London")
	if err != nil {
		t.Fatalf("GetAstronomy() error = %v", err)
	}
	if astro.Sunrise == "" {
		t.Error("GetAstronomy() returned empty sunrise")
	}
}

func TestWeatherAPIClient_SearchLocations_Integration(t *testing.T) {
	c := integrationClient(t)
	matches, err := c.SearchLocations(context.Background(), "51.5074,-0.1278")
	if err != nil {
		t.Fatalf("SearchLocations() error = %v", err)
	}
	if matches[0].Name == "" {
		t.Error("SearchLocations() returned empty name")
	}
}
