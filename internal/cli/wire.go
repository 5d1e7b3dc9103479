package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/config"
	"github.com/kjstillabower/weather-dashboard/internal/iplocate"
	"github.com/kjstillabower/weather-dashboard/internal/location"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/service"
)

// Wire is the production Builder: configuration from opts.ConfigDir, the WeatherAPI.com
// client, IP geolocation and the location resolver.
func Wire(opts Options) (Dashboard, func(), error) {
	logger, err := observability.NewConsoleLogger(opts.Verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = observability.FlushTelemetry(ctx, logger)
	}

	cfg, err := config.LoadFrom(opts.ConfigDir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	weatherClient, err := client.NewWeatherAPIClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.WeatherAPITimeout,
		client.WithForecastDays(cfg.ForecastDays))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("weather client: %w", err)
	}

	ip := iplocate.New(cfg.IPGeolocationURL, cfg.IPGeolocationTimeout, nil)
	resolver := location.NewResolver(weatherClient, ip, location.Config{
		Default: cfg.DefaultLocation,
		Timeout: cfg.GeolocationTimeout,
		MaxAge:  cfg.GeolocationMaxAge,
	}, logger.Named("resolver"))

	logger.Debug("dashboard wired",
		zap.String("weather_api", weatherClient.BaseURL()),
		zap.String("ip_geolocation", cfg.IPGeolocationURL),
		zap.String("default_location", cfg.DefaultLocation))
	return service.NewDashboardService(weatherClient, resolver, cfg.LocationMaxLength, logger), cleanup, nil
}
