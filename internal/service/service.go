package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/location"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

// User-facing messages recorded in State.Error.
const (
	MsgInitialLoadFailed = "Failed to load weather data. Please try again."
	MsgUpdateFailed      = "Failed to update weather data. Please try again."
	MsgLocationNotFound  = "Location not found. Please try a different city or zip code."
	MsgEmptyLocation     = "Please enter a location"
	MsgLocationTooLong   = "Location is too long"
)

// Resolver produces a location for a device. *location.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, device location.DeviceLocator, observe func(location.Permission)) location.Resolution
}

// DashboardService runs fetch cycles and owns the dashboard state.
type DashboardService struct {
	client   client.WeatherClient
	resolver Resolver
	store    *Store
	maxLen   int
	now      func() time.Time
	logger   *zap.Logger
}

// NewDashboardService creates a DashboardService. maxLen bounds search queries in runes.
func NewDashboardService(c client.WeatherClient, r Resolver, maxLen int, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		client:   c,
		resolver: r,
		store:    NewStore(),
		maxLen:   maxLen,
		now:      time.Now,
		logger:   logger,
	}
}

// State returns the current dashboard state.
func (s *DashboardService) State() State {
	return s.store.Snapshot()
}

// Fetch requests current conditions, forecast and astronomy for loc concurrently.
// The result is all-or-nothing: the first failure cancels the other requests and
// is returned alone.
func (s *DashboardService) Fetch(ctx context.Context, loc string) (models.Report, error) {
	var (
		current   models.CurrentReport
		place     models.Place
		days      []models.ForecastDay
		astronomy models.AstronomyInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.client.GetCurrentWeather(gctx, loc)
		return err
	})
	g.Go(func() error {
		var err error
		place, days, err = s.client.GetForecast(gctx, loc)
		return err
	})
	g.Go(func() error {
		var err error
		astronomy, err = s.client.GetAstronomy(gctx, loc)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Report{}, fmt.Errorf("fetch weather for %s: %w", loc, err)
	}

	if current.Place.Name == "" {
		current.Place = place
	}
	if days == nil {
		days = []models.ForecastDay{}
	}
	return models.Report{
		Query:     loc,
		Place:     current.Place,
		Current:   current.Current,
		Forecast:  days,
		Astronomy: astronomy,
		FetchedAt: s.now(),
	}, nil
}

// Search validates loc and runs one fetch cycle for it. The returned error is the
// cycle's own failure even when a newer cycle has since replaced the state.
func (s *DashboardService) Search(ctx context.Context, loc string) (State, error) {
	q, err := validation.ValidateLocation(loc, s.maxLen)
	if err != nil {
		return s.store.Snapshot(), err
	}
	return s.run(ctx, s.store.Begin(), q, nil)
}

// Locate resolves a location for device and runs one fetch cycle for it. The cycle
// starts before resolution, so State is loading and shows permission transitions
// while the location is being determined.
func (s *DashboardService) Locate(ctx context.Context, device location.DeviceLocator) (State, error) {
	c := s.store.Begin()
	res := s.resolver.Resolve(ctx, device, func(p location.Permission) {
		s.store.SetPermission(c, p)
	})
	return s.run(ctx, c, res.Location, &res)
}

func (s *DashboardService) run(ctx context.Context, c cycle, loc string, res *location.Resolution) (State, error) {
	logger := observability.LoggerFromContext(ctx, s.logger)
	observability.RecordWeatherQuery(loc)
	start := time.Now()

	report, err := s.Fetch(ctx, loc)
	if err != nil {
		applied := s.store.Fail(c, err, loc, res)
		s.recordOutcome(c, applied, "error")
		logger.Warn("fetch cycle failed",
			zap.String("location", loc),
			zap.Uint64("sequence", c.seq),
			zap.String("cycle_id", c.id),
			zap.String("category", string(client.CategorizeError(err))),
			zap.Bool("applied", applied),
			zap.Error(err),
		)
		return s.store.Snapshot(), err
	}

	applied := s.store.Commit(c, report, res)
	s.recordOutcome(c, applied, "success")
	logger.Debug("fetch cycle complete",
		zap.String("location", loc),
		zap.Uint64("sequence", c.seq),
		zap.String("cycle_id", c.id),
		zap.Bool("applied", applied),
		zap.Duration("duration", time.Since(start)),
	)
	return s.store.Snapshot(), nil
}

func (s *DashboardService) recordOutcome(c cycle, applied bool, outcome string) {
	if !applied {
		outcome = "stale"
	}
	observability.FetchCyclesTotal.WithLabelValues(outcome).Inc()
}

// failureMessage picks the user-facing message. A resolved load without a real
// report yet gets the initial-load message; otherwise not-found is distinguished.
func failureMessage(err error, resolved, hasReport bool) string {
	if resolved && !hasReport {
		return MsgInitialLoadFailed
	}
	if errors.Is(err, client.ErrLocationNotFound) {
		return MsgLocationNotFound
	}
	return MsgUpdateFailed
}

// UserMessage returns the user-facing text for a Search validation error, or "".
func UserMessage(err error) string {
	switch {
	case errors.Is(err, validation.ErrLocationEmpty):
		return MsgEmptyLocation
	case errors.Is(err, validation.ErrLocationTooLong):
		return MsgLocationTooLong
	}
	return ""
}
