// Package location resolves the location string a dashboard should show. It walks
// a fixed fallback chain and never fails: device position (reverse-geocoded when
// possible), then IP geolocation, then a configured default.
package location

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// Permission is the device-geolocation permission state shown to the user.
type Permission string

const (
	PermissionPending Permission = "pending"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Source records which step of the chain produced a location.
type Source string

const (
	SourceDevice      Source = "device"
	SourceCoordinates Source = "coordinates"
	SourceIP          Source = "ip"
	SourceDefault     Source = "default"
)

// Geocoder reverse-geocodes a "lat,lon" query. The weather client satisfies it.
type Geocoder interface {
	SearchLocations(ctx context.Context, query string) ([]models.LocationMatch, error)
}

// IPLocator returns a location string for ip. An empty ip means the address the
// lookup itself comes from.
type IPLocator interface {
	Locate(ctx context.Context, ip string) (string, error)
}

type callerIPKey struct{}

// WithCallerIP returns a context carrying the public IP of the client a resolution
// runs on behalf of.
func WithCallerIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, callerIPKey{}, ip)
}

// CallerIPFromContext returns the IP set by WithCallerIP, or "".
func CallerIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(callerIPKey{}).(string)
	return ip
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Location   string     `json:"location"`
	Permission Permission `json:"permission"`
	Source     Source     `json:"source"`
}

// Config bounds device geolocation and names the last-resort location.
type Config struct {
	Default string
	Timeout time.Duration
	MaxAge  time.Duration
}

type Resolver struct {
	geocoder Geocoder
	ip       IPLocator
	fallback string
	timeout  time.Duration
	maxAge   time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewResolver returns a Resolver. geocoder and ip may be nil, which skips the
// corresponding step.
func NewResolver(geocoder Geocoder, ip IPLocator, cfg Config, logger *zap.Logger) *Resolver {
	if cfg.Default == "" {
		cfg.Default = "London"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		geocoder: geocoder,
		ip:       ip,
		fallback: cfg.Default,
		timeout:  cfg.Timeout,
		maxAge:   cfg.MaxAge,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces the clock used for the position max-age check.
func (r *Resolver) SetClock(now func() time.Time) {
	r.now = now
}

// Resolve runs the fallback chain. observe, if non-nil, receives pending and then
// exactly one of granted or denied.
func (r *Resolver) Resolve(ctx context.Context, device DeviceLocator, observe func(Permission)) Resolution {
	logger := observability.LoggerFromContext(ctx, r.logger)
	notify := func(p Permission) {
		if observe != nil {
			observe(p)
		}
	}
	if device == nil {
		device = NoDevice{}
	}

	notify(PermissionPending)
	pos, err := r.devicePosition(ctx, device)
	if err == nil {
		notify(PermissionGranted)
		res := r.reverseGeocode(ctx, logger, pos.Coordinates)
		return r.record(res)
	}

	logger.Debug("device geolocation unavailable", zap.Error(err))
	notify(PermissionDenied)

	if r.ip != nil {
		ip := CallerIPFromContext(ctx)
		loc, err := r.ip.Locate(ctx, ip)
		if err == nil && loc != "" {
			return r.record(Resolution{Location: loc, Permission: PermissionDenied, Source: SourceIP})
		}
		logger.Warn("ip geolocation failed; using default location",
			zap.Error(err), zap.String("caller_ip", ip), zap.String("default", r.fallback))
	}
	return r.record(Resolution{Location: r.fallback, Permission: PermissionDenied, Source: SourceDefault})
}

// devicePosition asks the device for a fix bounded by the timeout, and rejects fixes
// older than maxAge.
func (r *Resolver) devicePosition(ctx context.Context, device DeviceLocator) (Position, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		pos Position
		err error
	}
	done := make(chan result, 1)
	go func() {
		pos, err := device.CurrentPosition(ctx)
		done <- result{pos, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		return Position{}, ErrTimeout
	}
	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) {
			return Position{}, ErrTimeout
		}
		return Position{}, res.err
	}
	if !res.pos.Timestamp.IsZero() && r.now().Sub(res.pos.Timestamp) > r.maxAge {
		return Position{}, ErrStalePosition
	}
	return res.pos, nil
}

func (r *Resolver) reverseGeocode(ctx context.Context, logger *zap.Logger, c models.Coordinates) Resolution {
	res := Resolution{Location: c.String(), Permission: PermissionGranted, Source: SourceCoordinates}
	if r.geocoder == nil {
		return res
	}
	matches, err := r.geocoder.SearchLocations(ctx, c.String())
	if err != nil {
		logger.Debug("reverse geocoding failed; using coordinates", zap.Error(err), zap.String("coordinates", c.String()))
		return res
	}
	if len(matches) == 0 || matches[0].Name == "" {
		return res
	}
	res.Location = matches[0].Name
	res.Source = SourceDevice
	return res
}

func (r *Resolver) record(res Resolution) Resolution {
	observability.LocationResolutionsTotal.WithLabelValues(string(res.Source)).Inc()
	r.logger.Debug("location resolved",
		zap.String("location", res.Location),
		zap.String("source", string(res.Source)),
		zap.String("permission", string(res.Permission)),
	)
	return res
}
