package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// Device geolocation failures. They mirror the browser Geolocation API error codes.
var (
	ErrPermissionDenied    = errors.New("geolocation permission denied")
	ErrPositionUnavailable = errors.New("geolocation position unavailable")
	ErrTimeout             = errors.New("geolocation timed out")
	ErrStalePosition       = errors.New("geolocation position too old")
)

// Position is a device fix and the time it was taken.
type Position struct {
	Coordinates models.Coordinates
	Timestamp   time.Time
}

// DeviceLocator supplies the device's current position. Implementations should
// return promptly when ctx is done.
type DeviceLocator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// ReportedPosition is a position (or failure) already obtained by a client,
// typically a browser, and forwarded to the server.
type ReportedPosition struct {
	Position *Position
	Err      error
}

func (p ReportedPosition) CurrentPosition(ctx context.Context) (Position, error) {
	if p.Err != nil {
		return Position{}, p.Err
	}
	if p.Position == nil {
		return Position{}, ErrPositionUnavailable
	}
	return *p.Position, nil
}

// NoDevice is a DeviceLocator for environments without geolocation support.
type NoDevice struct{}

func (NoDevice) CurrentPosition(ctx context.Context) (Position, error) {
	return Position{}, fmt.Errorf("%w: geolocation is not supported", ErrPositionUnavailable)
}

// ParsePositionError maps a client-reported error name ("denied", "unavailable",
// "timeout") to its sentinel. Empty input yields nil.
func ParsePositionError(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil
	case "denied", "permission_denied":
		return ErrPermissionDenied
	case "timeout":
		return ErrTimeout
	case "unavailable", "position_unavailable":
		return ErrPositionUnavailable
	}
	return fmt.Errorf("%w: unknown error %q", ErrPositionUnavailable, s)
}
