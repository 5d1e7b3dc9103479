// Package iplocate resolves the caller's approximate location from its public IP
// using an ipapi.co-compatible service.
package iplocate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

var (
	ErrLookup     = errors.New("ip geolocation lookup failed")
	ErrNoLocation = errors.New("ip geolocation returned no usable location")
)

const lookupPath = "/json/"

// lookupPathFor returns the ipapi.co path for ip; an empty ip looks up the
// address the request arrives from.
func lookupPathFor(ip string) (string, error) {
	if ip == "" {
		return lookupPath, nil
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("%w: invalid ip %q", ErrLookup, ip)
	}
	return "/" + parsed.String() + lookupPath, nil
}

type lookupResponse struct {
	City      string   `json:"city"`
	Region    string   `json:"region"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

// Client looks up the location of a public IP.
type Client struct {
	http *resty.Client
}

// New returns a Client for baseURL (e.g. https://ipapi.co). hc may be nil.
func New(baseURL string, timeout time.Duration, hc *http.Client) *Client {
	var rc *resty.Client
	if hc != nil {
		rc = resty.NewWithClient(hc)
	} else {
		rc = resty.New()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rc.SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "weather-dashboard/1.0")
	return &Client{http: rc}
}

// Locate looks up ip, or this machine's public address when ip is empty. It returns
// "city, region" when both are known, otherwise "lat,lon" when both coordinates are
// present. Anything else is an error.
func (c *Client) Locate(ctx context.Context, ip string) (string, error) {
	path, err := lookupPathFor(ip)
	if err != nil {
		observability.IPLookupsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		observability.IPLookupsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %w", ErrLookup, err)
	}
	if resp.IsError() {
		observability.IPLookupsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: HTTP %d", ErrLookup, resp.StatusCode())
	}

	var out lookupResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		observability.IPLookupsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: parse response: %v", ErrLookup, err)
	}
	if out.Error {
		observability.IPLookupsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %s", ErrLookup, out.Reason)
	}

	city, region := strings.TrimSpace(out.City), strings.TrimSpace(out.Region)
	switch {
	case city != "" && region != "":
		observability.IPLookupsTotal.WithLabelValues("success").Inc()
		return city + ", " + region, nil
	case out.Latitude != nil && out.Longitude != nil:
		observability.IPLookupsTotal.WithLabelValues("success").Inc()
		return models.Coordinates{Latitude: *out.Latitude, Longitude: *out.Longitude}.String(), nil
	}
	observability.IPLookupsTotal.WithLabelValues("no_location").Inc()
	return "", ErrNoLocation
}
