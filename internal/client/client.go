package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

type WeatherClient interface {
	GetCurrentWeather(ctx context.Context, location string) (models.CurrentReport, error)
	GetForecast(ctx context.Context, location string) (models.Place, []models.ForecastDay, error)
	GetAstronomy(ctx context.Context, location string) (models.AstronomyInfo, error)
	SearchLocations(ctx context.Context, query string) ([]models.LocationMatch, error)
	ValidateAPIKey(ctx context.Context) error
}

const (
	endpointCurrent   = "current.json"
	endpointForecast  = "forecast.json"
	endpointAstronomy = "astronomy.json"
	endpointSearch    = "search.json"

	defaultForecastDays = 7
	astronomyDateLayout = "2006-01-02"
)

type WeatherAPIClient struct {
	apiKey       string
	baseURL      *url.URL
	timeout      time.Duration
	forecastDays int
	client       *http.Client
	now          func() time.Time
	nonce        func() string
}

// Option customizes a WeatherAPIClient.
type Option func(*WeatherAPIClient)

// WithHTTPClient replaces the underlying http.Client. The per-request timeout is still
// enforced through the request context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *WeatherAPIClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithForecastDays sets the days parameter of forecast requests.
func WithForecastDays(days int) Option {
	return func(c *WeatherAPIClient) {
		if days > 0 {
			c.forecastDays = days
		}
	}
}

// WithClock sets the clock used to compute the astronomy date.
func WithClock(now func() time.Time) Option {
	return func(c *WeatherAPIClient) {
		if now != nil {
			c.now = now
		}
	}
}

// WithNonce sets the generator for the cache-defeating query parameter.
func WithNonce(nonce func() string) Option {
	return func(c *WeatherAPIClient) {
		if nonce != nil {
			c.nonce = nonce
		}
	}
}

// NewWeatherAPIClient returns a client for the provider rooted at baseURL
// (e.g. https://api.weatherapi.com/v1). An http:// base URL is upgraded to https://;
// any other scheme is rejected with ErrTransport.
func NewWeatherAPIClient(apiKey, baseURL string, timeout time.Duration, opts ...Option) (*WeatherAPIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrAuth)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrAuth)
	}
	u, err := secureBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &WeatherAPIClient{
		apiKey:       apiKey,
		baseURL:      u,
		timeout:      timeout,
		forecastDays: defaultForecastDays,
		client: &http.Client{
			Timeout:       timeout,
			CheckRedirect: refuseInsecureRedirect,
		},
		now: time.Now,
		nonce: func() string {
			return strconv.FormatInt(time.Now().UnixNano(), 10)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the effective (encrypted) base URL.
func (c *WeatherAPIClient) BaseURL() string {
	return c.baseURL.String()
}

func secureBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid API URL: %v", ErrTransport, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "https"
	case "http":
		u.Scheme = "https"
	default:
		return nil, fmt.Errorf("%w: unsupported API URL scheme %q", ErrTransport, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: API URL has no host", ErrTransport)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	return u, nil
}

func refuseInsecureRedirect(req *http.Request, via []*http.Request) error {
	if req.URL.Scheme != "https" {
		return fmt.Errorf("%w: refusing redirect to %s", ErrTransport, req.URL.Redacted())
	}
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	return nil
}

// GetCurrentWeather fetches current conditions for location.
func (c *WeatherAPIClient) GetCurrentWeather(ctx context.Context, location string) (models.CurrentReport, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("aqi", "no")

	var resp currentResponse
	if err := c.get(ctx, endpointCurrent, params, &resp); err != nil {
		return models.CurrentReport{}, err
	}
	return models.CurrentReport{
		Place:   resp.Location.toModel(),
		Current: resp.Current.toModel(),
	}, nil
}

// GetForecast fetches the multi-day forecast for location.
func (c *WeatherAPIClient) GetForecast(ctx context.Context, location string) (models.Place, []models.ForecastDay, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("days", strconv.Itoa(c.forecastDays))
	params.Set("aqi", "no")
	params.Set("alerts", "no")

	var resp forecastResponse
	if err := c.get(ctx, endpointForecast, params, &resp); err != nil {
		return models.Place{}, nil, err
	}
	days := make([]models.ForecastDay, 0, len(resp.Forecast.ForecastDay))
	for _, d := range resp.Forecast.ForecastDay {
		days = append(days, d.toModel())
	}
	return resp.Location.toModel(), days, nil
}

// GetAstronomy fetches astronomy data for location on the current local calendar date.
func (c *WeatherAPIClient) GetAstronomy(ctx context.Context, location string) (models.AstronomyInfo, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("dt", c.AstronomyDate())

	var resp astronomyResponse
	if err := c.get(ctx, endpointAstronomy, params, &resp); err != nil {
		return models.AstronomyInfo{}, err
	}
	return resp.Astronomy.Astro.toModel(), nil
}

// AstronomyDate returns today's date in the client's local time zone as YYYY-MM-DD.
func (c *WeatherAPIClient) AstronomyDate() string {
	return c.now().Local().Format(astronomyDateLayout)
}

// SearchLocations queries the provider's location search. Used for reverse geocoding
// with a "lat,lon" query. Returns ErrLocationNotFound when nothing matches.
func (c *WeatherAPIClient) SearchLocations(ctx context.Context, query string) ([]models.LocationMatch, error) {
	params := url.Values{}
	params.Set("q", query)

	var resp []searchResult
	if err := c.get(ctx, endpointSearch, params, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("%w: no results for %q", ErrLocationNotFound, query)
	}
	matches := make([]models.LocationMatch, 0, len(resp))
	for _, r := range resp {
		matches = append(matches, r.toModel())
	}
	return matches, nil
}

// ValidateAPIKey issues a lightweight current-conditions request to confirm the key
// is accepted.
func (c *WeatherAPIClient) ValidateAPIKey(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	params := url.Values{}
	params.Set("q", "London")
	params.Set("aqi", "no")

	var resp currentResponse
	if err := c.get(ctx, endpointCurrent, params, &resp); err != nil {
		return fmt.Errorf("validate API key: %w", err)
	}
	return nil
}

// get performs one GET against endpoint and decodes a successful body into out.
// There is no retry: every failure is mapped to the error taxonomy and returned.
func (c *WeatherAPIClient) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, endpoint, params)
	if err != nil {
		c.observe(endpoint, "error", start, err)
		return err
	}

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		err = classifyTransportError(fmt.Errorf("%s request failed: %w", endpoint, err))
		c.observe(endpoint, "error", start, err)
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = classifyTransportError(fmt.Errorf("read %s response body: %w", endpoint, err))
		c.observe(endpoint, "error", start, err)
		return err
	}

	if err := handleErrorResponse(resp.StatusCode, body); err != nil {
		c.observe(endpoint, statusLabel(resp.StatusCode), start, err)
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		err = &ProviderError{Status: resp.StatusCode, Message: "parse " + endpoint + " response: " + err.Error()}
		c.observe(endpoint, "error", start, err)
		return err
	}

	c.observe(endpoint, statusLabel(resp.StatusCode), start, nil)
	return nil
}

func (c *WeatherAPIClient) buildRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	if c.baseURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: refusing unencrypted request to %s", ErrTransport, c.baseURL.Host)
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + endpoint

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("key", c.apiKey)
	q.Set("_", c.nonce())
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	return req, nil
}

func (c *WeatherAPIClient) observe(endpoint, status string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	observability.WeatherAPICallsTotal.WithLabelValues(endpoint, status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(endpoint, status).Observe(duration)
	if err != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(endpoint, string(CategorizeError(err))).Inc()
	}
}

// classifyTransportError separates deadline expiry from other network failures.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrRequestTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrRequestTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value(observability.CorrelationIDKey); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
