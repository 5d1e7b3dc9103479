package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testAPIKey = "test-api-key-12345"

const currentJSON = `{
	"location": {"name": "Seattle", "region": "Washington", "country": "United States of America",
		"lat": 47.61, "lon": -122.33, "tz_id": "America/Los_Angeles", "localtime": "2024-03-15 09:30"},
	"current": {"last_updated": "2024-03-15 09:15", "temp_c": 15.5, "is_day": 1,
		"condition": {"text": "Partly cloudy", "icon": "//cdn.weatherapi.com/weather/64x64/day/116.png", "code": 1003},
		"wind_kph": 11.2, "wind_dir": "SW", "pressure_mb": 1016, "precip_mm": 0, "humidity": 65,
		"cloud": 50, "feelslike_c": 14.1, "vis_km": 10, "uv": 3, "gust_kph": 18.4}
}`

const forecastJSON = `{
	"location": {"name": "Seattle", "region": "Washington", "country": "United States of America", "lat": 47.61, "lon": -122.33},
	"forecast": {"forecastday": [
		{"date": "2024-03-15",
		 "day": {"maxtemp_c": 17.2, "mintemp_c": 8.1, "avgtemp_c": 12.4, "maxwind_kph": 20.5, "totalprecip_mm": 1.2,
			"avghumidity": 70, "daily_will_it_rain": 1, "daily_chance_of_rain": 80,
			"condition": {"text": "Patchy rain possible", "icon": "", "code": 1063}, "uv": 2},
		 "astro": {"sunrise": "07:18 AM", "sunset": "07:12 PM", "moonrise": "09:01 AM", "moonset": "01:44 AM",
			"moon_phase": "Waxing Crescent", "moon_illumination": 28},
		 "hour": [{"time": "2024-03-15 00:00", "temp_c": 9.3, "is_day": 0,
			"condition": {"text": "Clear", "icon": "", "code": 1000}, "chance_of_rain": 0}]},
		{"date": "2024-03-16",
		 "day": {"maxtemp_c": 14.0, "mintemp_c": 6.5, "condition": {"text": "Sunny", "icon": "", "code": 1000}},
		 "astro": {"moon_phase": "First Quarter", "moon_illumination": "45"},
		 "hour": []}
	]}
}`

const astronomyJSON = `{
	"location": {"name": "Seattle"},
	"astronomy": {"astro": {"sunrise": "07:18 AM", "sunset": "07:12 PM", "moonrise": "09:01 AM",
		"moonset": "01:44 AM", "moon_phase": "Waxing Crescent", "moon_illumination": "28"}}
}`

func newTestClient(t *testing.T, server *httptest.Server, opts ...Option) *WeatherAPIClient {
	t.Helper()
	opts = append([]Option{WithHTTPClient(server.Client())}, opts...)
	c, err := NewWeatherAPIClient(testAPIKey, server.URL, 2*time.Second, opts...)
	if err != nil {
		t.Fatalf("NewWeatherAPIClient() error = %v", err)
	}
	return c
}

func TestNewWeatherAPIClient_InvalidAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		wantErr error
	}{
		{"empty API key", "", ErrAuth},
		{"too short API key", "short", ErrAuth},
		{"valid API key", testAPIKey, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewWeatherAPIClient(tt.apiKey, "https://api.weatherapi.com/v1", 2*time.Second)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewWeatherAPIClient() error = %v, want %v", err, tt.wantErr)
				}
				if c != nil {
					t.Errorf("NewWeatherAPIClient() expected nil client on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWeatherAPIClient() unexpected error: %v", err)
			}
		})
	}
}

func TestNewWeatherAPIClient_BaseURLScheme(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
		wantErr error
	}{
		{"https kept", "https://api.weatherapi.com/v1", "https://api.weatherapi.com/v1", nil},
		{"http upgraded", "http://api.weatherapi.com/v1/", "https://api.weatherapi.com/v1", nil},
		{"uppercase scheme", "HTTP://api.weatherapi.com/v1", "https://api.weatherapi.com/v1", nil},
		{"ftp rejected", "ftp://api.weatherapi.com/v1", "", ErrTransport},
		{"no scheme rejected", "api.weatherapi.com/v1", "", ErrTransport},
		{"unparseable", "://invalid", "", ErrTransport},
		{"missing host", "https:///v1", "", ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewWeatherAPIClient(testAPIKey, tt.baseURL, time.Second)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewWeatherAPIClient(%q) error = %v, want %v", tt.baseURL, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWeatherAPIClient(%q) unexpected error: %v", tt.baseURL, err)
			}
			if got := c.BaseURL(); got != tt.want {
				t.Errorf("BaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestWeatherAPIClient_NeverSendsPlaintext points the client at a plain HTTP server.
// The upgraded request fails the TLS handshake and the handler is never reached.
func TestWeatherAPIClient_NeverSendsPlaintext(t *testing.T) {
	reached := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := NewWeatherAPIClient(testAPIKey, server.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("NewWeatherAPIClient() error = %v", err)
	}
	_, err = c.GetCurrentWeather(context.Background(), "Seattle")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("GetCurrentWeather() error = %v, want ErrTransport", err)
	}
	if reached {
		t.Error("plain HTTP handler was reached")
	}
}

func TestWeatherAPIClient_GetCurrentWeather_Success(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/current.json" {
			t.Errorf("path = %q, want /current.json", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Seattle" {
			t.Errorf("q = %q, want Seattle", q.Get("q"))
		}
		if q.Get("key") != testAPIKey {
			t.Errorf("key = %q, want %q", q.Get("key"), testAPIKey)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(currentJSON))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	got, err := c.GetCurrentWeather(context.Background(), "Seattle")
	if err != nil {
		t.Fatalf("GetCurrentWeather() error = %v", err)
	}

	if got.Place.Name != "Seattle" || got.Place.Region != "Washington" {
		t.Errorf("Place = %+v, want Seattle, Washington", got.Place)
	}
	if got.Current.TemperatureC != 15.5 {
		t.Errorf("TemperatureC = %v, want 15.5", got.Current.TemperatureC)
	}
	if got.Current.Condition.Code != 1003 || got.Current.Condition.Text != "Partly cloudy" {
		t.Errorf("Condition = %+v, want code 1003 Partly cloudy", got.Current.Condition)
	}
	if got.Current.Humidity != 65 || got.Current.WindDirection != "SW" || got.Current.IsDay != 1 {
		t.Errorf("Current = %+v, unexpected humidity/wind/is_day", got.Current)
	}
}

func TestWeatherAPIClient_RequestsDefeatCaches(t *testing.T) {
	var nonces []string
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonces = append(nonces, r.URL.Query().Get("_"))
		if got := r.Header.Get("Cache-Control"); got != "no-cache" {
			t.Errorf("Cache-Control = %q, want no-cache", got)
		}
		if got := r.Header.Get("X-Correlation-ID"); got != "corr-123" {
			t.Errorf("X-Correlation-ID = %q, want corr-123", got)
		}
		_, _ = w.Write([]byte(currentJSON))
	}))
	defer server.Close()

	n := 0
	c := newTestClient(t, server, WithNonce(func() string {
		n++
		return "nonce-" + strings.Repeat("x", n)
	}))

	ctx := context.WithValue(context.Background(), "correlation_id", "corr-123")
	for i := 0; i < 2; i++ {
		if _, err := c.GetCurrentWeather(ctx, "Seattle"); err != nil {
			t.Fatalf("GetCurrentWeather() error = %v", err)
		}
	}
	if len(nonces) != 2 || nonces[0] == "" || nonces[0] == nonces[1] {
		t.Errorf("nonces = %v, want two distinct non-empty values", nonces)
	}
}

func TestWeatherAPIClient_GetForecast_Success(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast.json" {
			t.Errorf("path = %q, want /forecast.json", r.URL.Path)
		}
		if got := r.URL.Query().Get("days"); got != "7" {
			t.Errorf("days = %q, want 7", got)
		}
		_, _ = w.Write([]byte(forecastJSON))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	place, days, err := c.GetForecast(context.Background(), "Seattle")
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}
	if place.Name != "Seattle" {
		t.Errorf("place.Name = %q, want Seattle", place.Name)
	}
	if len(days) != 2 {
		t.Fatalf("len(days) = %d, want 2", len(days))
	}
	d := days[0]
	if d.Date != "2024-03-15" || d.Day.MaxTempC != 17.2 || !d.Day.WillItRain || d.Day.ChanceOfRain != 80 {
		t.Errorf("days[0] = %+v, unexpected summary", d)
	}
	if d.Astronomy.MoonIllumination != "28" {
		t.Errorf("numeric moon_illumination decoded as %q, want 28", d.Astronomy.MoonIllumination)
	}
	if days[1].Astronomy.MoonIllumination != "45" {
		t.Errorf("string moon_illumination decoded as %q, want 45", days[1].Astronomy.MoonIllumination)
	}
	if len(d.Hours) != 1 || d.Hours[0].Condition.Code != 1000 {
		t.Errorf("days[0].Hours = %+v, want one clear hour", d.Hours)
	}
}

func TestWeatherAPIClient_WithForecastDays(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("days"); got != "3" {
			t.Errorf("days = %q, want 3", got)
		}
		_, _ = w.Write([]byte(forecastJSON))
	}))
	defer server.Close()

	c := newTestClient(t, server, WithForecastDays(3))
	if _, _, err := c.GetForecast(context.Background(), "Seattle"); err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}
}

func TestWeatherAPIClient_GetAstronomy_UsesLocalDate(t *testing.T) {
	fixed := time.Date(2024, 3, 15, 23, 30, 0, 0, time.Local)
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/astronomy.json" {
			t.Errorf("path = %q, want /astronomy.json", r.URL.Path)
		}
		if got := r.URL.Query().Get("dt"); got != "2024-03-15" {
			t.Errorf("dt = %q, want 2024-03-15", got)
		}
		_, _ = w.Write([]byte(astronomyJSON))
	}))
	defer server.Close()

	c := newTestClient(t, server, WithClock(func() time.Time { return fixed }))
	astro, err := c.GetAstronomy(context.Background(), "Seattle")
	if err != nil {
		t.Fatalf("GetAstronomy() error = %v", err)
	}
	if astro.Sunrise != "07:18 AM" || astro.MoonPhase != "Waxing Crescent" || astro.MoonIllumination != "28" {
		t.Errorf("GetAstronomy() = %+v, unexpected values", astro)
	}
}

func TestWeatherAPIClient_SearchLocations(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr error
	}{
		{
			name: "matches",
			body: `[{"id": 2801268, "name": "London", "region": "City of London, Greater London", "country": "United Kingdom", "lat": 51.52, "lon": -0.11}]`,
			want: 1,
		},
		{name: "empty result", body: `[]`, wantErr: ErrLocationNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search.json" {
					t.Errorf("path = %q, want /search.json", r.URL.Path)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestClient(t, server)
			got, err := c.SearchLocations(context.Background(), "51.52,-0.11")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SearchLocations() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SearchLocations() error = %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("len(SearchLocations()) = %d, want %d", len(got), tt.want)
			}
			if got[0].Name != "London" || got[0].ID != 2801268 {
				t.Errorf("SearchLocations()[0] = %+v, want London", got[0])
			}
		})
	}
}

func TestWeatherAPIClient_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
		notErr     error
	}{
		{"401 unauthorized", http.StatusUnauthorized, `{"error":{"code":2006,"message":"API key is invalid."}}`, ErrAuth, nil},
		{"429 quota", http.StatusTooManyRequests, "", ErrRateLimited, nil},
		{"500 server error", http.StatusInternalServerError, "", ErrServiceUnavailable, nil},
		{"503 unavailable", http.StatusServiceUnavailable, "", ErrServiceUnavailable, nil},
		{"504 gateway timeout", http.StatusGatewayTimeout, "", ErrServiceUnavailable, nil},
		{"400 no matching location", http.StatusBadRequest, `{"error":{"code":1006,"message":"No matching location found."}}`, ErrLocationNotFound, nil},
		{"400 no matching location is also provider", http.StatusBadRequest, `{"error":{"code":1006,"message":"No matching location found."}}`, ErrProvider, nil},
		{"403 disabled key payload", http.StatusForbidden, `{"error":{"code":2008,"message":"API key has been disabled."}}`, ErrAuth, ErrLocationNotFound},
		{"403 invalid key payload", http.StatusForbidden, `{"error":{"code":2006,"message":"API key provided is invalid"}}`, ErrAuth, ErrRateLimited},
		{"401 missing key payload", http.StatusUnauthorized, `{"error":{"code":1002,"message":"API key not provided."}}`, ErrAuth, nil},
		{"403 quota exceeded payload", http.StatusForbidden, `{"error":{"code":2007,"message":"API key has exceeded calls per month quota."}}`, ErrRateLimited, ErrAuth},
		{"200 with error payload", http.StatusOK, `{"error":{"code":9999,"message":"Internal application error."}}`, ErrProvider, nil},
		{"404 without payload", http.StatusNotFound, "not here", ErrProvider, ErrLocationNotFound},
		{"malformed JSON", http.StatusOK, "{not json", ErrProvider, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestClient(t, server)
			_, err := c.GetCurrentWeather(context.Background(), "test")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GetCurrentWeather() error = %v, want %v", err, tt.wantErr)
			}
			if tt.notErr != nil && errors.Is(err, tt.notErr) {
				t.Errorf("GetCurrentWeather() error = %v, must not match %v", err, tt.notErr)
			}
		})
	}
}

func TestWeatherAPIClient_ProviderErrorCarriesPayload(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":1006,"message":"No matching location found."}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, _, err := c.GetForecast(context.Background(), "nowhere")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("GetForecast() error = %v, want *ProviderError in chain", err)
	}
	if perr.Code != 1006 || perr.Status != http.StatusBadRequest || perr.Message != "No matching location found." {
		t.Errorf("ProviderError = %+v, unexpected fields", perr)
	}
}

func TestWeatherAPIClient_Timeout(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c, err := NewWeatherAPIClient(testAPIKey, server.URL, 100*time.Millisecond, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewWeatherAPIClient() error = %v", err)
	}
	_, err = c.GetCurrentWeather(context.Background(), "test")
	if !errors.Is(err, ErrRequestTimeout) {
		t.Errorf("GetCurrentWeather() error = %v, want ErrRequestTimeout", err)
	}
}

func TestWeatherAPIClient_Unreachable(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	hc := server.Client()
	baseURL := server.URL
	server.Close()

	c, err := NewWeatherAPIClient(testAPIKey, baseURL, time.Second, WithHTTPClient(hc))
	if err != nil {
		t.Fatalf("NewWeatherAPIClient() error = %v", err)
	}
	_, err = c.GetAstronomy(context.Background(), "test")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("GetAstronomy() error = %v, want ErrTransport", err)
	}
}

func TestWeatherAPIClient_ContextCancellation(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	c := newTestClient(t, server)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetCurrentWeather(ctx, "test")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("GetCurrentWeather() error = %v, want context.Canceled in chain", err)
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("GetCurrentWeather() error = %v, want ErrTransport", err)
	}
}

func TestWeatherAPIClient_ValidateAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
	}{
		{"success", http.StatusOK, currentJSON, nil},
		{"401 invalid key", http.StatusUnauthorized, "", ErrAuth},
		{"500 server error", http.StatusInternalServerError, "", ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestClient(t, server)
			err := c.ValidateAPIKey(context.Background())
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateAPIKey() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAPIKey() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "success"},
		{429, "rate_limited"},
		{400, "client_error"},
		{503, "server_error"},
		{100, "error"},
	}
	for _, tt := range tests {
		if got := statusLabel(tt.code); got != tt.want {
			t.Errorf("statusLabel(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

// TestCoverageGaps_IntentionallyUntested documents paths we reviewed but chose not to test.
// Run with -v to see skip reasons.
func TestCoverageGaps_IntentionallyUntested(t *testing.T) {
	t.Run("get_ReadAll_error", func(t *testing.T) {
		t.Skip("body read failure after headers requires a hijacked connection; classification is shared with the Do error path")
	})
	t.Run("buildRequest_non_https_guard", func(t *testing.T) {
		t.Skip("constructor always upgrades the scheme; guard is unreachable without mutating unexported state")
	})
	t.Run("refuseInsecureRedirect", func(t *testing.T) {
		t.Skip("redirect to http:// needs a TLS server redirecting to a plain listener; covered by review")
	})
}
