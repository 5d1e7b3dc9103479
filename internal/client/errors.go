package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// Error taxonomy surfaced by WeatherAPIClient. Callers match with errors.Is; raw
// status codes and provider error shapes never leak past this package.
var (
	ErrAuth               = errors.New("weather provider rejected API key")
	ErrRateLimited        = errors.New("weather provider quota exceeded")
	ErrServiceUnavailable = errors.New("weather provider unavailable")
	ErrRequestTimeout     = errors.New("weather provider request timed out")
	ErrTransport          = errors.New("weather provider unreachable")
	ErrProvider           = errors.New("weather provider error")
	ErrLocationNotFound   = errors.New("location not found")
)

// Provider error codes carried in the payload's error.code field.
const (
	codeKeyNotProvided     = 1002
	codeNoMatchingLocation = 1006
	codeKeyInvalid         = 2006
	codeQuotaExceeded      = 2007
	codeKeyDisabled        = 2008
)

// payloadSentinel returns the taxonomy error a provider error code stands for,
// regardless of the HTTP status it arrived with.
func payloadSentinel(code int) error {
	switch code {
	case codeKeyNotProvided, codeKeyInvalid, codeKeyDisabled:
		return ErrAuth
	case codeQuotaExceeded:
		return ErrRateLimited
	case codeNoMatchingLocation:
		return ErrLocationNotFound
	}
	return nil
}

// ProviderError carries an explicit error payload returned by the provider.
// It matches ErrProvider.
type ProviderError struct {
	Status  int
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("provider error %d (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("provider error (HTTP %d): %s", e.Status, e.Message)
}

// Is reports whether target is ErrProvider.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

type errorPayload struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// parseErrorPayload returns the provider error carried by body, or nil when body is
// not an error object (including array bodies from the search endpoint).
func parseErrorPayload(status int, body []byte) *ProviderError {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	var p errorPayload
	if err := json.Unmarshal(body, &p); err != nil || p.Error == nil {
		return nil
	}
	return &ProviderError{Status: status, Code: p.Error.Code, Message: p.Error.Message}
}

// handleErrorResponse maps an HTTP outcome to the error taxonomy. Known payload
// codes decide first, then the status, then any remaining payload.
func handleErrorResponse(status int, body []byte) error {
	perr := parseErrorPayload(status, body)
	if perr != nil {
		if sentinel := payloadSentinel(perr.Code); sentinel != nil {
			return fmt.Errorf("%w: %w", sentinel, perr)
		}
	}
	detail := fmt.Sprintf("HTTP %d", status)
	if perr != nil && perr.Message != "" {
		detail += ": " + perr.Message
	}

	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrAuth, detail)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, detail)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", ErrServiceUnavailable, detail)
	}

	if perr != nil {
		return perr
	}
	if status < 200 || status >= 300 {
		return &ProviderError{Status: status, Message: http.StatusText(status)}
	}
	return nil
}
