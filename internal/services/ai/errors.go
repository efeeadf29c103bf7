package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
)

var (
	// ErrRateLimited indicates the API rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded indicates the API quota was exceeded
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrEmptySuggestion is returned when the model answers with no content
	ErrEmptySuggestion = errors.New("empty suggestion")
)

// APIError represents an error from the AI provider API
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  *time.Duration
	IsPermanent bool // true for quota errors, false for rate limits
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// Unwrap lets errors.Is match ErrRateLimited and ErrQuotaExceeded
func (e *APIError) Unwrap() error {
	switch {
	case e.IsPermanent:
		return ErrQuotaExceeded
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests && !apiErr.IsPermanent
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent || apiErr.Code == "insufficient_quota"
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "billing")
}

// ExtractAPIError converts an SDK error into an APIError when it carries a 429
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	var sdkErr *openai.Error
	if !errors.As(err, &sdkErr) || sdkErr.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	apiErr := &APIError{
		StatusCode: sdkErr.StatusCode,
		Message:    sdkErr.Message,
		Type:       sdkErr.Type,
		Code:       sdkErr.Code,
	}
	if apiErr.Type == "" {
		apiErr.Type = "rate_limit_error"
	}
	if apiErr.Code == "insufficient_quota" {
		apiErr.IsPermanent = true
	}

	retryAfter := 60 * time.Second
	if apiErr.IsPermanent {
		retryAfter = time.Hour
	} else if sdkErr.Response != nil {
		if d, ok := parseRetryAfter(sdkErr.Response.Header.Get("Retry-After")); ok {
			retryAfter = d
		}
	}
	apiErr.RetryAfter = &retryAfter

	return apiErr
}

func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d, true
		}
	}
	return 0, false
}

// GetRetryDelay calculates the delay before retrying based on error type
func GetRetryDelay(err error, attempt int) time.Duration {
	shift := uint(min(max(attempt, 0), 10))

	if IsQuotaError(err) {
		// Quota errors: exponential backoff starting at 1 hour
		return min(time.Hour*time.Duration(1<<shift), 24*time.Hour)
	}

	if IsRateLimitError(err) {
		// Rate limit errors: exponential backoff starting at 60 seconds
		delay := min(60*time.Second*time.Duration(1<<shift), 15*time.Minute)

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter != nil && *apiErr.RetryAfter > delay {
			delay = *apiErr.RetryAfter
		}
		return delay
	}

	// Default: exponential backoff starting at 5 seconds
	return min(5*time.Second*time.Duration(1<<shift), 5*time.Minute)
}
