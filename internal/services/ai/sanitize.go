package ai

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Context key types for logging (to avoid collisions with string keys)
type contextKey string

const (
	userIDContextKey contextKey = "user_id"
	jobIDContextKey  contextKey = "job_id"
)

// UserIDContextKey returns the context key for user ID
func UserIDContextKey() contextKey {
	return userIDContextKey
}

// JobIDContextKey returns the context key for the queue job ID
func JobIDContextKey() contextKey {
	return jobIDContextKey
}

const (
	// MaxPreviewLength is the maximum length for preview strings in logs
	MaxPreviewLength = 200
	// MaxDebugLength caps full-content logging in debug mode
	MaxDebugLength = 10000
	// RedactedValue is the value used to replace sensitive data
	RedactedValue = "[REDACTED]"
)

// SanitizeAPIKey sanitizes an API key for logging
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePreview creates a log-safe preview of prompt or response text.
// fullLog raises the length cap but control characters are always stripped.
func SanitizePreview(s string, fullLog bool) string {
	if s == "" {
		return ""
	}
	maxLen := MaxPreviewLength
	if fullLog {
		maxLen = MaxDebugLength
	}
	return sanitizeStringForLogging(s, maxLen)
}

// sanitizeStringForLogging removes control characters, validates UTF-8, and truncates
func sanitizeStringForLogging(s string, maxLen int) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			builder.WriteRune(r)
		}
	}

	return TruncateString(builder.String(), maxLen)
}

// TruncateString truncates s to at most maxLen runes
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}

func contextString(ctx context.Context, key contextKey) string {
	switch v := ctx.Value(key).(type) {
	case string:
		return v
	case interface{ String() string }:
		return v.String()
	}
	return ""
}

// ExtractUserID extracts a user ID from context if available
func ExtractUserID(ctx context.Context) string {
	return contextString(ctx, userIDContextKey)
}

// ExtractJobID extracts a queue job ID from context if available
func ExtractJobID(ctx context.Context) string {
	return contextString(ctx, jobIDContextKey)
}
