package middleware

import (
	"net/http"

	"go.uber.org/zap"

	logpkg "github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/request"
)

// Audit logs security-related events for monitoring and compliance
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			fields := func() []zap.Field {
				return []zap.Field{
					zap.Int("status_code", wrapped.statusCode),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
					zap.String("request_id", request.RequestID(r.Context())),
				}
			}

			switch wrapped.statusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				logger.Warn("security_event", fields()...)
			case http.StatusTooManyRequests:
				logger.Warn("rate_limit_violation", fields()...)
			}

			// Deletions are destructive and always audited
			if r.Method == http.MethodDelete && wrapped.statusCode < http.StatusBadRequest {
				logger.Info("audit_delete", fields()...)
			}
		})
	}
}
