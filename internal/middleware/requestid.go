package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ticvision/ticvision/internal/request"
)

const maxRequestIDLength = 128

// RequestID assigns a correlation ID, honouring a sane inbound X-Request-ID
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(request.RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength || !printableASCII(id) {
			id = uuid.NewString()
		}
		w.Header().Set(request.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(request.WithRequestID(r.Context(), id)))
	})
}

func printableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
