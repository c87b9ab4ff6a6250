package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"tripdesk/internal/service"
	"tripdesk/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// responseWrapper captures the status code and body size written by a
// handler so the access log can report them.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWrapper) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Observability wraps each request with a span, a request id, and a
// structured access log line. The request id is echoed in the
// X-Request-ID response header for client-side correlation.
func Observability(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx, span := tracing.WithSpanContext(r.Context(), r.Method+" "+r.URL.Path)
			defer span.End()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = tracing.GenerateRequestID()
			}
			ctx = tracing.WithRequestID(ctx, requestID)
			ctx = tracing.WithStartTime(ctx, start)
			w.Header().Set("X-Request-ID", requestID)

			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.request_id", requestID),
			)

			wrapped := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			duration := time.Since(start)
			span.SetAttributes(attribute.Int("http.status_code", wrapped.statusCode))
			if wrapped.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(wrapped.statusCode))
			}

			entry := logger.WithFields(logrus.Fields{
				service.LogFieldRequestID:  requestID,
				service.LogFieldMethod:     r.Method,
				service.LogFieldURL:        r.URL.Path,
				service.LogFieldStatusCode: wrapped.statusCode,
				service.LogFieldRemoteIP:   ClientIP(r),
				service.LogFieldUserAgent:  r.UserAgent(),
				service.LogFieldDuration:   duration.Milliseconds(),
			})
			if traceID := tracing.GetTraceID(ctx); traceID != "" {
				entry = entry.WithField(service.LogFieldTraceID, traceID)
			}

			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				entry.Error("Request failed")
			case wrapped.statusCode >= http.StatusBadRequest:
				entry.Warn("Request rejected")
			default:
				entry.Info("Request completed")
			}
		})
	}
}

// ClientIP extracts the originating client address, preferring proxy
// headers over the socket peer. X-Forwarded-For chains use the first hop.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ips := strings.Split(xff, ","); len(ips) > 0 {
			if ip := strings.TrimSpace(ips[0]); ip != "" {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
