package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HTTPMiddleware records RED metrics and a span for every request.
type HTTPMiddleware struct {
	telemetry *Telemetry
	// route reports the low cardinality route pattern of r, if any.
	route func(r *http.Request) string
}

// NewHTTPMiddleware creates a new HTTP middleware for telemetry. route may be
// nil, in which case the raw path is used.
func NewHTTPMiddleware(telemetry *Telemetry, route func(r *http.Request) string) *HTTPMiddleware {
	return &HTTPMiddleware{telemetry: telemetry, route: route}
}

func (m *HTTPMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.telemetry == nil {
			next.ServeHTTP(w, r)

			return
		}

		start := time.Now()

		m.telemetry.IncrementHTTPInFlight(r.Context())
		defer m.telemetry.DecrementHTTPInFlight(r.Context())

		ctx, span := m.telemetry.Tracer().Start(r.Context(), "http_request")
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.user_agent", r.UserAgent()),
		)

		rw := newStatusRecorder(w)

		r = r.WithContext(ctx)
		next.ServeHTTP(rw, r)

		path := r.URL.Path
		if m.route != nil {
			if p := m.route(r); p != "" {
				path = p
			}
		}

		span.SetAttributes(
			attribute.String("http.route", path),
			attribute.Int("http.status_code", rw.status),
			attribute.Int64("http.response_size", rw.bytesWritten),
		)

		if rw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(rw.status))
		}

		m.telemetry.RecordHTTPRequest(ctx, r.Method, path, statusClass(rw.status), time.Since(start))
	})
}

// statusClass returns 2xx, 3xx, 4xx or 5xx for code.
func statusClass(code int) string {
	switch {
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		return "2xx"
	case code >= http.StatusMultipleChoices && code < http.StatusBadRequest:
		return "3xx"
	case code >= http.StatusBadRequest && code < http.StatusInternalServerError:
		return "4xx"
	case code >= http.StatusInternalServerError:
		return "5xx"
	default:
		return "unknown"
	}
}
