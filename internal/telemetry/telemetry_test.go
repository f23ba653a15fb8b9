package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/italolelis/flood_bridge/internal/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilTelemetryIsNoop(t *testing.T) {
	var tel *Telemetry

	ctx := context.Background()

	assert.NotPanics(t, func() {
		tel.RecordLogin(ctx, "success")
		tel.RecordSessionInvalidated(ctx)
		tel.RecordGrab(ctx, "magnet", "success")
		tel.RecordClientOperation(ctx, "Flood", "items", "error", time.Second)
		tel.RecordDBOperation(ctx, "track_grab", "success", time.Millisecond)
		tel.RecordHTTPRequest(ctx, http.MethodGet, "/", "2xx", time.Millisecond)
	})

	wantErr := errors.New("boom")
	err := tel.InstrumentClientOperation(ctx, "Flood", "items", func(context.Context) error { return wantErr })
	assert.ErrorIs(t, err, wantErr)

	require.NoError(t, tel.Shutdown(ctx))
}

func TestDisabledTelemetry(t *testing.T) {
	tel, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	called := false
	err = tel.InstrumentDBOperation(context.Background(), "get_grabs", func(context.Context) error {
		called = true

		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		http.StatusOK:                  "2xx",
		http.StatusNoContent:           "2xx",
		http.StatusFound:               "3xx",
		http.StatusUnauthorized:        "4xx",
		http.StatusBadGateway:          "5xx",
		http.StatusInternalServerError: "5xx",
		100:                            "unknown",
	}

	for code, want := range tests {
		assert.Equal(t, want, statusClass(code), "code %d", code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string

	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "upstream-id")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "upstream-id", seen)
		assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))
	})

	assert.Empty(t, GetRequestID(context.Background()))
}

func TestHTTPLogging(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusOK, "INFO"},
		{"client error", http.StatusUnauthorized, "WARN"},
		{"server error", http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			h := HTTPLogging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.WriteHeader(http.StatusTeapot)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
			req = req.WithContext(logctx.WithLogger(req.Context(), logger))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, buf.String(), `"level":"`+tt.wantLevel+`"`)
			assert.Contains(t, buf.String(), `"path":"/api/v1/items"`)
		})
	}
}

func TestHTTPMiddlewarePassesThrough(t *testing.T) {
	h := NewHTTPMiddleware(&Telemetry{}, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
