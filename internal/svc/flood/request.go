package flood

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/italolelis/flood_bridge/internal/logctx"
	"go.uber.org/ratelimit"
)

// maxLoggedBody bounds how much of an error response ends up in debug logs.
const maxLoggedBody = 512

// Observer receives session lifecycle events.
type Observer interface {
	RecordLogin(ctx context.Context, status string)
	RecordSessionInvalidated(ctx context.Context)
}

type noopObserver struct{}

func (noopObserver) RecordLogin(context.Context, string)      {}
func (noopObserver) RecordSessionInvalidated(context.Context) {}

type response struct {
	body    []byte
	cookies []*http.Cookie
}

// transport executes requests against Flood and applies the error policy
// shared by every call, login included.
type transport struct {
	client   *http.Client
	limiter  ratelimit.Limiter
	sessions *SessionCache
	observer Observer
}

// newBaseRequest builds an unsigned request to the Flood API. Basic auth is
// always attached; Flood accepts it alongside or instead of the cookie.
func newBaseRequest(ctx context.Context, s Settings, method, resource string, payload any) (*http.Request, error) {
	var body io.Reader

	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}

		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.apiURL(resource), body)
	if err != nil {
		return nil, &ConnectivityError{Operation: resource, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(s.Username, s.Password)

	return req, nil
}

// attachToken sets every cookie of token on req in a stable order.
func attachToken(req *http.Request, token Token) {
	names := make([]string, 0, len(token))
	for name := range token {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		req.AddCookie(&http.Cookie{Name: name, Value: token[name]})
	}
}

// do executes req. 401 and 403 purge the session of s and surface as
// AuthenticationError; every other failure becomes a ConnectivityError and
// the response body is dropped.
func (t *transport) do(req *http.Request, s Settings, operation string) (*response, error) {
	ctx := req.Context()
	logger := logctx.LoggerFromContext(ctx).With("operation", operation, "method", req.Method)

	t.limiter.Take()

	resp, err := t.client.Do(req)
	if err != nil {
		logger.ErrorContext(ctx, "request to Flood failed", "err", err)

		return nil, &ConnectivityError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		t.sessions.Invalidate(s.Identity())
		t.observer.RecordSessionInvalidated(ctx)

		logger.WarnContext(ctx, "Flood rejected the session, cached cookies dropped",
			"status", resp.StatusCode, "identity", s.Identity().String())

		return nil, &AuthenticationError{
			Operation: operation,
			Err:       fmt.Errorf("unexpected status %s", resp.Status),
		}
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		logger.ErrorContext(ctx, "non-2xx response from Flood", "status", resp.StatusCode)
		logger.DebugContext(ctx, "discarded response body", "body", truncate(body, maxLoggedBody))

		return nil, &ConnectivityError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	case readErr != nil:
		logger.ErrorContext(ctx, "failed to read response body", "err", readErr)

		return nil, &ConnectivityError{Operation: operation, StatusCode: resp.StatusCode, Err: readErr}
	}

	return &response{body: body, cookies: resp.Cookies()}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}

	return string(b[:n]) + "..."
}
