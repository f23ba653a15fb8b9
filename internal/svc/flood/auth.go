package flood

import (
	"context"
	"maps"
	"net/http"

	"github.com/italolelis/flood_bridge/internal/logctx"
	"golang.org/x/sync/singleflight"
)

const (
	authenticatePath = "/auth/authenticate"
	verifyPath       = "/auth/verify"
)

// Authenticator obtains session tokens and keeps them in the SessionCache.
type Authenticator struct {
	*transport

	group singleflight.Group
}

// EnsureToken returns the cached token for the identity of s, logging in when
// none is cached or forceRefresh is set.
func (a *Authenticator) EnsureToken(ctx context.Context, s Settings, forceRefresh bool) (Token, error) {
	if !forceRefresh {
		if token, ok := a.sessions.Get(s.Identity()); ok {
			return token, nil
		}
	}

	return a.login(ctx, s)
}

// Verify issues an authenticated GET against the verification endpoint.
func (a *Authenticator) Verify(ctx context.Context, s Settings) error {
	req, err := a.signedRequest(ctx, s, http.MethodGet, verifyPath, nil)
	if err != nil {
		return err
	}

	_, err = a.do(req, s, "auth.verify")

	return err
}

// login posts the credentials and caches the returned cookies. Concurrent
// logins for the same identity and password share one round-trip.
func (a *Authenticator) login(ctx context.Context, s Settings) (Token, error) {
	key := s.Identity().String() + "\x00" + s.Password

	ch := a.group.DoChan(key, func() (any, error) {
		return a.authenticate(context.WithoutCancel(ctx), s)
	})

	select {
	case <-ctx.Done():
		return nil, &ConnectivityError{Operation: "auth.authenticate", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		// every waiter gets its own copy
		return maps.Clone(res.Val.(Token)), nil
	}
}

func (a *Authenticator) authenticate(ctx context.Context, s Settings) (Token, error) {
	logger := logctx.LoggerFromContext(ctx).With("method", "auth.authenticate", "identity", s.Identity().String())

	body := map[string]string{
		"username": s.Username,
		"password": s.Password,
	}

	req, err := newBaseRequest(ctx, s, http.MethodPost, authenticatePath, body)
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "logging in to Flood")

	resp, err := a.do(req, s, "auth.authenticate")
	if err != nil {
		a.observer.RecordLogin(ctx, "error")

		return nil, err
	}

	token := tokenFromCookies(resp.cookies)
	a.sessions.Put(s.Identity(), token)
	a.observer.RecordLogin(ctx, "success")

	logger.DebugContext(ctx, "logged in to Flood", "cookies", len(token))

	return token, nil
}

// signedRequest builds a request and attaches the session cookies for s.
func (a *Authenticator) signedRequest(ctx context.Context, s Settings, method, resource string, payload any) (*http.Request, error) {
	req, err := newBaseRequest(ctx, s, method, resource, payload)
	if err != nil {
		return nil, err
	}

	token, err := a.EnsureToken(ctx, s, false)
	if err != nil {
		return nil, err
	}

	attachToken(req, token)

	return req, nil
}
