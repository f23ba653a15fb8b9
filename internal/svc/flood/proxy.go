package flood

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/italolelis/flood_bridge/internal/logctx"
	"go.uber.org/ratelimit"
)

const (
	torrentsPath        = "/torrents"
	torrentsAddURLsPath = "/torrents/add-urls"
	torrentsAddFilePath = "/torrents/add-files"
	torrentsDeletePath  = "/torrents/delete"
)

// Option configures a Proxy.
type Option func(*transport)

// WithHTTPClient sets the client used for every request to Flood.
func WithHTTPClient(c *http.Client) Option {
	return func(t *transport) {
		t.client = c
	}
}

// WithRateLimit caps outbound requests per second. Zero or less disables it.
func WithRateLimit(perSecond int) Option {
	return func(t *transport) {
		if perSecond > 0 {
			t.limiter = ratelimit.New(perSecond)
		}
	}
}

// WithObserver registers o for login and session invalidation events.
func WithObserver(o Observer) Option {
	return func(t *transport) {
		if o != nil {
			t.observer = o
		}
	}
}

// Proxy exposes the Flood API operations. An auth rejection clears the cached
// session and is returned as is; the next call logs in again.
type Proxy struct {
	auth *Authenticator
}

// NewProxy creates a proxy backed by sessions.
func NewProxy(sessions *SessionCache, opts ...Option) *Proxy {
	t := &transport{
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  ratelimit.NewUnlimited(),
		sessions: sessions,
		observer: noopObserver{},
	}

	for _, opt := range opts {
		opt(t)
	}

	return &Proxy{auth: &Authenticator{transport: t}}
}

// Authenticator returns the authenticator the proxy signs requests with.
func (p *Proxy) Authenticator() *Authenticator {
	return p.auth
}

// AuthVerify checks that Flood accepts the session and credentials of s.
func (p *Proxy) AuthVerify(ctx context.Context, s Settings) error {
	return p.auth.Verify(ctx, s)
}

// AddTorrentByURL adds a magnet link or torrent URL. Flood does not answer with
// the hash of the new torrent, so nothing is returned on success.
func (p *Proxy) AddTorrentByURL(ctx context.Context, url string, s Settings) error {
	logger := logctx.LoggerFromContext(ctx).With("method", "torrents.add-urls")

	body := addURLsRequest{
		URLs:        []string{url},
		Destination: destination(s),
		Tags:        tags(s),
		Start:       s.StartOnAdd,
	}

	if err := p.post(ctx, s, torrentsAddURLsPath, "torrents.add-urls", body); err != nil {
		return err
	}

	logger.InfoContext(ctx, "torrent url added to Flood", "tag", s.Tag)

	return nil
}

// AddTorrentByFile adds a base64 encoded .torrent file.
func (p *Proxy) AddTorrentByFile(ctx context.Context, file string, s Settings) error {
	logger := logctx.LoggerFromContext(ctx).With("method", "torrents.add-files")

	body := addFilesRequest{
		Files:       []string{file},
		Destination: destination(s),
		Tags:        tags(s),
		Start:       s.StartOnAdd,
	}

	if err := p.post(ctx, s, torrentsAddFilePath, "torrents.add-files", body); err != nil {
		return err
	}

	logger.InfoContext(ctx, "torrent file added to Flood", "tag", s.Tag, "size_bytes", len(file))

	return nil
}

// DeleteTorrent removes the torrent with the given hash, optionally with its data.
func (p *Proxy) DeleteTorrent(ctx context.Context, hash string, deleteData bool, s Settings) error {
	logger := logctx.LoggerFromContext(ctx).With("method", "torrents.delete", "hash", hash)

	body := deleteRequest{
		Hashes:     []string{hash},
		DeleteData: deleteData,
	}

	if err := p.post(ctx, s, torrentsDeletePath, "torrents.delete", body); err != nil {
		return err
	}

	logger.InfoContext(ctx, "torrent deleted from Flood", "delete_data", deleteData)

	return nil
}

// GetTorrents returns every torrent known to Flood keyed by hash.
func (p *Proxy) GetTorrents(ctx context.Context, s Settings) (map[string]Torrent, error) {
	const operation = "torrents.list"

	logger := logctx.LoggerFromContext(ctx).With("method", operation)

	req, err := p.auth.signedRequest(ctx, s, http.MethodGet, torrentsPath, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.auth.do(req, s, operation)
	if err != nil {
		return nil, err
	}

	var list TorrentList
	if err := json.Unmarshal(resp.body, &list); err != nil {
		logger.ErrorContext(ctx, "failed to decode torrent list", "err", err)

		return nil, &ConnectivityError{Operation: operation, Err: err}
	}

	if list.Torrents == nil {
		list.Torrents = map[string]Torrent{}
	}

	logger.DebugContext(ctx, "fetched torrents from Flood", "count", len(list.Torrents))

	return list.Torrents, nil
}

func (p *Proxy) post(ctx context.Context, s Settings, resource, operation string, body any) error {
	req, err := p.auth.signedRequest(ctx, s, http.MethodPost, resource, body)
	if err != nil {
		return err
	}

	_, err = p.auth.do(req, s, operation)

	return err
}

func destination(s Settings) *string {
	if s.Destination == "" {
		return nil
	}

	d := s.Destination

	return &d
}

func tags(s Settings) []string {
	if s.Tag == "" {
		return []string{}
	}

	return []string{s.Tag}
}
