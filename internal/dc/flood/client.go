package flood

import (
	"cmp"
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/italolelis/flood_bridge/internal/dc"
	"github.com/italolelis/flood_bridge/internal/logctx"
	floodapi "github.com/italolelis/flood_bridge/internal/svc/flood"
)

const clientName = "Flood"

// Proxy is the subset of the Flood API the client needs.
type Proxy interface {
	AuthVerify(ctx context.Context, s floodapi.Settings) error
	AddTorrentByURL(ctx context.Context, url string, s floodapi.Settings) error
	AddTorrentByFile(ctx context.Context, file string, s floodapi.Settings) error
	DeleteTorrent(ctx context.Context, hash string, deleteData bool, s floodapi.Settings) error
	GetTorrents(ctx context.Context, s floodapi.Settings) (map[string]floodapi.Torrent, error)
}

// Client is the Flood download client.
type Client struct {
	proxy    Proxy
	settings floodapi.Settings
}

// Ensure Client implements DownloadClient
var _ dc.DownloadClient = (*Client)(nil)

func NewClient(proxy Proxy, settings floodapi.Settings) *Client {
	return &Client{proxy: proxy, settings: settings}
}

func (c *Client) Name() string {
	return clientName
}

// AddFromMagnetLink hands the link to Flood. Flood does not report the hash it
// assigned, so the caller supplied hash is echoed back.
func (c *Client) AddFromMagnetLink(ctx context.Context, hash, magnetLink string) (string, error) {
	if magnetLink == "" {
		return "", &dc.InvalidContentError{Field: "magnetLink", Reason: "empty link"}
	}

	if err := c.proxy.AddTorrentByURL(ctx, magnetLink, c.settings); err != nil {
		return "", fmt.Errorf("failed to add magnet link: %w", err)
	}

	return hash, nil
}

// AddFromTorrentFile uploads the .torrent content and echoes hash back.
func (c *Client) AddFromTorrentFile(ctx context.Context, hash, filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", &dc.InvalidContentError{Field: "content", Reason: "empty torrent file " + filename}
	}

	logger := logctx.LoggerFromContext(ctx).With("filename", filename, "hash", hash)

	logger.DebugContext(ctx, "uploading torrent file to Flood", "size", humanize.Bytes(uint64(len(content))))

	if err := c.proxy.AddTorrentByFile(ctx, base64.StdEncoding.EncodeToString(content), c.settings); err != nil {
		return "", fmt.Errorf("failed to add torrent file: %w", err)
	}

	return hash, nil
}

// Items lists every torrent in Flood, sorted by title.
func (c *Client) Items(ctx context.Context) ([]dc.DownloadItem, error) {
	logger := logctx.LoggerFromContext(ctx)

	torrents, err := c.proxy.GetTorrents(ctx, c.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to get torrents: %w", err)
	}

	items := make([]dc.DownloadItem, 0, len(torrents))

	var remaining int64

	for hash, t := range torrents {
		item := c.toDownloadItem(hash, t)
		remaining += item.RemainingSize
		items = append(items, item)
	}

	slices.SortFunc(items, func(a, b dc.DownloadItem) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.DownloadID, b.DownloadID))
	})

	logger.DebugContext(ctx, "fetched download items", "count", len(items), "remaining", humanize.Bytes(uint64(max(remaining, 0))))

	return items, nil
}

// RemoveItem deletes the torrent, and its data when deleteData is set.
func (c *Client) RemoveItem(ctx context.Context, downloadID string, deleteData bool) error {
	if err := c.proxy.DeleteTorrent(ctx, downloadID, deleteData, c.settings); err != nil {
		return fmt.Errorf("failed to remove torrent: %w", err)
	}

	return nil
}

// Status reports Flood as local; no remote path mapping applies by default.
func (c *Client) Status(context.Context) dc.ClientInfo {
	return dc.ClientInfo{IsLocalhost: true}
}

// Test checks the settings against Flood. Rejected credentials are reported
// against the Password field, anything else against URL.
func (c *Client) Test(ctx context.Context) []dc.ValidationFailure {
	logger := logctx.LoggerFromContext(ctx)

	if err := c.settings.Validate(); err != nil {
		return []dc.ValidationFailure{{Field: "URL", Message: err.Error()}}
	}

	err := c.proxy.AuthVerify(ctx, c.settings)
	if err == nil {
		return []dc.ValidationFailure{}
	}

	logger.WarnContext(ctx, "Flood connection test failed", "err", err)

	if floodapi.IsAuthenticationError(err) {
		return []dc.ValidationFailure{{Field: "Password", Message: err.Error()}}
	}

	return []dc.ValidationFailure{{Field: "URL", Message: err.Error()}}
}

func (c *Client) toDownloadItem(hash string, t floodapi.Torrent) dc.DownloadItem {
	item := dc.DownloadItem{
		Client:        dc.ClientDescriptor{Name: clientName, Type: "flood"},
		DownloadID:    strings.ToLower(hash),
		Title:         t.Name,
		OutputPath:    t.Directory,
		TotalSize:     t.SizeBytes,
		RemainingSize: t.SizeBytes - t.BytesDone,
		SeedRatio:     t.Ratio,
		Status:        MapStatus(t.Status),
		Message:       t.Message,
		CanBeRemoved:  true,
		CanMoveFiles:  true,
	}

	if len(t.Tags) > 0 {
		item.Category = t.Tags[0]
	}

	// Flood reports -1 when the ETA is unknown
	if t.Eta >= 0 {
		eta := time.Duration(t.Eta * float64(time.Second))
		item.RemainingTime = &eta
	}

	return item
}
