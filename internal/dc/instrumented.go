package dc

import (
	"context"
	"errors"

	"github.com/italolelis/flood_bridge/internal/telemetry"
)

// InstrumentedClient wraps a DownloadClient with telemetry.
type InstrumentedClient struct {
	client    DownloadClient
	telemetry *telemetry.Telemetry
}

var _ DownloadClient = (*InstrumentedClient)(nil)

// NewInstrumentedClient creates a new instrumented download client.
func NewInstrumentedClient(client DownloadClient, tel *telemetry.Telemetry) *InstrumentedClient {
	return &InstrumentedClient{client: client, telemetry: tel}
}

func (c *InstrumentedClient) Name() string {
	return c.client.Name()
}

func (c *InstrumentedClient) AddFromMagnetLink(ctx context.Context, hash, magnetLink string) (string, error) {
	var id string

	err := c.instrument(ctx, "add_magnet", func(ctx context.Context) error {
		var err error
		id, err = c.client.AddFromMagnetLink(ctx, hash, magnetLink)

		return err
	})

	c.telemetry.RecordGrab(ctx, "magnet", statusOf(err))

	return id, err
}

func (c *InstrumentedClient) AddFromTorrentFile(ctx context.Context, hash, filename string, content []byte) (string, error) {
	var id string

	err := c.instrument(ctx, "add_torrent_file", func(ctx context.Context) error {
		var err error
		id, err = c.client.AddFromTorrentFile(ctx, hash, filename, content)

		return err
	})

	c.telemetry.RecordGrab(ctx, "torrent_file", statusOf(err))

	return id, err
}

func (c *InstrumentedClient) Items(ctx context.Context) ([]DownloadItem, error) {
	var items []DownloadItem

	err := c.instrument(ctx, "items", func(ctx context.Context) error {
		var err error
		items, err = c.client.Items(ctx)

		return err
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (c *InstrumentedClient) RemoveItem(ctx context.Context, downloadID string, deleteData bool) error {
	return c.instrument(ctx, "remove_item", func(ctx context.Context) error {
		return c.client.RemoveItem(ctx, downloadID, deleteData)
	})
}

func (c *InstrumentedClient) Status(ctx context.Context) ClientInfo {
	return c.client.Status(ctx)
}

func (c *InstrumentedClient) Test(ctx context.Context) []ValidationFailure {
	var failures []ValidationFailure

	_ = c.instrument(ctx, "test", func(ctx context.Context) error {
		failures = c.client.Test(ctx)
		if len(failures) > 0 {
			return errTestFailed
		}

		return nil
	})

	return failures
}

func (c *InstrumentedClient) instrument(ctx context.Context, operation string, fn telemetry.InstrumentedFunc) error {
	return c.telemetry.InstrumentClientOperation(ctx, c.client.Name(), operation, fn)
}

var errTestFailed = errors.New("connection test failed")

func statusOf(err error) string {
	if err != nil {
		return "error"
	}

	return "success"
}
