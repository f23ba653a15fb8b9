package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/italolelis/flood_bridge/internal/config"
	"github.com/italolelis/flood_bridge/internal/dc"
	dcflood "github.com/italolelis/flood_bridge/internal/dc/flood"
	"github.com/italolelis/flood_bridge/internal/logctx"
	"github.com/italolelis/flood_bridge/internal/storage/sqlite"
	"github.com/italolelis/flood_bridge/internal/svc/flood"
	"github.com/italolelis/flood_bridge/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// app holds the long lived components shared by every command.
type app struct {
	cfg       *config.Config
	telemetry *telemetry.Telemetry
	client    dc.DownloadClient
	db        *sql.DB
	grabs     *sqlite.InstrumentedGrabRepository
}

func newApp(ctx context.Context, cfg *config.Config, withStorage bool) (*app, error) {
	logger := logctx.LoggerFromContext(ctx)

	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		OTLPInterval:   cfg.Telemetry.OTLPInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	a := &app{cfg: cfg, telemetry: tel}

	settings := cfg.FloodSettings()
	if err := settings.Validate(); err != nil {
		logger.WarnContext(ctx, "Flood settings look invalid", "err", err)
	}

	httpClient := &http.Client{
		Timeout:   cfg.Flood.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	// one cache for the whole process, shared by every proxy call
	proxy := flood.NewProxy(flood.NewSessionCache(),
		flood.WithHTTPClient(httpClient),
		flood.WithRateLimit(cfg.Flood.RateLimit),
		flood.WithObserver(tel),
	)

	a.client = dc.NewInstrumentedClient(dcflood.NewClient(proxy, settings), tel)

	if withStorage {
		db, err := sqlite.InitDB(cfg.DBPath)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to initialize database: %w", err), tel.Shutdown(ctx))
		}

		a.db = db
		a.grabs = sqlite.NewInstrumentedGrabRepository(db, tel)
	}

	logger.DebugContext(ctx, "application initialized",
		"flood_url", settings.URL,
		"tag", settings.Tag,
		"rate_limit", cfg.Flood.RateLimit,
	)

	return a, nil
}

func (a *app) Close(ctx context.Context) error {
	var errs []error

	if a.db != nil {
		errs = append(errs, a.db.Close())
	}

	errs = append(errs, a.telemetry.Shutdown(ctx))

	return errors.Join(errs...)
}
