package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/italolelis/flood_bridge/internal/config"
	"github.com/italolelis/flood_bridge/internal/logctx"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "flood_bridge",
		Short:   "Authenticated bridge between *arr style clients and the Flood torrent UI",
		Version: version,
		Long: `flood_bridge talks to a Flood instance on behalf of its callers. It keeps the
Flood session cookie, logs in again whenever Flood rejects it, and reports torrents
as download items with a normalised status.

Configuration is read from the environment (FLOOD_URL, FLOOD_USERNAME,
FLOOD_PASSWORD, FLOOD_TAG, ...).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				slog.Error("config error", "err", err)

				return err
			}

			logger := logctx.NewJSONLogger(os.Stdout, cfg.SlogLevel())
			slog.SetDefault(logger)

			ctx := logctx.WithLogger(cmd.Context(), logger)
			ctx = context.WithValue(ctx, configKey{}, cfg)
			cmd.SetContext(ctx)

			return nil
		},
	}

	serve := newServeCmd()

	root.AddCommand(serve, newTestCmd(), newListCmd())

	// no subcommand means serve
	root.RunE = serve.RunE

	return root
}

type configKey struct{}

func configFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}

	return cfg, nil
}
