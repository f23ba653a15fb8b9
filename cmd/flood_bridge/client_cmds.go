package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/italolelis/flood_bridge/internal/logctx"
	"github.com/spf13/cobra"
)

var errTestFailed = errors.New("connection test failed")

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check that Flood accepts the configured settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				failures := a.client.Test(ctx)

				out := cmd.OutOrStdout()

				if len(failures) == 0 {
					fmt.Fprintf(out, "%s: connection OK\n", a.client.Name())

					return nil
				}

				for _, f := range failures {
					fmt.Fprintf(out, "%s: %s\n", f.Field, f.Message)
				}

				return errTestFailed
			})
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the torrents known to Flood",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				items, err := a.client.Items(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSTATUS\tSIZE\tREMAINING\tCATEGORY\tTITLE")

				for _, it := range items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						it.DownloadID,
						it.Status,
						humanize.Bytes(uint64(max(it.TotalSize, 0))),
						humanize.Bytes(uint64(max(it.RemainingSize, 0))),
						it.Category,
						it.Title,
					)
				}

				return w.Flush()
			})
		},
	}
}

// withApp runs fn against an app without storage and releases it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()

	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}

	defer func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			logctx.LoggerFromContext(ctx).ErrorContext(ctx, "failed to release resources", "err", err)
		}
	}()

	return fn(ctx, a)
}
