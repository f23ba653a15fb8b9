package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/italolelis/flood_bridge/internal/cleanup"
	"github.com/italolelis/flood_bridge/internal/http/rest"
	"github.com/italolelis/flood_bridge/internal/logctx"
	"github.com/italolelis/flood_bridge/internal/notifier"
	"github.com/italolelis/flood_bridge/internal/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}

			a, err := newApp(ctx, cfg, true)
			if err != nil {
				return err
			}

			defer func() {
				if err := a.Close(context.WithoutCancel(ctx)); err != nil {
					logctx.LoggerFromContext(ctx).ErrorContext(ctx, "failed to release resources", "err", err)
				}
			}()

			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	logger := logctx.LoggerFromContext(ctx)
	cfg := a.cfg

	logger.InfoContext(ctx, "flood bridge starting...", "version", version, "log_level", cfg.LogLevel)

	if cfg.API.Username == "" && cfg.API.Password == "" {
		logger.WarnContext(ctx, "API_USERNAME and API_PASSWORD are empty, the API is unauthenticated")
	}

	var notif notifier.Notifier = notifier.Nop{}
	if cfg.DiscordWebhookURL != "" {
		notif = notifier.NewDiscordNotifier(cfg.DiscordWebhookURL)
	}

	scheduler, err := cleanup.NewScheduler(ctx, a.grabs, cfg.HistoryRetention, cfg.CleanupInterval)
	if err != nil {
		return err
	}

	server := a.newServer(ctx, rest.NewAPIHandler(cfg.API.Username, cfg.API.Password, a.client, a.grabs, notif))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(ctx, "Initializing API support", "host", cfg.Web.BindAddress)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.InfoContext(ctx, "start shutdown")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.ErrorContext(ctx, "failed to gracefully shutdown the server", "err", err)

			if err := server.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}

		return nil
	})

	return g.Wait()
}

// newServer prepares the router and the http server around the API handler.
func (a *app) newServer(ctx context.Context, api *rest.APIHandler) *http.Server {
	routePattern := func(r *http.Request) string {
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			return rctx.RoutePattern()
		}

		return ""
	}

	r := chi.NewRouter()
	r.Use(
		telemetry.RequestID,
		telemetry.HTTPLogging,
		telemetry.NewHTTPMiddleware(a.telemetry, routePattern).Middleware,
	)

	r.Handle("/metrics", a.telemetry.Handler())
	r.Mount("/api/v1", api.Routes())

	return &http.Server{
		Addr:         a.cfg.Web.BindAddress,
		ReadTimeout:  a.cfg.Web.ReadTimeout,
		WriteTimeout: a.cfg.Web.WriteTimeout,
		IdleTimeout:  a.cfg.Web.IdleTimeout,
		Handler:      r,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}
