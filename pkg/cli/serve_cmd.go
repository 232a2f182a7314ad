package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tenantsql/internal/api"
	"tenantsql/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rewrite API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.ListenAddr = listen
			}
			for _, w := range a.cfg.Warnings {
				a.logger.Warn(w)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", a.cfg.ListenAddr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", a.cfg.ListenAddr, err)
			}
			return serve(ctx, a, ln)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from LISTEN_ADDR)")
	return cmd
}

// serve runs the API on ln until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, a *app, ln net.Listener) error {
	if !a.cfg.Auth.Enabled() {
		_ = ln.Close()
		return errors.New("authentication is not configured; set JWT_SECRET or AUTH_ISSUER_URL")
	}
	validator, err := middleware.NewValidator(ctx, a.cfg.Auth)
	if err != nil {
		_ = ln.Close()
		return err
	}

	handler := api.NewRouter(ctx, api.RouterConfig{
		Handler:   api.NewHandler(a.rewriter(), a.cfg.Tenant.Mode, a.logger),
		Validator: validator,
		Policy:    a.cfg.Tenant.Policy(),
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: a.cfg.RateLimitRPS,
			Burst:             a.cfg.RateLimitBurst,
		},
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
		Logger:         a.logger,
	})

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("HTTP API listening", "addr", ln.Addr().String(), "tenant_mode", a.cfg.Tenant.Mode)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
