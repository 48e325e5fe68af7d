package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcpcp/mcpcp/pkg/auth"
	"github.com/mcpcp/mcpcp/pkg/config"
	mcpcphttp "github.com/mcpcp/mcpcp/pkg/http"
	"github.com/mcpcp/mcpcp/pkg/proxy"
	"github.com/mcpcp/mcpcp/pkg/upstream"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the proxy",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "mcpcp.yaml", "path to the configuration file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}

	publicKeyPEM, err := cfg.PublicKeyPEM()
	if err != nil {
		return err
	}
	verifier, err := auth.NewVerifier(publicKeyPEM, cfg.Auth.Issuer, cfg.Auth.Audience)
	if err != nil {
		return err
	}

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}
	table, err := cfg.PolicyTable()
	if err != nil {
		return err
	}

	dialer := &upstream.StreamableDialer{ClientName: "mcpcp", ClientVersion: version}
	aggregator := proxy.NewAggregator(table, registry, dialer, logger)
	router := proxy.NewRouter(table, registry, dialer, logger)

	handler := mcpcphttp.NewHandler(
		mcpcphttp.ServerConfig{Name: "MCPCP", Version: version},
		verifier, aggregator, router, registry, logger,
	)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("proxy listening",
			"addr", cfg.Listen,
			"providers", len(registry.Names()),
			"callers", table.Callers(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
