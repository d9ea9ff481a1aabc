package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mediafold/mediafold"
	mediafoldhttp "github.com/mediafold/mediafold/http"
	"github.com/mediafold/mediafold/keybackend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway HTTP server",
	Long: `Start the mediafold HTTP server: the capability-protected read proxy
and the credential-protected management API.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}

	v, closeDB, err := buildVault(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	secret, err := keybackend.LoadSigningSecret(cfg.Capability.Secret)
	if err != nil {
		return fmt.Errorf("load signing secret: %w", err)
	}

	credentials, err := keybackend.NewCredentialStore(cfg.Auth.Credentials)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	var translator *mediafold.AddressTranslator
	if cfg.Address.Internal != "" || cfg.Address.External != "" {
		translator = mediafold.NewAddressTranslator(cfg.Address.Internal, cfg.Address.External)
	}

	handler := mediafoldhttp.NewHandler(mediafoldhttp.HandlerConfig{
		Service:            v,
		Verifier:           mediafold.NewVerifier(secret, cfg.Capability.Skew),
		Auth:               mediafoldhttp.BasicAuthConfig{Credentials: credentials},
		Translator:         translator,
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableMetrics:      cfg.Server.Metrics,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "public_base_url", cfg.Server.PublicBaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
