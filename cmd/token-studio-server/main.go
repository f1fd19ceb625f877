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

	"golang.org/x/sync/errgroup"

	"github.com/entrastudio/token-studio/internal/azurecli"
	"github.com/entrastudio/token-studio/internal/config"
	"github.com/entrastudio/token-studio/internal/issuer"
	"github.com/entrastudio/token-studio/internal/logging"
	"github.com/entrastudio/token-studio/internal/resolver"
	"github.com/entrastudio/token-studio/internal/server"
)

var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	logger.Info("token-studio-server starting",
		slog.String("version", Version),
		slog.String("listen", cfg.ListenAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := azurecli.New(cfg.AzPath, logger)

	creds := resolver.New(resolver.Options{
		TenantID:           cfg.TenantID,
		ClientID:           cfg.ClientID,
		ClientSecret:       cfg.ClientSecret,
		RedirectURI:        cfg.RedirectURI,
		KeyVaultURI:        cfg.KeyVaultURI,
		KeyVaultSecretName: cfg.KeyVaultSecret,
		KeyVaultCertName:   cfg.KeyVaultCert,
		LocalCertFile:      cfg.LocalCertFile,
		LocalCertPassword:  cfg.LocalCertPassword,
	}, cli, logger)

	iss := issuer.New(creds, logger)
	api := server.New(cli, creds, iss, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", slog.String("addr", cfg.ListenAddr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		return creds.Watch(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("token-studio-server stopped")

	return nil
}
