package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpadapter "github.com/kirillkom/rationale-rag/internal/adapters/http"
	"github.com/kirillkom/rationale-rag/internal/bootstrap"
	"github.com/kirillkom/rationale-rag/internal/core/domain"
)

func runServe(_ *cobra.Command, _ []string) error {
	variant, err := domain.ParseVariant(pipelineName)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, bootstrap.Options{Variant: variant, Logger: logger, ConnectQueue: true})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	if err := app.Pipeline.Initialize(ctx, cfg.DocumentsDir, false, ""); err != nil {
		// POST /v1/index retries initialization.
		logger.Error("initialize_failed", "error", err)
	}

	if app.Queue != nil {
		go func() {
			if err := app.Queue.SubscribeReindex(ctx, app.ReindexHandler()); err != nil {
				logger.Error("reindex_subscription_failed", "error", err)
			}
		}()
	}

	router := httpadapter.NewRouter(cfg, app.Pipeline, app.Queue, app.HTTPMetrics, logger).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api_listening", "port", cfg.APIPort, "variant", variant)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
	return nil
}
