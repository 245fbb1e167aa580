package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/rationale-rag/internal/core/ports"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/queue/nats"
)

func runReindex(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.NATSURL == "" {
		return errors.New("NATS_URL is required to publish reindex requests")
	}

	retry := false
	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		RetryOnFailedConnect: &retry,
		Logger:               newLogger(cfg),
	})
	if err != nil {
		return err
	}
	defer queue.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := ports.ReindexRequest{FileName: reindexFileName, Reinitialize: reindexFull}
	if err := queue.PublishReindex(ctx, req); err != nil {
		return fmt.Errorf("publish reindex: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "reindex requested on %s\n", cfg.NATSSubject)
	return nil
}
