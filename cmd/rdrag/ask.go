package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/rationale-rag/internal/bootstrap"
	"github.com/kirillkom/rationale-rag/internal/config"
	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/core/ports"
)

func runAsk(cmd *cobra.Command, _ []string) error {
	variant, err := domain.ParseVariant(pipelineName)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if docsDir != "" {
		cfg.DocumentsDir = docsDir
	}

	out := cmd.OutOrStdout()
	for _, name := range credentialWarnings(cfg, variant) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s environment variable not set\n", name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, bootstrap.Options{Variant: variant, Logger: newLogger(cfg)})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	fmt.Fprintf(out, "Initializing %s pipeline with documents from %s...\n", pipelineName, cfg.DocumentsDir)
	if err := app.Pipeline.Initialize(ctx, cfg.DocumentsDir, reinitialize, fileName); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	if query != "" {
		return answerOnce(ctx, app.Pipeline, query, out)
	}
	return runREPL(ctx, app.Pipeline, cmd.InOrStdin(), out)
}

// credentialWarnings lists missing credentials relevant to the variant.
func credentialWarnings(cfg config.Config, variant domain.Variant) []string {
	var out []string
	for _, name := range cfg.MissingCredentials() {
		if name == "VOYAGE_API_KEY" && variant == domain.VariantSimple {
			continue
		}
		out = append(out, name)
	}
	return out
}

func answerOnce(ctx context.Context, pipeline ports.QueryPipeline, q string, out io.Writer) error {
	answer, err := pipeline.ProcessQuery(ctx, q)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n=== Response ===\n%s\n", answer)
	return nil
}

// runREPL answers one query per line until "exit" or EOF. Query failures are
// printed and the loop continues.
func runREPL(ctx context.Context, pipeline ports.QueryPipeline, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "\nEntering interactive mode. Type 'exit' to quit.")
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "\nEnter your query: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			return nil
		}
		if line == "" {
			continue
		}
		if err := answerOnce(ctx, pipeline, line, out); err != nil {
			fmt.Fprintf(out, "\nError: %v\n", err)
		}
	}
}
