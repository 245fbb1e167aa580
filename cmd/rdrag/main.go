package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/rationale-rag/internal/config"
	"github.com/kirillkom/rationale-rag/internal/observability/logging"
)

var (
	version = "dev"

	// Global flags
	logLevel string

	// ask flags
	pipelineName string
	docsDir      string
	fileName     string
	query        string
	reinitialize bool

	// reindex flags
	reindexFileName string
	reindexFull     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "rdrag",
	Short:        "Rationale-driven retrieval-augmented answering over a document folder",
	Version:      version,
	SilenceUsage: true,
}

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Index documents and answer queries interactively",
	Long: `Initialize the selected pipeline over a documents directory, then answer
one query or enter an interactive loop.

Examples:
  # Rationale-driven pipeline over ./documents, interactive
  rdrag ask

  # One-shot query with the reranker variant
  rdrag ask --pipeline reranker --query "How are refunds processed?"

  # Rebuild the index from a single file
  rdrag ask --file-name handbook.pdf --reinitialize`,
	RunE: runAsk,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query API and consume reindex requests",
	RunE:  runServe,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Publish a reindex request to running servers",
	RunE:  runReindex,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&pipelineName, "pipeline", "rd_rag", "pipeline variant: simple, reranker or rd_rag")

	askCmd.Flags().StringVar(&docsDir, "docs-dir", "", "directory containing documents (defaults to DOCUMENTS_DIR)")
	askCmd.Flags().StringVar(&fileName, "file-name", "", "index a single file from the documents directory")
	askCmd.Flags().StringVar(&query, "query", "", "answer this query and exit")
	askCmd.Flags().BoolVar(&reinitialize, "reinitialize", false, "rebuild the index even if one exists")

	reindexCmd.Flags().StringVar(&reindexFileName, "file-name", "", "index a single file from the documents directory")
	reindexCmd.Flags().BoolVar(&reindexFull, "reinitialize", true, "discard the existing index first")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reindexCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	return logging.NewJSONLoggerTo(os.Stderr, "rdrag", cfg.LogLevel)
}
