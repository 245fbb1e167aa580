package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/rationale-rag/internal/config"
	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/core/ports"
	"github.com/kirillkom/rationale-rag/internal/core/usecase"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/chunking"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/extractor"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/llm/anthropic"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/llm/openai"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/queue/nats"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/rerank/voyage"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/resilience"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/tokenizer"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/vector/local"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/rationale-rag/internal/observability/metrics"
)

const serviceName = "rdrag"

type Options struct {
	Variant domain.Variant
	Logger  *slog.Logger
	// ConnectQueue dials NATS when NATS_URL is set.
	ConnectQueue bool
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Pipeline ports.QueryPipeline
	Queue    ports.ReindexQueue

	Registry       *prometheus.Registry
	HTTPMetrics    *metrics.HTTPServerMetrics
	ReindexMetrics *metrics.ReindexMetrics

	closeFn func()
}

func New(cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for _, dir := range []string{cfg.DocumentsDir, cfg.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	executor := resilience.NewExecutor(resilienceConfig(cfg), logger)

	generator, err := newGenerator(cfg, executor)
	if err != nil {
		return nil, err
	}
	var rerankService ports.RerankService
	if cfg.VoyageAPIKey != "" {
		rerankService = voyage.New(cfg.VoyageBaseURL, cfg.VoyageAPIKey, cfg.VoyageRerankModel, executor)
	}

	index, err := newVectorIndex(cfg, executor, logger)
	if err != nil {
		return nil, err
	}

	artifacts, err := localfs.New(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("init chunk storage: %w", err)
	}

	assembler := usecase.NewContextAssembler(tokenizer.NewCounter(), cfg.RAGMaxContextTokens)
	deps := usecase.PipelineDeps{
		Processor:  usecase.NewDocumentProcessor(extractor.NewRouter(), chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap), artifacts, logger),
		Retriever:  usecase.NewRetriever(index, cfg.RAGFanoutConcurrency, logger),
		Reranker:   usecase.NewReranker(rerankService, cfg.RAGFanoutConcurrency, pipelineMetrics, logger),
		Decomposer: usecase.NewQueryDecomposer(generator, pipelineMetrics, logger),
		Assembler:  assembler,
		Answerer:   usecase.NewAnswerer(generator, assembler, logger),
		Observer:   pipelineMetrics,
		Logger:     logger,
	}
	settings := usecase.PipelineSettings{
		IndexPath:     cfg.IndexPath,
		TopK:          cfg.RAGTopK,
		TopNInitial:   cfg.RAGTopNInitial,
		TopKReranked:  cfg.RAGTopKReranked,
		NumSubqueries: cfg.RAGNumSubqueries,
	}
	pipeline, err := usecase.NewPipeline(opts.Variant, deps, settings)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:         cfg,
		Logger:         logger,
		Pipeline:       pipeline,
		Registry:       registry,
		HTTPMetrics:    metrics.NewHTTPServerMetrics(serviceName, registry),
		ReindexMetrics: metrics.NewReindexMetrics(serviceName, registry),
	}

	if opts.ConnectQueue && cfg.NATSURL != "" {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init reindex queue: %w", err)
		}
		app.Queue = queue
		app.closeFn = queue.Close
	}

	logger.Info("bootstrap_ready",
		"variant", opts.Variant,
		"generation_provider", cfg.GenerationProvider,
		"generation_configured", generator != nil,
		"rerank_configured", rerankService != nil,
		"index_backend", cfg.IndexBackend,
		"queue_enabled", app.Queue != nil,
	)
	return app, nil
}

// ReindexHandler runs Initialize for each queued request and records it.
func (a *App) ReindexHandler() func(context.Context, ports.ReindexRequest) error {
	return func(ctx context.Context, req ports.ReindexRequest) error {
		a.ReindexMetrics.StartReindex()
		start := time.Now()
		err := a.Pipeline.Initialize(ctx, a.Config.DocumentsDir, req.Reinitialize, req.FileName)
		a.ReindexMetrics.FinishReindex(time.Since(start), err)
		if err != nil {
			return err
		}
		a.Logger.Info("reindex_completed",
			"file_name", req.FileName,
			"reinitialize", req.Reinitialize,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.RetryMaxAttempts = cfg.OutboundRetryMaxAttempts
	rc.BreakerEnabled = cfg.OutboundBreakerEnabled
	rc.RateLimitRPS = cfg.OutboundRateLimitRPS
	rc.RateLimitBurst = cfg.OutboundRateLimitBurst
	return rc
}

// newGenerator returns a nil generator when the selected provider has no credential.
func newGenerator(cfg config.Config, executor *resilience.Executor) (ports.TextGenerator, error) {
	switch cfg.GenerationProvider {
	case config.ProviderOpenAI, "":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return openai.NewGenerator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, executor), nil
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, nil
		}
		return anthropic.NewGenerator(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicMaxTokens, executor), nil
	case config.ProviderOllama:
		client := ollama.New(cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel, executor)
		return ollama.NewGenerator(client), nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "new generator", fmt.Errorf("unknown provider %q", cfg.GenerationProvider))
	}
}

func newVectorIndex(cfg config.Config, executor *resilience.Executor, logger *slog.Logger) (ports.VectorIndex, error) {
	embedder := ollama.NewEmbedder(ollama.New(cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel, executor))

	switch cfg.IndexBackend {
	case config.BackendLocal, "":
		return local.New(embedder, logger), nil
	case config.BackendQdrant:
		return qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, embedder, executor, logger), nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "new vector index", fmt.Errorf("unknown index backend %q", cfg.IndexBackend))
	}
}
