package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/core/ports"
)

// PipelineSettings are the retrieval knobs shared by all variants.
type PipelineSettings struct {
	IndexPath     string
	TopK          int
	TopNInitial   int
	TopKReranked  int
	NumSubqueries int
}

func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		IndexPath:     "./vector_index",
		TopK:          5,
		TopNInitial:   10,
		TopKReranked:  5,
		NumSubqueries: 3,
	}
}

// PipelineDeps wires the components a variant needs. Unused fields may be nil.
type PipelineDeps struct {
	Processor  *DocumentProcessor
	Retriever  *Retriever
	Reranker   *Reranker
	Decomposer *QueryDecomposer
	Assembler  *ContextAssembler
	Answerer   *Answerer
	Observer   ports.PipelineObserver
	Logger     *slog.Logger
}

func (d PipelineDeps) normalized() PipelineDeps {
	d.Observer = observerOrNop(d.Observer)
	d.Logger = loggerOrDiscard(d.Logger)
	return d
}

// NewPipeline builds the variant selected by name.
func NewPipeline(variant domain.Variant, deps PipelineDeps, settings PipelineSettings) (ports.QueryPipeline, error) {
	switch variant {
	case domain.VariantSimple:
		return NewSimplePipeline(deps, settings), nil
	case domain.VariantReranker:
		return NewRerankerPipeline(deps, settings), nil
	case domain.VariantRationale:
		return NewRationalePipeline(deps, settings), nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "new pipeline", fmt.Errorf("unknown variant %q", variant))
	}
}

// indexedCorpus is the initialize path shared by the index-backed variants.
type indexedCorpus struct {
	processor *DocumentProcessor
	retriever *Retriever
	indexPath string
	logger    *slog.Logger
}

func (c indexedCorpus) initialize(ctx context.Context, documentsDir string, reinitialize bool, fileName string) error {
	if reinitialize {
		if err := c.retriever.DestroyIndex(ctx, c.indexPath); err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
	}
	if c.retriever.LoadIndex(ctx, c.indexPath) {
		return nil
	}

	fragments, err := ingest(ctx, c.processor, documentsDir, fileName)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if len(fragments) == 0 {
		c.logger.Warn("no_documents", "dir", documentsDir, "file_name", fileName)
		return nil
	}
	if err := c.retriever.CreateIndex(ctx, fragments); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if err := c.retriever.SaveIndex(ctx, c.indexPath); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return nil
}

func ingest(ctx context.Context, processor *DocumentProcessor, documentsDir, fileName string) ([]domain.Fragment, error) {
	if fileName != "" {
		return processor.ProcessFile(ctx, documentsDir, fileName)
	}
	return processor.ProcessDirectory(ctx, documentsDir)
}

// runTracker records the state trace and stage timings of one query.
type runTracker struct {
	result   *domain.QueryResult
	observer ports.PipelineObserver
	logger   *slog.Logger
	mark     time.Time
}

func startRun(variant domain.Variant, query string, observer ports.PipelineObserver, logger *slog.Logger) *runTracker {
	runID := uuid.NewString()
	return &runTracker{
		result: &domain.QueryResult{
			RunID:   runID,
			Variant: variant,
			Query:   query,
			Trace:   []domain.PipelineState{domain.StateIdle},
		},
		observer: observer,
		logger:   logger.With("run_id", runID, "variant", string(variant)),
		mark:     time.Now(),
	}
}

func (r *runTracker) advance(state domain.PipelineState) {
	now := time.Now()
	elapsed := now.Sub(r.mark)
	r.mark = now
	r.result.Trace = append(r.result.Trace, state)
	r.observer.ObserveStage(r.result.Variant, state, elapsed)
	r.logger.Debug("pipeline_state", "state", string(state), "elapsed_ms", elapsed.Milliseconds())
}

func (r *runTracker) fail(err error) (*domain.QueryResult, error) {
	r.observer.ObserveQuery(r.result.Variant, r.result.Context.Blocks, err)
	r.logger.Warn("pipeline_failed", "error", err)
	return nil, err
}

func (r *runTracker) done() (*domain.QueryResult, error) {
	r.observer.ObserveQuery(r.result.Variant, r.result.Context.Blocks, nil)
	return r.result, nil
}

func validateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "run query", errors.New("query is empty"))
	}
	return nil
}

// answerFrom short-circuits an empty context to the insufficiency sentence.
func answerFrom(ctx context.Context, answerer *Answerer, query string, assembled domain.AssembledContext) (string, error) {
	if assembled.Empty() {
		if !answerer.Configured() {
			return UnconfiguredAnswer, nil
		}
		return InsufficientContextAnswer, nil
	}
	return answerer.GenerateResponse(ctx, query, assembled)
}

func answerOnly(result *domain.QueryResult, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return result.Answer, nil
}

type nopObserver struct{}

func (nopObserver) ObserveStage(domain.Variant, domain.PipelineState, time.Duration) {}
func (nopObserver) ObserveQuery(domain.Variant, int, error)                         {}
func (nopObserver) RecordFallback(string, string)                                   {}

func observerOrNop(observer ports.PipelineObserver) ports.PipelineObserver {
	if observer == nil {
		return nopObserver{}
	}
	return observer
}

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
