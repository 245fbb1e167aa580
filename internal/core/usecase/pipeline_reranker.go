package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
)

// RerankerPipeline keeps every chunk in memory and lets the cross-encoder pick
// the context; there is no vector index.
type RerankerPipeline struct {
	deps     PipelineDeps
	settings PipelineSettings

	mu     sync.RWMutex
	chunks []domain.Fragment
}

func NewRerankerPipeline(deps PipelineDeps, settings PipelineSettings) *RerankerPipeline {
	return &RerankerPipeline{
		deps:     deps.normalized(),
		settings: settings,
	}
}

func (p *RerankerPipeline) Variant() domain.Variant { return domain.VariantReranker }

// Initialize loads the documents into memory. reinitialize has no effect since
// nothing is persisted.
func (p *RerankerPipeline) Initialize(ctx context.Context, documentsDir string, _ bool, fileName string) error {
	fragments, err := ingest(ctx, p.deps.Processor, documentsDir, fileName)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if len(fragments) == 0 {
		p.deps.Logger.Warn("no_documents", "dir", documentsDir, "file_name", fileName)
		return nil
	}

	p.mu.Lock()
	p.chunks = fragments
	p.mu.Unlock()
	p.deps.Logger.Info("chunks_loaded", "count", len(fragments))
	return nil
}

func (p *RerankerPipeline) ChunkCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.chunks)
}

func (p *RerankerPipeline) ProcessQuery(ctx context.Context, query string) (string, error) {
	return answerOnly(p.Run(ctx, query))
}

func (p *RerankerPipeline) Run(ctx context.Context, query string) (*domain.QueryResult, error) {
	run := startRun(domain.VariantReranker, query, p.deps.Observer, p.deps.Logger)
	if err := validateQuery(query); err != nil {
		return run.fail(err)
	}

	p.mu.RLock()
	chunks := p.chunks
	p.mu.RUnlock()
	if len(chunks) == 0 {
		return run.fail(domain.WrapError(domain.ErrNotInitialized, "reranker pipeline", errors.New("no chunks loaded")))
	}
	run.advance(domain.StateRetrieved)

	ranked, err := p.deps.Reranker.Rerank(ctx, query, chunks, p.settings.TopKReranked)
	if err != nil {
		return run.fail(fmt.Errorf("reranker pipeline: %w", err))
	}
	run.advance(domain.StateReranked)

	results := domain.NewSubqueryResults()
	results.Set(query, ranked)
	sources := p.deps.Assembler.SourcesFromRanked(results, p.settings.TopKReranked)
	run.result.Context = p.deps.Assembler.FlattenSources(sources)
	run.advance(domain.StateContextBuilt)

	answer, err := answerFrom(ctx, p.deps.Answerer, query, run.result.Context)
	if err != nil {
		return run.fail(fmt.Errorf("reranker pipeline: %w", err))
	}
	run.result.Answer = answer
	run.advance(domain.StateAnswered)
	return run.done()
}
