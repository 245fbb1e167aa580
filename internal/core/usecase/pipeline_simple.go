package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
)

// SimplePipeline answers straight from the vector search results.
type SimplePipeline struct {
	deps     PipelineDeps
	settings PipelineSettings
	corpus   indexedCorpus
}

func NewSimplePipeline(deps PipelineDeps, settings PipelineSettings) *SimplePipeline {
	deps = deps.normalized()
	return &SimplePipeline{
		deps:     deps,
		settings: settings,
		corpus: indexedCorpus{
			processor: deps.Processor,
			retriever: deps.Retriever,
			indexPath: settings.IndexPath,
			logger:    deps.Logger,
		},
	}
}

func (p *SimplePipeline) Variant() domain.Variant { return domain.VariantSimple }

func (p *SimplePipeline) Initialize(ctx context.Context, documentsDir string, reinitialize bool, fileName string) error {
	return p.corpus.initialize(ctx, documentsDir, reinitialize, fileName)
}

func (p *SimplePipeline) ProcessQuery(ctx context.Context, query string) (string, error) {
	return answerOnly(p.Run(ctx, query))
}

func (p *SimplePipeline) Run(ctx context.Context, query string) (*domain.QueryResult, error) {
	run := startRun(domain.VariantSimple, query, p.deps.Observer, p.deps.Logger)
	if err := validateQuery(query); err != nil {
		return run.fail(err)
	}

	fragments, err := p.deps.Retriever.Search(ctx, query, p.settings.TopK)
	if err != nil {
		return run.fail(fmt.Errorf("simple pipeline: %w", err))
	}
	run.advance(domain.StateRetrieved)

	results := domain.NewSubqueryResults()
	results.Set(query, RankByPosition(fragments))
	sources := p.deps.Assembler.SourcesFromRanked(results, p.settings.TopK)
	run.result.Context = p.deps.Assembler.FlattenSources(sources)
	run.advance(domain.StateContextBuilt)

	answer, err := answerFrom(ctx, p.deps.Answerer, query, run.result.Context)
	if err != nil {
		return run.fail(fmt.Errorf("simple pipeline: %w", err))
	}
	run.result.Answer = answer
	run.advance(domain.StateAnswered)
	return run.done()
}
