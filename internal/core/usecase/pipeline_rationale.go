package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
)

// RationalePipeline decomposes the query, searches and reranks every subquery
// and answers from the merged, citation-labeled context.
type RationalePipeline struct {
	deps     PipelineDeps
	settings PipelineSettings
	corpus   indexedCorpus
}

func NewRationalePipeline(deps PipelineDeps, settings PipelineSettings) *RationalePipeline {
	deps = deps.normalized()
	return &RationalePipeline{
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

func (p *RationalePipeline) Variant() domain.Variant { return domain.VariantRationale }

func (p *RationalePipeline) Initialize(ctx context.Context, documentsDir string, reinitialize bool, fileName string) error {
	return p.corpus.initialize(ctx, documentsDir, reinitialize, fileName)
}

func (p *RationalePipeline) ProcessQuery(ctx context.Context, query string) (string, error) {
	return answerOnly(p.Run(ctx, query))
}

func (p *RationalePipeline) Run(ctx context.Context, query string) (*domain.QueryResult, error) {
	run := startRun(domain.VariantRationale, query, p.deps.Observer, p.deps.Logger)
	if err := validateQuery(query); err != nil {
		return run.fail(err)
	}

	plan := p.deps.Decomposer.Plan(ctx, query, p.settings.NumSubqueries)
	run.result.Plan = &plan
	run.advance(domain.StateDecomposed)

	candidates, err := p.deps.Retriever.SearchMany(ctx, plan.Subqueries, p.settings.TopNInitial)
	if err != nil {
		return run.fail(fmt.Errorf("rationale pipeline: %w", err))
	}
	run.advance(domain.StateRetrieved)

	ranked, err := p.deps.Reranker.RerankMany(ctx, candidates, 0)
	if err != nil {
		return run.fail(fmt.Errorf("rationale pipeline: %w", err))
	}
	run.advance(domain.StateReranked)

	run.result.Context = p.deps.Assembler.PrepareContext(ranked, p.settings.TopKReranked)
	run.advance(domain.StateContextBuilt)

	answer, err := answerFrom(ctx, p.deps.Answerer, query, run.result.Context)
	if err != nil {
		return run.fail(fmt.Errorf("rationale pipeline: %w", err))
	}
	run.result.Answer = answer
	run.advance(domain.StateAnswered)
	return run.done()
}
