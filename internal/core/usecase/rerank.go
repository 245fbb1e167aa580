package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/core/ports"
)

// Reranker orders candidate fragments with a cross-encoder. When the service
// is missing or misbehaves it keeps the input order with decreasing pseudo-scores.
type Reranker struct {
	service     ports.RerankService
	concurrency int
	observer    ports.PipelineObserver
	logger      *slog.Logger
}

func NewReranker(service ports.RerankService, concurrency int, observer ports.PipelineObserver, logger *slog.Logger) *Reranker {
	return &Reranker{
		service:     service,
		concurrency: concurrency,
		observer:    observerOrNop(observer),
		logger:      loggerOrDiscard(logger),
	}
}

func (r *Reranker) Configured() bool {
	return r.service != nil
}

// Rerank scores fragments against query. topK <= 0 keeps every fragment.
func (r *Reranker) Rerank(ctx context.Context, query string, fragments []domain.Fragment, topK int) ([]domain.RankedFragment, error) {
	if len(fragments) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "rerank", errors.New("no fragments to rerank"))
	}
	if r.service == nil {
		r.fallback("unconfigured", nil)
		return cutTop(RankByPosition(fragments), topK), nil
	}

	hits, err := r.service.Rerank(ctx, query, domain.Texts(fragments), topK)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("rerank: %w", ctx.Err())
		}
		r.fallback("service_error", err)
		return cutTop(RankByPosition(fragments), topK), nil
	}

	ranked, err := rankFromHits(fragments, hits)
	if err != nil {
		r.fallback("malformed_response", err)
		return cutTop(RankByPosition(fragments), topK), nil
	}
	return cutTop(ranked, topK), nil
}

// RerankMany reranks every candidate list against its own query. Queries
// without candidates map to an empty list.
func (r *Reranker) RerankMany(ctx context.Context, candidates *domain.CandidateSet, topK int) (*domain.SubqueryResults, error) {
	queries := candidates.Queries()
	ranked, err := fanOut(ctx, r.concurrency, queries, func(ctx context.Context, query string) ([]domain.RankedFragment, error) {
		fragments, _ := candidates.Get(query)
		if len(fragments) == 0 {
			return []domain.RankedFragment{}, nil
		}
		return r.Rerank(ctx, query, fragments, topK)
	})
	if err != nil {
		return nil, err
	}
	out := domain.NewSubqueryResults()
	for i, query := range queries {
		out.Set(query, ranked[i])
	}
	return out, nil
}

// RankByPosition keeps the input order and assigns scores 1.0, 0.9, 0.8, ...
func RankByPosition(fragments []domain.Fragment) []domain.RankedFragment {
	out := make([]domain.RankedFragment, len(fragments))
	for i, fragment := range fragments {
		out[i] = domain.RankedFragment{
			Fragment:      fragment,
			Score:         1.0 - 0.1*float64(i),
			Rank:          i,
			OriginalIndex: i,
		}
	}
	return out
}

func rankFromHits(fragments []domain.Fragment, hits []domain.RerankHit) ([]domain.RankedFragment, error) {
	if len(hits) == 0 {
		return nil, errors.New("empty rerank response")
	}
	seen := make(map[int]struct{}, len(hits))
	out := make([]domain.RankedFragment, 0, len(hits))
	for _, hit := range hits {
		if hit.Index < 0 || hit.Index >= len(fragments) {
			return nil, fmt.Errorf("rerank index %d out of range [0,%d)", hit.Index, len(fragments))
		}
		if _, dup := seen[hit.Index]; dup {
			return nil, fmt.Errorf("duplicate rerank index %d", hit.Index)
		}
		seen[hit.Index] = struct{}{}
		out = append(out, domain.RankedFragment{
			Fragment:      fragments[hit.Index],
			Score:         hit.RelevanceScore,
			OriginalIndex: hit.Index,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	for i := range out {
		out[i].Rank = i
	}
	return out, nil
}

func cutTop(ranked []domain.RankedFragment, topK int) []domain.RankedFragment {
	if topK > 0 && len(ranked) > topK {
		return ranked[:topK]
	}
	return ranked
}

func (r *Reranker) fallback(reason string, err error) {
	if err != nil {
		r.logger.Warn("rerank_fallback", "reason", reason, "error", err)
	} else {
		r.logger.Debug("rerank_fallback", "reason", reason)
	}
	r.observer.RecordFallback("reranker", reason)
}
