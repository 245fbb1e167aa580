package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/core/ports"
)

// QueryDecomposer turns a user query into a rationale and a bounded list of subqueries.
// A nil generator makes it a pass-through.
type QueryDecomposer struct {
	generator ports.TextGenerator
	observer  ports.PipelineObserver
	logger    *slog.Logger
}

func NewQueryDecomposer(generator ports.TextGenerator, observer ports.PipelineObserver, logger *slog.Logger) *QueryDecomposer {
	return &QueryDecomposer{
		generator: generator,
		observer:  observerOrNop(observer),
		logger:    loggerOrDiscard(logger),
	}
}

func (d *QueryDecomposer) Configured() bool {
	return d.generator != nil
}

// ExtractRationale returns the core information need behind query, or query itself
// when the generation service is missing or fails.
func (d *QueryDecomposer) ExtractRationale(ctx context.Context, query string) string {
	if d.generator == nil {
		return query
	}
	out, err := d.generator.Complete(ctx, rationaleSystemPrompt, rationaleUserPrompt(query))
	if err != nil {
		d.degrade("extract_rationale", err)
		return query
	}
	out = strings.TrimSpace(out)
	if out == "" {
		d.degrade("extract_rationale", nil)
		return query
	}
	return out
}

// GenerateSubqueries returns between 1 and n distinct search queries for rationale.
func (d *QueryDecomposer) GenerateSubqueries(ctx context.Context, rationale string, n int) []string {
	if n < 1 {
		n = 1
	}
	if d.generator == nil {
		return []string{rationale}
	}

	raw, err := d.generator.Complete(ctx, subquerySystemPrompt(n), subqueryUserPrompt(rationale))
	if err != nil {
		d.degrade("generate_subqueries", err)
		return []string{rationale}
	}
	queries := parseListedQueries(raw)

	if len(queries) < n {
		retried, err := d.generator.Complete(ctx, subqueryRetrySystemPrompt(n), subqueryUserPrompt(rationale))
		if err != nil {
			d.degrade("generate_subqueries_retry", err)
		} else if parsed := parsePrefixedQueries(retried); len(parsed) > len(queries) {
			queries = parsed
		}
	}

	if len(queries) == 0 {
		d.degrade("generate_subqueries", nil)
		return []string{rationale}
	}
	if len(queries) > n {
		queries = queries[:n]
	}
	d.logger.Debug("subqueries_generated", "count", len(queries), "requested", n)
	return queries
}

func (d *QueryDecomposer) Plan(ctx context.Context, query string, n int) domain.QueryPlan {
	rationale := d.ExtractRationale(ctx, query)
	return domain.QueryPlan{
		OriginalQuery: query,
		Rationale:     rationale,
		Subqueries:    d.GenerateSubqueries(ctx, rationale, n),
	}
}

func (d *QueryDecomposer) degrade(step string, err error) {
	reason := "empty_response"
	if err != nil {
		reason = "generation_error"
	}
	d.logger.Warn("decomposition_fallback", "step", step, "reason", reason, "error", err)
	d.observer.RecordFallback("decomposer", reason)
}
