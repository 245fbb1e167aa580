package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/core/ports"
)

// Answerer asks the generation service for a grounded answer.
// A nil generator yields UnconfiguredAnswer.
type Answerer struct {
	generator ports.TextGenerator
	assembler *ContextAssembler
	logger    *slog.Logger
}

func NewAnswerer(generator ports.TextGenerator, assembler *ContextAssembler, logger *slog.Logger) *Answerer {
	return &Answerer{
		generator: generator,
		assembler: assembler,
		logger:    loggerOrDiscard(logger),
	}
}

func (a *Answerer) Configured() bool {
	return a.generator != nil
}

func (a *Answerer) GenerateResponse(ctx context.Context, query string, assembled domain.AssembledContext) (string, error) {
	if a.generator == nil {
		return UnconfiguredAnswer, nil
	}
	if assembled.Empty() || strings.TrimSpace(assembled.Text) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "generate response", errors.New("empty context"))
	}

	system, user := chunksAnswerSystemPrompt(), chunksAnswerUserPrompt(query, assembled.Text)
	if assembled.Style == domain.ContextStyleSources {
		system, user = sourcesAnswerSystemPrompt(), sourcesAnswerUserPrompt(query, assembled.Text)
	}

	answer, err := a.generator.Complete(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("generate response: %w", err)
	}
	a.logger.Debug("response_generated", "blocks", assembled.Blocks, "truncated", assembled.Truncated)
	return strings.TrimSpace(answer), nil
}

// GenerateFromSources flattens source records into context and answers from it.
func (a *Answerer) GenerateFromSources(ctx context.Context, query string, docs []domain.SourceDocument) (string, error) {
	return a.GenerateResponse(ctx, query, a.assembler.FlattenSources(docs))
}
