package ports

import (
	"context"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
)

// QueryPipeline is the inbound contract shared by all pipeline variants.
type QueryPipeline interface {
	Variant() domain.Variant
	Initialize(ctx context.Context, documentsDir string, reinitialize bool, fileName string) error
	ProcessQuery(ctx context.Context, query string) (string, error)
	Run(ctx context.Context, query string) (*domain.QueryResult, error)
}
