package ports

import (
	"context"
	"time"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
)

// TextGenerator is a stateless completion call: one system instruction and
// one user message in, one completion out.
type TextGenerator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// RerankService scores documents against a query with a cross-encoder.
// topK <= 0 means no cap. Hits are ordered by descending relevance.
type RerankService interface {
	Rerank(ctx context.Context, query string, documents []string, topK int) ([]domain.RerankHit, error)
}

// Embedder builds vectors for fragments and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// VectorIndex is a similarity index that can be persisted and reloaded.
type VectorIndex interface {
	// Load reports false when the index is absent or unreadable; it never fails loudly.
	Load(ctx context.Context, path string) bool
	// Create replaces the in-memory index.
	Create(ctx context.Context, fragments []domain.Fragment) error
	// Save fails with domain.ErrIndexNotBuilt when nothing was created or loaded.
	Save(ctx context.Context, path string) error
	Destroy(ctx context.Context, path string) error
	Ready() bool
	Search(ctx context.Context, query string, k int) ([]domain.Fragment, error)
}

// TextExtractor turns a file on disk into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Chunker splits text into token-bounded chunks.
type Chunker interface {
	Split(text string) []string
}

// ChunkArtifactStore keeps scratch copies of chunks and converted documents.
type ChunkArtifactStore interface {
	SaveChunks(ctx context.Context, chunks []domain.Fragment) error
	SaveConverted(ctx context.Context, name, content string) error
}

// TokenCounter measures and cuts text in model tokens.
type TokenCounter interface {
	Count(text string) int
	Truncate(text string, maxTokens int) string
}

// PipelineObserver receives stage timings and fallback events.
type PipelineObserver interface {
	ObserveStage(variant domain.Variant, stage domain.PipelineState, duration time.Duration)
	ObserveQuery(variant domain.Variant, contextBlocks int, err error)
	RecordFallback(component, reason string)
}

// ReindexRequest asks a running service to rebuild its index.
type ReindexRequest struct {
	FileName     string `json:"file_name,omitempty"`
	Reinitialize bool   `json:"reinitialize"`
}

// ReindexQueue carries reindex requests between processes.
type ReindexQueue interface {
	PublishReindex(ctx context.Context, req ReindexRequest) error
	SubscribeReindex(ctx context.Context, handler func(context.Context, ReindexRequest) error) error
}
