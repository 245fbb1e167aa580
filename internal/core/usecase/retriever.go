package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/core/ports"
)

// Retriever owns the vector index lifecycle and serves similarity searches.
// Index mutations are serialized against searches.
type Retriever struct {
	mu          sync.RWMutex
	index       ports.VectorIndex
	loaded      bool
	concurrency int
	logger      *slog.Logger
}

func NewRetriever(index ports.VectorIndex, concurrency int, logger *slog.Logger) *Retriever {
	return &Retriever{
		index:       index,
		concurrency: concurrency,
		logger:      loggerOrDiscard(logger),
	}
}

func (r *Retriever) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// LoadIndex reports whether a persisted index was found and loaded.
func (r *Retriever) LoadIndex(ctx context.Context, path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = r.index.Load(ctx, path)
	if r.loaded {
		r.logger.Info("index_loaded", "path", path)
	}
	return r.loaded
}

func (r *Retriever) CreateIndex(ctx context.Context, fragments []domain.Fragment) error {
	if len(fragments) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "create index", errors.New("no fragments"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.index.Create(ctx, fragments); err != nil {
		r.loaded = false
		return fmt.Errorf("create index: %w", err)
	}
	r.loaded = true
	r.logger.Info("index_created", "fragments", len(fragments))
	return nil
}

func (r *Retriever) SaveIndex(ctx context.Context, path string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.index.Save(ctx, path); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	r.logger.Info("index_saved", "path", path)
	return nil
}

func (r *Retriever) DestroyIndex(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	if err := r.index.Destroy(ctx, path); err != nil {
		return fmt.Errorf("destroy index: %w", err)
	}
	r.logger.Info("index_destroyed", "path", path)
	return nil
}

// Search returns up to k fragments ordered by descending similarity.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]domain.Fragment, error) {
	if k < 1 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("k must be positive, got %d", k))
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return nil, domain.WrapError(domain.ErrIndexNotLoaded, "search", errors.New("load or create the index first"))
	}
	fragments, err := r.index.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if len(fragments) > k {
		fragments = fragments[:k]
	}
	return fragments, nil
}

// SearchMany searches every query and keys the results in input order.
func (r *Retriever) SearchMany(ctx context.Context, queries []string, k int) (*domain.CandidateSet, error) {
	results, err := fanOut(ctx, r.concurrency, queries, func(ctx context.Context, query string) ([]domain.Fragment, error) {
		return r.Search(ctx, query, k)
	})
	if err != nil {
		return nil, err
	}
	set := domain.NewCandidateSet()
	for i, query := range queries {
		set.Set(query, results[i])
	}
	return set, nil
}
