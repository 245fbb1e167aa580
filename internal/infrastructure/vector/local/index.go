package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/core/ports"
)

// Index is an exact cosine-similarity index held in memory and persisted as
// a Badger directory.
type Index struct {
	embedder ports.Embedder
	logger   *slog.Logger

	mu      sync.RWMutex
	entries []entry
}

type entry struct {
	Fragment domain.Fragment
	Vector   []float32
}

func New(embedder ports.Embedder, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{embedder: embedder, logger: logger}
}

func (x *Index) Ready() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries) > 0
}

func (x *Index) Load(_ context.Context, path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	entries, err := readStore(path, x.embedder.Model())
	if err != nil {
		x.logger.Warn("local_index_load_failed", "path", path, "error", err)
		return false
	}
	if len(entries) == 0 {
		return false
	}

	x.mu.Lock()
	x.entries = entries
	x.mu.Unlock()
	return true
}

func (x *Index) Create(ctx context.Context, fragments []domain.Fragment) error {
	vectors, err := x.embedder.Embed(ctx, domain.Texts(fragments))
	if err != nil {
		return fmt.Errorf("embed fragments: %w", err)
	}
	if len(vectors) != len(fragments) {
		return fmt.Errorf("fragments/vectors mismatch: %d/%d", len(fragments), len(vectors))
	}

	entries := make([]entry, len(fragments))
	for i, fragment := range fragments {
		entries[i] = entry{Fragment: fragment, Vector: normalize(vectors[i])}
	}

	x.mu.Lock()
	x.entries = entries
	x.mu.Unlock()
	return nil
}

func (x *Index) Save(_ context.Context, path string) error {
	x.mu.RLock()
	entries := x.entries
	x.mu.RUnlock()
	if len(entries) == 0 {
		return domain.WrapError(domain.ErrIndexNotBuilt, "local index save", errors.New("nothing to save"))
	}
	if err := writeStore(path, x.embedder.Model(), entries); err != nil {
		return fmt.Errorf("local index save: %w", err)
	}
	return nil
}

func (x *Index) Destroy(_ context.Context, path string) error {
	x.mu.Lock()
	x.entries = nil
	x.mu.Unlock()
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove index dir: %w", err)
	}
	return nil
}

func (x *Index) Search(ctx context.Context, query string, k int) ([]domain.Fragment, error) {
	x.mu.RLock()
	entries := x.entries
	x.mu.RUnlock()
	if len(entries) == 0 {
		return nil, domain.WrapError(domain.ErrIndexNotLoaded, "local index search", errors.New("index is empty"))
	}

	vector, err := x.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	q := normalize(vector)

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(entries))
	for i, e := range entries {
		scores[i] = scored{idx: i, score: dot(q, e.Vector)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	k = min(k, len(scores))
	out := make([]domain.Fragment, k)
	for i := range k {
		out[i] = entries[scores[i].idx].Fragment
	}
	return out, nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := range n {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
