package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/core/ports"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/resilience"
)

const upsertBatchSize = 64

// Index is a ports.VectorIndex backed by one Qdrant collection. The collection
// is the persisted form, so the path arguments are ignored.
type Index struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor
	embedder   ports.Embedder
	logger     *slog.Logger

	mu    sync.RWMutex
	ready bool
}

func New(baseURL, collection string, embedder ports.Embedder, executor *resilience.Executor, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
		embedder:   embedder,
		logger:     logger,
	}
}

func (c *Index) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Load reports whether the collection exists and holds points.
func (c *Index) Load(ctx context.Context, _ string) bool {
	var info struct {
		Result struct {
			PointsCount int `json:"points_count"`
		} `json:"result"`
	}
	err := c.do(ctx, http.MethodGet, c.collectionPath(), nil, &info, "collection_info")
	ready := err == nil && info.Result.PointsCount > 0
	if err != nil && !isNotFound(err) {
		c.logger.Warn("qdrant_load_failed", "collection", c.collection, "error", err)
	}

	c.mu.Lock()
	c.ready = ready
	c.mu.Unlock()
	return ready
}

// Create drops the collection, recreates it and upserts every fragment.
func (c *Index) Create(ctx context.Context, fragments []domain.Fragment) error {
	vectors, err := c.embedder.Embed(ctx, domain.Texts(fragments))
	if err != nil {
		return fmt.Errorf("embed fragments: %w", err)
	}
	if len(vectors) != len(fragments) || len(vectors) == 0 {
		return fmt.Errorf("fragments/vectors mismatch: %d/%d", len(fragments), len(vectors))
	}

	c.mu.Lock()
	c.ready = false
	c.mu.Unlock()

	if err := c.drop(ctx); err != nil {
		return err
	}
	if err := c.createCollection(ctx, len(vectors[0])); err != nil {
		return err
	}
	for start := 0; start < len(fragments); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(fragments))
		if err := c.upsert(ctx, fragments[start:end], vectors[start:end]); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
	return nil
}

func (c *Index) Save(context.Context, string) error {
	if !c.Ready() {
		return domain.WrapError(domain.ErrIndexNotBuilt, "qdrant save", errors.New("collection not created"))
	}
	return nil
}

func (c *Index) Destroy(ctx context.Context, _ string) error {
	c.mu.Lock()
	c.ready = false
	c.mu.Unlock()
	return c.drop(ctx)
}

func (c *Index) Search(ctx context.Context, query string, k int) ([]domain.Fragment, error) {
	vector, err := c.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	reqBody := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, c.collectionPath()+"/points/search", reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.Fragment, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.Fragment{
			Text:     getStringPayload(r.Payload, "text"),
			Source:   getStringPayload(r.Payload, "source"),
			Sequence: getIntPayload(r.Payload, "sequence"),
		})
	}
	return out, nil
}

func (c *Index) createCollection(ctx context.Context, vectorSize int) error {
	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	err := c.do(ctx, http.MethodPut, c.collectionPath(), reqBody, nil, "create_collection")
	var statusErr *resilience.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
		return nil
	}
	return err
}

func (c *Index) upsert(ctx context.Context, fragments []domain.Fragment, vectors [][]float32) error {
	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(fragments))
	for i, fragment := range fragments {
		points = append(points, point{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: map[string]any{
				"text":     fragment.Text,
				"source":   fragment.Source,
				"sequence": fragment.Sequence,
			},
		})
	}
	return c.do(ctx, http.MethodPut, c.collectionPath()+"/points?wait=true", map[string]any{"points": points}, nil, "upsert")
}

func (c *Index) drop(ctx context.Context) error {
	err := c.do(ctx, http.MethodDelete, c.collectionPath(), nil, nil, "delete_collection")
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func (c *Index) collectionPath() string {
	return "/collections/" + c.collection
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return -1
	}
}
