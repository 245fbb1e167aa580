package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
)

type embedderFake struct{}

func (embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (embedderFake) Model() string { return "fake" }

type qdrantFake struct {
	mu       sync.Mutex
	exists   bool
	points   int
	requests []string
}

func (f *qdrantFake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/collections/docs":
		if !f.exists {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"points_count": f.points}})
	case r.Method == http.MethodDelete && r.URL.Path == "/collections/docs":
		f.exists, f.points = false, 0
		_, _ = w.Write([]byte(`{"result":true}`))
	case r.Method == http.MethodPut && r.URL.Path == "/collections/docs":
		f.exists = true
		_, _ = w.Write([]byte(`{"result":true}`))
	case r.Method == http.MethodPut && r.URL.Path == "/collections/docs/points":
		var body struct {
			Points []json.RawMessage `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.points += len(body.Points)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	case r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/search":
		_, _ = w.Write([]byte(`{"result":[{"score":0.9,"payload":{"text":"alpha","source":"a.txt","sequence":2}}]}`))
	default:
		http.NotFound(w, r)
	}
}

func TestIndexLifecycle(t *testing.T) {
	fake := &qdrantFake{}
	server := httptest.NewServer(fake)
	defer server.Close()

	index := New(server.URL, "docs", embedderFake{}, nil, nil)
	ctx := context.Background()

	if index.Load(ctx, "") {
		t.Fatalf("expected load to fail for a missing collection")
	}
	if err := index.Save(ctx, ""); !domain.IsKind(err, domain.ErrIndexNotBuilt) {
		t.Fatalf("expected ErrIndexNotBuilt, got %v", err)
	}

	frags := make([]domain.Fragment, upsertBatchSize+1)
	for i := range frags {
		frags[i] = domain.Fragment{Text: strings.Repeat("t", i+1), Source: "a.txt", Sequence: i}
	}
	if err := index.Create(ctx, frags); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if fake.points != len(frags) {
		t.Fatalf("expected %d points, got %d", len(frags), fake.points)
	}
	if err := index.Save(ctx, ""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !index.Load(ctx, "") {
		t.Fatalf("expected load to succeed")
	}

	got, err := index.Search(ctx, "q", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Text != "alpha" || got[0].Sequence != 2 {
		t.Fatalf("unexpected search result %+v", got)
	}

	if err := index.Destroy(ctx, ""); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if index.Ready() || index.Load(ctx, "") {
		t.Fatalf("expected destroyed collection to stay unloaded")
	}
}

func TestCreateIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/docs" {
			http.Error(w, "boom", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := New(server.URL, "docs", embedderFake{}, nil, nil).Create(context.Background(), []domain.Fragment{{Text: "a"}})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}
