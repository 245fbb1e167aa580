package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
)

func TestRetrieverSearchBeforeLoad(t *testing.T) {
	r := NewRetriever(&indexFake{}, 1, nil)

	_, err := r.Search(context.Background(), "q", 3)
	if !domain.IsKind(err, domain.ErrIndexNotLoaded) {
		t.Fatalf("expected ErrIndexNotLoaded, got %v", err)
	}
}

func TestRetrieverLifecycle(t *testing.T) {
	index := &indexFake{}
	r := NewRetriever(index, 1, nil)
	ctx := context.Background()

	if r.LoadIndex(ctx, "idx") {
		t.Fatalf("expected load to fail on empty index")
	}
	if err := r.SaveIndex(ctx, "idx"); !domain.IsKind(err, domain.ErrIndexNotBuilt) {
		t.Fatalf("expected ErrIndexNotBuilt, got %v", err)
	}
	if err := r.CreateIndex(ctx, fragments("a", "b")); err != nil {
		t.Fatalf("CreateIndex() error = %v", err)
	}
	if err := r.SaveIndex(ctx, "idx"); err != nil {
		t.Fatalf("SaveIndex() error = %v", err)
	}
	if !r.LoadIndex(ctx, "idx") || !r.Loaded() {
		t.Fatalf("expected persisted index to load")
	}
	if err := r.DestroyIndex(ctx, "idx"); err != nil {
		t.Fatalf("DestroyIndex() error = %v", err)
	}
	if r.Loaded() || r.LoadIndex(ctx, "idx") {
		t.Fatalf("expected destroyed index to stay unloaded")
	}
}

func TestRetrieverSearchManyOrder(t *testing.T) {
	index := &indexFake{results: map[string][]domain.Fragment{
		"q1": fragments("a", "b", "c"),
		"q2": fragments("d"),
		"q3": fragments("e", "f"),
	}}
	for _, concurrency := range []int{1, 3} {
		r := NewRetriever(index, concurrency, nil)
		if err := r.CreateIndex(context.Background(), fragments("seed")); err != nil {
			t.Fatalf("CreateIndex() error = %v", err)
		}

		set, err := r.SearchMany(context.Background(), []string{"q3", "q1", "q2"}, 2)
		if err != nil {
			t.Fatalf("SearchMany() error = %v", err)
		}
		queries := set.Queries()
		if queries[0] != "q3" || queries[1] != "q1" || queries[2] != "q2" {
			t.Fatalf("unexpected order %#v", queries)
		}
		q1, _ := set.Get("q1")
		if len(q1) != 2 {
			t.Fatalf("expected k=2 results for q1, got %d", len(q1))
		}
	}
}

func TestRetrieverSearchManyPropagatesErrors(t *testing.T) {
	index := &indexFake{searchErr: errors.New("index broken")}
	r := NewRetriever(index, 2, nil)
	_ = r.CreateIndex(context.Background(), fragments("seed"))

	if _, err := r.SearchMany(context.Background(), []string{"a", "b"}, 2); err == nil {
		t.Fatalf("expected error")
	}
}
