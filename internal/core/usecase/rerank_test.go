package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
)

func TestRerankerUsesServiceOrder(t *testing.T) {
	service := &rerankServiceFake{hits: []domain.RerankHit{
		{Index: 2, RelevanceScore: 0.9},
		{Index: 0, RelevanceScore: 0.5},
	}}
	r := NewReranker(service, 1, nil, nil)

	got, err := r.Rerank(context.Background(), "q", fragments("a", "b", "c"), 2)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if len(got) != 2 || got[0].Fragment.Text != "c" || got[1].Fragment.Text != "a" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Rank != 0 || got[1].Rank != 1 || got[0].OriginalIndex != 2 {
		t.Fatalf("unexpected ranks: %+v", got)
	}
	if service.topK != 2 {
		t.Fatalf("expected topK=2 forwarded, got %d", service.topK)
	}
}

func TestRerankerFallbackIsRankStable(t *testing.T) {
	cases := map[string]*Reranker{
		"unconfigured":  NewReranker(nil, 1, nil, nil),
		"service error": NewReranker(&rerankServiceFake{err: errors.New("503")}, 1, nil, nil),
		"out of range":  NewReranker(&rerankServiceFake{hits: []domain.RerankHit{{Index: 7, RelevanceScore: 1}}}, 1, nil, nil),
		"empty":         NewReranker(&rerankServiceFake{}, 1, nil, nil),
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := r.Rerank(context.Background(), "q", fragments("a", "b", "c"), 0)
			if err != nil {
				t.Fatalf("Rerank() error = %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("expected 3 results, got %d", len(got))
			}
			for i, item := range got {
				if item.OriginalIndex != i || item.Rank != i {
					t.Fatalf("item %d out of order: %+v", i, item)
				}
				if want := 1.0 - 0.1*float64(i); math.Abs(item.Score-want) > 1e-9 {
					t.Fatalf("item %d score = %v, want %v", i, item.Score, want)
				}
			}
		})
	}
}

func TestRerankerFallbackRespectsTopK(t *testing.T) {
	observer := &observerFake{}
	r := NewReranker(nil, 1, observer, nil)

	got, err := r.Rerank(context.Background(), "q", fragments("a", "b", "c"), 2)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected fallback cut to 2, got %d", len(got))
	}
	if len(observer.fallbacks) != 1 || observer.fallbacks[0] != "reranker/unconfigured" {
		t.Fatalf("unexpected fallbacks: %#v", observer.fallbacks)
	}
}

func TestRerankerRejectsEmptyInput(t *testing.T) {
	_, err := NewReranker(nil, 1, nil, nil).Rerank(context.Background(), "q", nil, 3)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRerankManyKeepsQueryOrder(t *testing.T) {
	candidates := domain.NewCandidateSet()
	candidates.Set("q1", fragments("d1", "d2"))
	candidates.Set("q2", nil)
	candidates.Set("q3", fragments("d1", "d3"))

	for _, concurrency := range []int{1, 4} {
		r := NewReranker(nil, concurrency, nil, nil)
		out, err := r.RerankMany(context.Background(), candidates, 0)
		if err != nil {
			t.Fatalf("RerankMany() error = %v", err)
		}
		queries := out.Queries()
		if len(queries) != 3 || queries[0] != "q1" || queries[1] != "q2" || queries[2] != "q3" {
			t.Fatalf("unexpected query order: %#v", queries)
		}
		empty, _ := out.Get("q2")
		if len(empty) != 0 {
			t.Fatalf("expected no results for q2, got %+v", empty)
		}
	}
}
