package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/resilience"
)

func TestGeneratorSendsSystemAndUserMessages(t *testing.T) {
	var payload struct {
		Model    string              `json:"model"`
		Messages []map[string]string `json:"messages"`
		Stream   bool                `json:"stream"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":" ok "}}`))
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "chat-model", "embed-model", nil))
	got, err := gen.Complete(context.Background(), "be strict", "question?")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected completion %q", got)
	}
	if payload.Model != "chat-model" || len(payload.Messages) != 2 || payload.Messages[0]["role"] != "system" || payload.Messages[1]["content"] != "question?" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestEmbedBatchesAndKeepsOrder(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		var payload struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		vectors := make([][]float32, len(payload.Input))
		for i := range payload.Input {
			vectors[i] = []float32{float32(len(payload.Input[i]))}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": vectors})
	}))
	defer server.Close()

	texts := make([]string, embedBatchSize+3)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}
	vectors, err := NewEmbedder(New(server.URL, "gen", "embed", nil)).Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if requests != 2 || len(vectors) != len(texts) || vectors[embedBatchSize][0] != float32(embedBatchSize+1) {
		t.Fatalf("unexpected embedding result: requests=%d vectors=%d", requests, len(vectors))
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
	}, nil)
	_, err := NewEmbedder(New(server.URL, "gen", "embed", exec)).Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 502 to be temporary, got %v", err)
	}
}
