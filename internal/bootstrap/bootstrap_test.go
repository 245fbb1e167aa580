package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/rationale-rag/internal/config"
	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/core/ports"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Defaults()
	cfg.DocumentsDir = filepath.Join(root, "documents")
	cfg.TempDir = filepath.Join(root, "chunks")
	cfg.IndexPath = filepath.Join(root, "index")
	return cfg
}

func TestNewBuildsSelectedVariantAndDirectories(t *testing.T) {
	cfg := testConfig(t)

	for _, variant := range []domain.Variant{domain.VariantSimple, domain.VariantReranker, domain.VariantRationale} {
		app, err := New(cfg, Options{Variant: variant})
		if err != nil {
			t.Fatalf("new %s: %v", variant, err)
		}
		if app.Pipeline.Variant() != variant {
			t.Fatalf("expected variant %s, got %s", variant, app.Pipeline.Variant())
		}
		if app.Queue != nil {
			t.Fatalf("queue must stay disabled without NATS_URL")
		}
		app.Close()
	}

	for _, dir := range []string{cfg.DocumentsDir, cfg.TempDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist: %v", dir, err)
		}
	}
}

func TestNewRejectsUnknownProviderAndBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.GenerationProvider = "mystery"
	if _, err := New(cfg, Options{Variant: domain.VariantSimple}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for provider, got %v", err)
	}

	cfg = testConfig(t)
	cfg.IndexBackend = "faiss"
	if _, err := New(cfg, Options{Variant: domain.VariantSimple}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for backend, got %v", err)
	}
}

func TestNewGeneratorIsNilWithoutCredential(t *testing.T) {
	cfg := testConfig(t)

	gen, err := newGenerator(cfg, nil)
	if err != nil || gen != nil {
		t.Fatalf("expected nil openai generator without key, got %v %v", gen, err)
	}

	cfg.GenerationProvider = config.ProviderAnthropic
	gen, err = newGenerator(cfg, nil)
	if err != nil || gen != nil {
		t.Fatalf("expected nil anthropic generator without key, got %v %v", gen, err)
	}

	cfg.GenerationProvider = config.ProviderOllama
	gen, err = newGenerator(cfg, nil)
	if err != nil || gen == nil {
		t.Fatalf("expected ollama generator without credential, got %v %v", gen, err)
	}
}

type pipelineStub struct {
	err   error
	calls []ports.ReindexRequest
}

func (p *pipelineStub) Variant() domain.Variant { return domain.VariantRationale }

func (p *pipelineStub) Initialize(_ context.Context, _ string, reinitialize bool, fileName string) error {
	p.calls = append(p.calls, ports.ReindexRequest{FileName: fileName, Reinitialize: reinitialize})
	return p.err
}

func (p *pipelineStub) ProcessQuery(context.Context, string) (string, error) { return "", nil }

func (p *pipelineStub) Run(context.Context, string) (*domain.QueryResult, error) { return nil, nil }

func TestReindexHandlerInitializesPipeline(t *testing.T) {
	app, err := New(testConfig(t), Options{Variant: domain.VariantRationale})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	stub := &pipelineStub{}
	app.Pipeline = stub

	handler := app.ReindexHandler()
	if err := handler(context.Background(), ports.ReindexRequest{FileName: "a.txt", Reinitialize: true}); err != nil {
		t.Fatalf("reindex: %v", err)
	}
	stub.err = errors.New("extract failed")
	if err := handler(context.Background(), ports.ReindexRequest{}); err == nil {
		t.Fatalf("expected reindex error to propagate")
	}

	if len(stub.calls) != 2 || stub.calls[0].FileName != "a.txt" || !stub.calls[0].Reinitialize {
		t.Fatalf("unexpected initialize calls: %+v", stub.calls)
	}
	got, err := testutil.GatherAndCount(app.Registry, "rdrag_worker_reindex_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected success and error series, got %d", got)
	}
}
