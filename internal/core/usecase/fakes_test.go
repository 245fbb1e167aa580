package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
)

type generatorCall struct {
	system string
	user   string
}

type generatorFake struct {
	mu        sync.Mutex
	calls     []generatorCall
	responses []string
	errs      []error
}

func (f *generatorFake) Complete(_ context.Context, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.calls)
	f.calls = append(f.calls, generatorCall{system: system, user: user})
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", nil
}

type rerankServiceFake struct {
	mu    sync.Mutex
	hits  []domain.RerankHit
	err   error
	calls int
	topK  int
	docs  []string
}

func (f *rerankServiceFake) Rerank(_ context.Context, _ string, documents []string, topK int) ([]domain.RerankHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.topK = topK
	f.docs = documents
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

// indexFake answers searches from a fixed per-query table.
type indexFake struct {
	mu        sync.Mutex
	persisted bool
	built     bool
	created   []domain.Fragment
	results   map[string][]domain.Fragment
	creates   int
	saves     int
	destroys  int
	loads     int
	searchErr error
}

func (f *indexFake) Load(context.Context, string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	f.built = f.persisted
	return f.persisted
}

func (f *indexFake) Create(_ context.Context, fragments []domain.Fragment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.created = fragments
	f.built = true
	return nil
}

func (f *indexFake) Save(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.built {
		return domain.WrapError(domain.ErrIndexNotBuilt, "save", errors.New("nothing to save"))
	}
	f.saves++
	f.persisted = true
	return nil
}

func (f *indexFake) Destroy(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroys++
	f.persisted = false
	f.built = false
	return nil
}

func (f *indexFake) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.built
}

func (f *indexFake) Search(_ context.Context, query string, k int) ([]domain.Fragment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := f.results[query]
	if out == nil && len(f.created) > 0 {
		out = f.created
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

type extractorFake struct {
	texts map[string]string
	err   error
}

func (f *extractorFake) Extract(_ context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for suffix, text := range f.texts {
		if strings.HasSuffix(path, suffix) {
			return text, nil
		}
	}
	return "", errors.New("unsupported file")
}

// pipeChunker splits on "|".
type pipeChunker struct{}

func (pipeChunker) Split(text string) []string {
	out := make([]string, 0, 4)
	for _, part := range strings.Split(text, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type artifactsFake struct {
	chunks    []domain.Fragment
	converted map[string]string
}

func (f *artifactsFake) SaveChunks(_ context.Context, chunks []domain.Fragment) error {
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *artifactsFake) SaveConverted(_ context.Context, name, content string) error {
	if f.converted == nil {
		f.converted = map[string]string{}
	}
	f.converted[name] = content
	return nil
}

// wordCounter counts whitespace-separated words.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func (wordCounter) Truncate(text string, maxTokens int) string {
	words := strings.Fields(text)
	if len(words) <= maxTokens {
		return text
	}
	if maxTokens <= 0 {
		return ""
	}
	offset := 0
	for _, w := range words[:maxTokens] {
		offset += strings.Index(text[offset:], w) + len(w)
	}
	return text[:offset]
}

type observerFake struct {
	mu        sync.Mutex
	stages    []domain.PipelineState
	queries   int
	failures  int
	fallbacks []string
}

func (f *observerFake) ObserveStage(_ domain.Variant, stage domain.PipelineState, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages = append(f.stages, stage)
}

func (f *observerFake) ObserveQuery(_ domain.Variant, _ int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if err != nil {
		f.failures++
	}
}

func (f *observerFake) RecordFallback(component, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallbacks = append(f.fallbacks, component+"/"+reason)
}

func fragments(texts ...string) []domain.Fragment {
	out := make([]domain.Fragment, len(texts))
	for i, text := range texts {
		out[i] = domain.Fragment{Text: text, Source: "doc.txt", Sequence: i}
	}
	return out
}

func ranked(texts ...string) []domain.RankedFragment {
	return RankByPosition(fragments(texts...))
}
