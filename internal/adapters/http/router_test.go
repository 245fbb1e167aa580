package httpadapter

import (
	"context"
	"net/http"

	"github.com/kirillkom/rationale-rag/internal/config"
	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/core/ports"
)

type pipelineFake struct {
	result  *domain.QueryResult
	runErr  error
	initErr error

	queries   []string
	initCalls []initCall
}

type initCall struct {
	dir          string
	reinitialize bool
	fileName     string
}

func (f *pipelineFake) Variant() domain.Variant { return domain.VariantRationale }

func (f *pipelineFake) Initialize(_ context.Context, dir string, reinitialize bool, fileName string) error {
	f.initCalls = append(f.initCalls, initCall{dir: dir, reinitialize: reinitialize, fileName: fileName})
	return f.initErr
}

func (f *pipelineFake) ProcessQuery(ctx context.Context, query string) (string, error) {
	result, err := f.Run(ctx, query)
	if err != nil {
		return "", err
	}
	return result.Answer, nil
}

func (f *pipelineFake) Run(_ context.Context, query string) (*domain.QueryResult, error) {
	f.queries = append(f.queries, query)
	if f.runErr != nil {
		return nil, f.runErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.QueryResult{
		RunID:   "run-1",
		Variant: domain.VariantRationale,
		Query:   query,
		Answer:  "ok",
	}, nil
}

type queueFake struct {
	published []ports.ReindexRequest
	err       error
}

func (f *queueFake) PublishReindex(_ context.Context, req ports.ReindexRequest) error {
	f.published = append(f.published, req)
	return f.err
}

func (f *queueFake) SubscribeReindex(context.Context, func(context.Context, ports.ReindexRequest) error) error {
	return nil
}

func newTestHandler(cfg config.Config, pipeline *pipelineFake) http.Handler {
	if pipeline == nil {
		pipeline = &pipelineFake{}
	}
	return NewRouter(cfg, pipeline, nil, nil, nil).Handler()
}
