package voyage

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://api.voyageai.com"
	DefaultModel   = "rerank-2"
)

// Client is a ports.RerankService over the Voyage rerank endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, model string, executor *resilience.Executor) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

type rerankRequest struct {
	Query      string   `json:"query"`
	Documents  []string `json:"documents"`
	Model      string   `json:"model"`
	TopK       *int     `json:"top_k,omitempty"`
	Truncation bool     `json:"truncation"`
}

type rerankResponse struct {
	Data []domain.RerankHit `json:"data"`
}

func (c *Client) Rerank(ctx context.Context, query string, documents []string, topK int) ([]domain.RerankHit, error) {
	request := rerankRequest{
		Query:      query,
		Documents:  documents,
		Model:      c.model,
		Truncation: true,
	}
	if topK > 0 {
		request.TopK = &topK
	}

	var response rerankResponse
	call := func(ctx context.Context) error {
		return resilience.PostJSON(ctx, c.httpClient, c.baseURL+"/v1/rerank",
			map[string]string{"Authorization": "Bearer " + c.apiKey},
			request, &response, "voyage", "rerank")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "voyage.rerank", call, resilience.ClassifyHTTP)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, resilience.WrapTemporary("voyage rerank", err)
	}
	return response.Data, nil
}
