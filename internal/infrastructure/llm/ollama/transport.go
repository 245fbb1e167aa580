package ollama

import (
	"context"

	"github.com/kirillkom/rationale-rag/internal/infrastructure/resilience"
)

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	call := func(ctx context.Context) error {
		return resilience.PostJSON(ctx, c.httpClient, c.baseURL+path, nil, payload, out, "ollama", operation)
	}
	if c.executor == nil {
		return resilience.WrapTemporary("ollama "+operation, call(ctx))
	}
	err := c.executor.Execute(ctx, "ollama."+operation, call, resilience.ClassifyHTTP)
	return resilience.WrapTemporary("ollama "+operation, err)
}
