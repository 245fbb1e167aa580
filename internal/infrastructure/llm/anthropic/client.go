package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kirillkom/rationale-rag/internal/infrastructure/resilience"
)

const defaultMaxTokens = 4096

// Generator is a ports.TextGenerator backed by the Messages API.
type Generator struct {
	client    sdk.Client
	model     string
	maxTokens int64
	executor  *resilience.Executor
}

func NewGenerator(baseURL, apiKey, model string, maxTokens int, executor *resilience.Executor) *Generator {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Retries belong to the executor.
		option.WithMaxRetries(0),
	}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Generator{
		client:    sdk.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
		executor:  executor,
	}
}

func (g *Generator) Complete(ctx context.Context, system, user string) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(user)),
		},
	}
	if strings.TrimSpace(system) != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	var text string
	call := func(ctx context.Context) error {
		resp, err := g.client.Messages.New(ctx, params)
		if err != nil {
			return asStatusError(err)
		}
		var b strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		text = b.String()
		return nil
	}

	var err error
	if g.executor != nil {
		err = g.executor.Execute(ctx, "anthropic.messages", call, resilience.ClassifyHTTP)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", resilience.WrapTemporary("anthropic messages", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("anthropic messages: no text in response")
	}
	return strings.TrimSpace(text), nil
}

// asStatusError converts SDK API errors so the shared HTTP classifier applies.
func asStatusError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		statusErr := &resilience.StatusError{
			Service:    "anthropic",
			Operation:  "messages",
			StatusCode: apiErr.StatusCode,
			Status:     fmt.Sprintf("%d", apiErr.StatusCode),
			Body:       apiErr.Error(),
		}
		if apiErr.Response != nil {
			statusErr.RetryAfter = resilience.ParseRetryAfter(apiErr.Response.Header.Get("Retry-After"), time.Now())
		}
		return statusErr
	}
	return err
}
