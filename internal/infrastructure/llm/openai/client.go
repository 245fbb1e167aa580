package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/rationale-rag/internal/infrastructure/resilience"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// Generator is a ports.TextGenerator over the chat completions endpoint.
type Generator struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func NewGenerator(baseURL, apiKey, model string, executor *resilience.Executor) *Generator {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Generator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 180 * time.Second},
		executor:   executor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *Generator) Complete(ctx context.Context, system, user string) (string, error) {
	request := chatRequest{Model: g.model}
	if strings.TrimSpace(system) != "" {
		request.Messages = append(request.Messages, chatMessage{Role: "system", Content: system})
	}
	request.Messages = append(request.Messages, chatMessage{Role: "user", Content: user})

	var response chatResponse
	call := func(ctx context.Context) error {
		return resilience.PostJSON(ctx, g.httpClient, g.baseURL+"/chat/completions",
			map[string]string{"Authorization": "Bearer " + g.apiKey},
			request, &response, "openai", "chat")
	}

	var err error
	if g.executor != nil {
		err = g.executor.Execute(ctx, "openai.chat", call, resilience.ClassifyHTTP)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", resilience.WrapTemporary("openai chat", err)
	}
	if len(response.Choices) == 0 {
		return "", errors.New("openai chat: response has no choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
