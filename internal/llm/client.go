package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/legal-assistant/docclient/pkg/logger"
)

var ErrMissingAPIKey = errors.New("generative QA API key is not set")

// UpstreamError is a failed call to the completion endpoint. StatusCode is 0
// when no response arrived.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("failed to create completion: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) HTTPStatus() int {
	return e.StatusCode
}

func upstreamError(err error) *UpstreamError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return &UpstreamError{Err: err}
}

type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxContextChars int
	Temperature     float32
	MaxTokens       int
	Timeout         time.Duration
}

// Client answers questions over a document with an OpenAI-compatible chat
// completion endpoint. It satisfies gateway.GenerativeAnswerer.
type Client struct {
	client          *openai.Client
	apiKey          string
	model           string
	maxContextChars int
	temperature     float32
	maxTokens       int
	timeout         time.Duration
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

type CompletionResponse struct {
	Content string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func NewClient(cfg Config) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	logger.Info("LLM client initialized",
		zap.String("model", cfg.Model),
		zap.String("base_url", clientConfig.BaseURL),
		zap.Bool("api_key_set", cfg.APIKey != ""),
	)

	return &Client{
		client:          openai.NewClientWithConfig(clientConfig),
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		maxContextChars: cfg.MaxContextChars,
		temperature:     cfg.Temperature,
		maxTokens:       cfg.MaxTokens,
		timeout:         timeout,
	}
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, upstreamError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("unexpected completion response: no choices")
	}

	logger.Debug("LLM completion generated",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return &CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Answer builds the legal assistant prompt from the truncated context. A
// non-positive maxTokens falls back to the configured limit.
func (c *Client) Answer(ctx context.Context, contextText, question string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	resp, err := c.Complete(ctx, CompletionRequest{
		UserPrompt:  buildPrompt(question, truncate(contextText, c.maxContextChars)),
		Temperature: c.temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(resp.Content)
	logger.Info("Generative answer produced",
		zap.Int("answer_length", len(answer)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return answer, nil
}

func buildPrompt(question, contextText string) string {
	return fmt.Sprintf(`You are a precise legal assistant.

Use ONLY the information in the CONTEXT below to answer the QUESTION.
If the answer is not clearly stated in the context, say: "The answer is not clearly specified in the provided text."

CONTEXT:
%s

QUESTION:
%s

Answer in 2-4 sentences in clear, formal English.
`, contextText, question)
}

// truncate keeps at most limit characters. A limit of zero keeps everything.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
