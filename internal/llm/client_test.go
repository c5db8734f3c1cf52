package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newCompletionServer(t *testing.T, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"llama-3.1-8b-instant",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  The agency was created in 1890.  "},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":40,"completion_tokens":9,"total_tokens":49}
		}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnswer(t *testing.T) {
	var got chatRequest
	srv := newCompletionServer(t, &got)

	client := NewClient(Config{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		Model:           "llama-3.1-8b-instant",
		MaxContextChars: 10,
		Temperature:     0.2,
		MaxTokens:       256,
	})

	answer, err := client.Answer(context.Background(), "The Act of 1890 established the agency.", "When?", 128)
	require.NoError(t, err)
	assert.Equal(t, "The agency was created in 1890.", answer)

	assert.Equal(t, "llama-3.1-8b-instant", got.Model)
	assert.Equal(t, 128, got.MaxTokens)
	assert.InDelta(t, 0.2, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "CONTEXT:\nThe Act of\n")
	assert.NotContains(t, got.Messages[0].Content, "1890")
	assert.Contains(t, got.Messages[0].Content, "QUESTION:\nWhen?\n")
}

func TestAnswerFallsBackToConfiguredTokens(t *testing.T) {
	var got chatRequest
	srv := newCompletionServer(t, &got)

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "m", MaxTokens: 256})
	_, err := client.Answer(context.Background(), "ctx", "q", 0)
	require.NoError(t, err)
	assert.Equal(t, 256, got.MaxTokens)
}

func TestAnswerUpstreamError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error body", http.StatusInternalServerError, `{"error":{"message":"model overloaded","type":"server_error"}}`},
		{"plain body", http.StatusBadGateway, `bad gateway`},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "m"})
			_, err := client.Answer(context.Background(), "ctx", "q", 128)

			var upstream *UpstreamError
			require.True(t, errors.As(err, &upstream))
			assert.Equal(t, tt.status, upstream.HTTPStatus())
		})
	}
}

func TestAnswerUnreachable(t *testing.T) {
	client := NewClient(Config{APIKey: "test-key", BaseURL: "http://127.0.0.1:1", Model: "m"})
	_, err := client.Answer(context.Background(), "ctx", "q", 128)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 0, upstream.HTTPStatus())
}

func TestAnswerMissingKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Model: "m"})

	_, err := client.Answer(context.Background(), "ctx", "q", 128)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	var upstream *UpstreamError
	assert.False(t, errors.As(err, &upstream))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 0))
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "§§", truncate(strings.Repeat("§", 5), 2))
}
