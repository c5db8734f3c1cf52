package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/legal-assistant/docclient/internal/metrics"
	"github.com/legal-assistant/docclient/internal/result"
	"github.com/legal-assistant/docclient/pkg/circuitbreaker"
	"github.com/legal-assistant/docclient/pkg/logger"
)

const maxResponseBytes = 32 << 20

// GenerativeAnswerer answers a question from free text without a span. It
// replaces the answerGenerative HTTP route when configured. Errors that reached
// the model provider should expose HTTPStatus() int (0 when no response
// arrived); any other error is treated as a local configuration problem.
type GenerativeAnswerer interface {
	Answer(ctx context.Context, context, question string, maxTokens int) (string, error)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

func WithBreakers(breakers *circuitbreaker.Set) Option {
	return func(c *Client) {
		c.breakers = breakers
	}
}

func WithGenerativeAnswerer(answerer GenerativeAnswerer) Option {
	return func(c *Client) {
		c.generative = answerer
	}
}

// Client issues one request per call against the analysis service and maps
// each payload into a result type. It never retries.
type Client struct {
	baseURL    string
	http       *http.Client
	breakers   *circuitbreaker.Set
	generative GenerativeAnswerer
}

func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	logger.Info("Gateway client initialized",
		zap.String("base_url", c.baseURL),
		zap.Bool("breaker", c.breakers != nil),
		zap.Bool("direct_generative", c.generative != nil),
	)

	return c
}

func (c *Client) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filepath.Base(filename))))
	header.Set("Content-Type", contentTypeFor(filename))

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", newFailure(ExtractText, 0, "", fmt.Errorf("failed to create form part: %w", err))
	}
	if _, err := part.Write(data); err != nil {
		return "", newFailure(ExtractText, 0, "", fmt.Errorf("failed to write form part: %w", err))
	}
	if err := writer.Close(); err != nil {
		return "", newFailure(ExtractText, 0, "", fmt.Errorf("failed to close form: %w", err))
	}

	var resp extractTextResponse
	if err := c.post(ctx, ExtractText, writer.FormDataContentType(), &body, &resp); err != nil {
		return "", err
	}

	if resp.Text == nil {
		return "", nil
	}
	return *resp.Text, nil
}

func (c *Client) Summarize(ctx context.Context, text string, maxTokens int) (result.Summary, error) {
	var resp summarizeResponse
	if err := c.postJSON(ctx, Summarize, summarizeRequest{Text: text, MaxNewTokens: maxTokens}, &resp); err != nil {
		return result.Summary{}, err
	}
	return normalizeSummary(resp), nil
}

func (c *Client) ExtractEntities(ctx context.Context, text string) (result.Entities, error) {
	var resp nerResponse
	if err := c.postJSON(ctx, ExtractEntities, nerRequest{Text: text}, &resp); err != nil {
		return result.Entities{}, err
	}
	return normalizeEntities(resp.Entities), nil
}

func (c *Client) AnswerExtractive(ctx context.Context, contextText, question string) (result.QA, error) {
	var resp qaPayload
	if err := c.postJSON(ctx, AnswerExtractive, qaRequest{Context: contextText, Question: question}, &resp); err != nil {
		return result.QA{}, err
	}
	return normalizeExtractive(&resp), nil
}

func (c *Client) AnswerGenerative(ctx context.Context, contextText, question string, maxTokens int) (result.QA, error) {
	if c.generative != nil {
		return c.answerDirect(ctx, contextText, question, maxTokens)
	}

	var resp qaGenResponse
	req := qaGenRequest{Context: contextText, Question: question, MaxNewTokens: maxTokens}
	if err := c.postJSON(ctx, AnswerGenerative, req, &resp); err != nil {
		return result.QA{}, err
	}
	return normalizeFreeText(resp.Answer), nil
}

func (c *Client) AnswerRag(ctx context.Context, contextText, question string, topK int) (result.QA, error) {
	var resp qaRagResponse
	req := qaRagRequest{Context: contextText, Question: question, TopK: topK}
	if err := c.postJSON(ctx, AnswerRag, req, &resp); err != nil {
		return result.QA{}, err
	}
	return normalizeFreeText(resp.Answer), nil
}

// AnalyzeCombined sends question as JSON null when it is nil.
func (c *Client) AnalyzeCombined(ctx context.Context, text string, question *string, maxTokens int) (result.Combined, error) {
	var resp analyzeResponse
	req := analyzeRequest{Text: text, Question: question, MaxNewTokens: maxTokens}
	if err := c.postJSON(ctx, AnalyzeCombined, req, &resp); err != nil {
		return result.Combined{}, err
	}
	return normalizeCombined(resp), nil
}

func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode health response: %w", err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("service reported status %q", health.Status)
	}
	return nil
}

func (c *Client) answerDirect(ctx context.Context, contextText, question string, maxTokens int) (result.QA, error) {
	var answer string
	err := c.guard(ctx, AnswerGenerative, func() error {
		var err error
		answer, err = c.generative.Answer(ctx, contextText, question, maxTokens)
		if err == nil {
			return nil
		}

		var failure *Failure
		if errors.As(err, &failure) {
			return failure
		}
		var upstream interface{ HTTPStatus() int }
		if errors.As(err, &upstream) {
			return newFailure(AnswerGenerative, upstream.HTTPStatus(), "", err)
		}
		return localFailure(AnswerGenerative, err)
	})
	if err != nil {
		return result.QA{}, err
	}
	return normalizeFreeText(&answer), nil
}

func (c *Client) postJSON(ctx context.Context, capability Capability, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return newFailure(capability, 0, "", fmt.Errorf("failed to marshal request: %w", err))
	}
	return c.post(ctx, capability, "application/json", bytes.NewReader(payload), out)
}

func (c *Client) post(ctx context.Context, capability Capability, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+capability.Path(), body)
	if err != nil {
		return newFailure(capability, 0, "", fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	return c.guard(ctx, capability, func() error {
		return c.do(req, capability, out)
	})
}

func (c *Client) do(req *http.Request, capability Capability, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return newFailure(capability, 0, "", fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return newFailure(capability, resp.StatusCode, "", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusFailure(capability, resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return newFailure(capability, resp.StatusCode, "", fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// guard applies the capability breaker, metrics and logging around fn.
func (c *Client) guard(ctx context.Context, capability Capability, fn func() error) error {
	requestID := uuid.New().String()
	start := time.Now()

	var err error
	if c.breakers != nil {
		breaker := c.breakers.Get(capability.String())
		err = breaker.Execute(fn, countable)
		metrics.BreakerState.WithLabelValues(capability.String()).Set(float64(breaker.State()))
		if errors.Is(err, circuitbreaker.ErrOpen) {
			metrics.CapabilityTotal.WithLabelValues(capability.String(), "rejected").Inc()
			logger.Warn("Capability call rejected by open breaker",
				zap.String("capability", capability.String()),
				zap.String("request_id", requestID),
			)
			return newFailure(capability, 0, "", err)
		}
	} else {
		err = fn()
	}

	elapsed := time.Since(start)
	metrics.CapabilityDuration.WithLabelValues(capability.String()).Observe(elapsed.Seconds())

	if err != nil {
		metrics.CapabilityTotal.WithLabelValues(capability.String(), "failure").Inc()
		fields := []zap.Field{
			zap.String("capability", capability.String()),
			zap.String("request_id", requestID),
			zap.Duration("latency", elapsed),
			zap.Error(err),
		}
		var failure *Failure
		if errors.As(err, &failure) {
			fields = append(fields, zap.Int("status_code", failure.StatusCode))
			if failure.Err != nil {
				fields = append(fields, zap.NamedError("cause", failure.Err))
			}
		}
		if ctx.Err() != nil {
			fields = append(fields, zap.NamedError("context", ctx.Err()))
		}
		logger.Warn("Capability call failed", fields...)
		return err
	}

	metrics.CapabilityTotal.WithLabelValues(capability.String(), "success").Inc()
	logger.Info("Capability call completed",
		zap.String("capability", capability.String()),
		zap.String("request_id", requestID),
		zap.Duration("latency", elapsed),
	)
	return nil
}

func countable(err error) bool {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Transient()
	}
	return true
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
