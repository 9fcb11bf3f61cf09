package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/usdforge/nimusd/internal/config"
	"github.com/usdforge/nimusd/internal/nimerr"
)

const (
	// defaultTemperature matches the hosted model's recommended setting.
	defaultTemperature = 0.7

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 8 << 20

	// maxErrorSnippet bounds how much of an error body is echoed in messages.
	maxErrorSnippet = 512
)

// AttemptRecorder observes every HTTP attempt made by the NIM provider.
// outcome is "ok" or the nimerr.Kind of the failure.
type AttemptRecorder interface {
	RecordAttempt(outcome string, status int, d time.Duration)
}

// NIMProvider implements Provider against an OpenAI-compatible NIM
// chat-completions endpoint. It is safe for concurrent use.
type NIMProvider struct {
	client     *http.Client
	endpoint   string
	model      string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	maxTokens  int
	recorder   AttemptRecorder
	logger     *slog.Logger
}

// Compile-time check that NIMProvider satisfies the Provider interface.
var _ Provider = (*NIMProvider)(nil)

// NIMOption configures a NIMProvider.
type NIMOption func(*NIMProvider)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) NIMOption {
	return func(p *NIMProvider) {
		if c != nil {
			p.client = c
		}
	}
}

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(n int) NIMOption {
	return func(p *NIMProvider) {
		p.maxRetries = n
	}
}

// WithBackoff sets the base delay between attempts. The delay doubles after
// each retry.
func WithBackoff(d time.Duration) NIMOption {
	return func(p *NIMProvider) {
		p.backoff = d
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) NIMOption {
	return func(p *NIMProvider) {
		p.timeout = d
	}
}

// WithRecorder attaches an attempt recorder (usually *metrics.Metrics).
func WithRecorder(r AttemptRecorder) NIMOption {
	return func(p *NIMProvider) {
		p.recorder = r
	}
}

// WithLogger sets the logger used for per-attempt diagnostics.
func WithLogger(l *slog.Logger) NIMOption {
	return func(p *NIMProvider) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewNIMProvider creates a provider from a resolved configuration. Options
// override the configuration's request policy.
func NewNIMProvider(cfg *config.Config, opts ...NIMOption) (*NIMProvider, error) {
	if cfg == nil {
		return nil, nimerr.New(nimerr.InvalidArgument, "llm: nil configuration")
	}
	if cfg.APIKey == "" {
		return nil, nimerr.New(nimerr.MissingCredential, "llm: %s not set and no API key provided", config.EnvAPIKey)
	}

	p := &NIMProvider{
		client:     &http.Client{},
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		maxTokens:  cfg.MaxTokens,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}

	if p.timeout <= 0 {
		p.timeout = config.DefaultTimeout
	}
	if p.maxRetries < 0 {
		p.maxRetries = 0
	}
	if p.maxTokens <= 0 {
		p.maxTokens = config.DefaultMaxTokens
	}
	return p, nil
}

// Model returns the default model configured for this provider.
func (p *NIMProvider) Model() string { return p.model }

// MaxRetries returns the configured retry count.
func (p *NIMProvider) MaxRetries() int { return p.maxRetries }

// Close releases pooled idle connections.
func (p *NIMProvider) Close() {
	p.client.CloseIdleConnections()
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens"`
	ExpertType  string        `json:"expert_type"`
	Stream      bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Index        int    `json:"index"`
		FinishReason string `json:"finish_reason"`
		Message      *struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete posts the request, retrying transient failures, and returns the
// first choice's message content.
func (p *NIMProvider) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(p.payload(req))
	if err != nil {
		return nil, nimerr.Wrap(nimerr.Internal, err, "marshal request")
	}

	requestID := uuid.NewString()
	attempts := p.maxRetries + 1

	var lastErr *nimerr.Error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := p.wait(ctx, attempt-1); err != nil {
				return nil, contextError(ctx)
			}
		}
		if ctx.Err() != nil {
			return nil, contextError(ctx)
		}

		start := time.Now()
		resp, retryable, aerr := p.attempt(ctx, body, requestID)
		elapsed := time.Since(start)

		if aerr == nil {
			p.record("ok", resp.StatusCode, elapsed)
			resp.Attempts = attempt
			resp.RequestID = requestID
			p.logger.Debug("nim request completed",
				"request_id", requestID, "attempt", attempt, "status", resp.StatusCode,
				"duration", elapsed, "completion_tokens", resp.Usage.CompletionTokens)
			return resp, nil
		}

		p.record(string(aerr.Kind), aerr.Status, elapsed)
		p.logger.Debug("nim attempt failed",
			"request_id", requestID, "attempt", attempt, "of", attempts,
			"kind", aerr.Kind, "status", aerr.Status, "retryable", retryable)

		if !retryable {
			return nil, aerr
		}
		lastErr = aerr
	}

	return nil, exhausted(lastErr, attempts)
}

func (p *NIMProvider) payload(req ChatRequest) chatCompletionRequest {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}
	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := p.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	msgs := make([]wireMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, wireMessage{Role: string(m.Role), Content: m.Content})
	}

	return chatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: temperature,
		TopP:        1,
		MaxTokens:   maxTokens,
		ExpertType:  "auto",
	}
}

// attempt performs one HTTP round trip. The bool reports whether a failure
// may be retried.
func (p *NIMProvider) attempt(ctx context.Context, body []byte, requestID string) (*ChatResponse, bool, *nimerr.Error) {
	actx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(actx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, nimerr.Wrap(nimerr.InvalidArgument, err, "build request for %s", p.endpoint)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("X-Request-Id", requestID)

	res, err := p.client.Do(httpReq)
	if err != nil {
		return nil, p.transportRetryable(ctx), p.transportError(ctx, err, "send request")
	}
	defer res.Body.Close() //nolint:errcheck // read-only body

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, p.transportRetryable(ctx), p.transportError(ctx, err, "read response")
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		e, retryable := p.classifyStatus(res.StatusCode, data)
		return nil, retryable, e
	}

	resp, perr := parseCompletion(data)
	if perr != nil {
		perr.Status = res.StatusCode
		return nil, false, perr
	}
	resp.StatusCode = res.StatusCode
	return resp, true, nil
}

// transportRetryable is false once the caller's own context is done; there
// is no point retrying a call nobody is waiting for.
func (p *NIMProvider) transportRetryable(ctx context.Context) bool {
	return ctx.Err() == nil
}

func (p *NIMProvider) transportError(ctx context.Context, err error, op string) *nimerr.Error {
	if ctx.Err() != nil {
		return contextError(ctx)
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &nimerr.Error{
			Kind:    nimerr.Timeout,
			Message: fmt.Sprintf("%s: no response from %s within %s", op, p.endpoint, p.timeout),
			Err:     err,
		}
	}
	return nimerr.Wrap(nimerr.NetworkFailure, err, "%s to %s", op, p.endpoint)
}

func (p *NIMProvider) classifyStatus(code int, body []byte) (*nimerr.Error, bool) {
	raw := string(body)
	e := &nimerr.Error{Status: code, Body: raw}
	retryable := false

	var hint string
	switch {
	case code == http.StatusBadRequest:
		e.Kind = nimerr.BadRequest
	case code == http.StatusUnauthorized:
		e.Kind = nimerr.Unauthorized
		hint = "API key may be invalid or expired; verify it at " + config.KeyURL
	case code == http.StatusForbidden:
		e.Kind = nimerr.Forbidden
		hint = "API key may not have access to this model; check its permissions at " + config.KeyURL
	case code == http.StatusNotFound:
		e.Kind = nimerr.NotFound
		hint = fmt.Sprintf("endpoint %s or model %s may be wrong; set %s or %s to override",
			p.endpoint, p.model, config.EnvEndpoint, config.EnvModel)
	case code == http.StatusTooManyRequests, code >= 500:
		e.Kind = nimerr.NetworkFailure
		retryable = true
	case code >= 400:
		e.Kind = nimerr.BadRequest
	default:
		e.Kind = nimerr.MalformedResponse
	}

	msg := fmt.Sprintf("NIM API returned %d %s", code, http.StatusText(code))
	if hint != "" {
		msg += ": " + hint
	}
	if snippet := strings.TrimSpace(raw); snippet != "" {
		if len(snippet) > maxErrorSnippet {
			snippet = snippet[:maxErrorSnippet] + "..."
		}
		msg += "; API response: " + snippet
	}
	e.Message = msg
	return e, retryable
}

func parseCompletion(data []byte) (*ChatResponse, *nimerr.Error) {
	var cr chatCompletionResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, &nimerr.Error{
			Kind:    nimerr.MalformedResponse,
			Message: fmt.Sprintf("decode response: %v", err),
			Body:    string(data),
			Err:     err,
		}
	}
	if len(cr.Choices) == 0 {
		return nil, &nimerr.Error{Kind: nimerr.MalformedResponse, Message: "response has no choices", Body: string(data)}
	}
	msg := cr.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return nil, &nimerr.Error{Kind: nimerr.MalformedResponse, Message: "first choice has no message content", Body: string(data)}
	}
	if strings.TrimSpace(*msg.Content) == "" {
		return nil, &nimerr.Error{Kind: nimerr.MalformedResponse, Message: "first choice has empty message content", Body: string(data)}
	}

	resp := &ChatResponse{
		Content: *msg.Content,
		Model:   cr.Model,
	}
	if cr.Usage != nil {
		resp.Usage = Usage{
			PromptTokens:     cr.Usage.PromptTokens,
			CompletionTokens: cr.Usage.CompletionTokens,
			TotalTokens:      cr.Usage.TotalTokens,
		}
	}
	return resp, nil
}

// wait sleeps for the backoff before retry n (1-based), returning early if
// ctx is done.
func (p *NIMProvider) wait(ctx context.Context, n int) error {
	d := p.backoff << (n - 1)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *NIMProvider) record(outcome string, status int, d time.Duration) {
	if p.recorder != nil {
		p.recorder.RecordAttempt(outcome, status, d)
	}
}

func contextError(ctx context.Context) *nimerr.Error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return &nimerr.Error{Kind: nimerr.Timeout, Message: "request deadline exceeded", Err: err}
	}
	return &nimerr.Error{Kind: nimerr.Canceled, Message: "request canceled", Err: err}
}

func exhausted(last *nimerr.Error, attempts int) *nimerr.Error {
	if last == nil {
		return nimerr.New(nimerr.NetworkFailure, "no attempts made")
	}
	kind := nimerr.NetworkFailure
	if last.Kind == nimerr.Timeout {
		kind = nimerr.Timeout
	}
	return &nimerr.Error{
		Kind:    kind,
		Message: fmt.Sprintf("giving up after %d attempts: %s", attempts, last.Message),
		Status:  last.Status,
		Body:    last.Body,
		Err:     last,
	}
}
