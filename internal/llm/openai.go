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

	pcerrors "git.home.luguber.info/inful/pagecraft/internal/errors"
	"git.home.luguber.info/inful/pagecraft/internal/metrics"
)

// OpenAIConfig configures the OpenAI-compatible chat completion client.
type OpenAIConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int           // transport-level retries for transient failures
	RetryDelay  time.Duration // base delay, scaled linearly per attempt
}

// OpenAIClient calls an OpenAI-compatible chat completions endpoint. Transient
// transport failures (timeouts, 429, 5xx) are retried with bounded backoff;
// everything else fails immediately.
type OpenAIClient struct {
	cfg      OpenAIConfig
	http     *http.Client
	recorder metrics.Recorder
}

// NewOpenAIClient creates a client; recorder may be nil.
func NewOpenAIClient(cfg OpenAIConfig, recorder metrics.Recorder) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, pcerrors.New(pcerrors.CategoryConfig, pcerrors.SeverityFatal, "llm api key is not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &OpenAIClient{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		recorder: recorder,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	ResponseFmt *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the request and returns the raw response text. The response
// is requested as JSON but never trusted; callers decode and validate.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.cfg.Temperature
	}

	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: temperature,
		ResponseFmt: &respFormat{Type: "json_object"},
	}

	var lastErr error
	attempts := c.cfg.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		t0 := time.Now()
		text, err := c.doRequest(ctx, body)
		c.recorder.ObserveLLMCallDuration(req.Op, time.Since(t0), err == nil)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !isTransient(err) || attempt == attempts {
			break
		}
		c.recorder.IncLLMRetry(req.Op)
		delay := c.cfg.RetryDelay * time.Duration(attempt)
		slog.Warn("Transient LLM error, retrying",
			"op", req.Op, "attempt", attempt, "max_attempts", attempts, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	return "", pcerrors.Wrap(lastErr, pcerrors.CategoryLLM, pcerrors.SeverityFatal,
		fmt.Sprintf("llm call %q failed after %d attempt(s)", req.Op, attempts))
}

func (c *OpenAIClient) doRequest(ctx context.Context, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusError{Status: resp.StatusCode, Body: truncate(string(data), 300)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm api error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm response contains no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

type httpStatusError struct {
	Status int
	Body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm http status %d: %s", e.Status, e.Body)
}

// isTransient classifies errors worth retrying: timeouts, connection
// failures, rate limiting, and server-side errors.
func isTransient(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status == http.StatusTooManyRequests || statusErr.Status >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection refused", "connection reset", "temporarily", "overloaded"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
