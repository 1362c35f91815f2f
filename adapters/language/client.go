package language

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satriahrh/parlez/domain/entities"
	"github.com/satriahrh/parlez/domain/repositories"
)

const (
	translationPath   = "/api/translation"
	pronunciationPath = "/api/monitor/pronunciation"
	followupPath      = "/api/followup"

	defaultTimeout = 30 * time.Second
)

// Config configures the upstream language service client
type Config struct {
	BaseURL      string
	Timeout      time.Duration // per attempt
	MaxRetries   int           // extra attempts after the first, transient failures only
	RetryBackoff time.Duration // doubled after every attempt
	RatePerMin   int           // 0 disables rate limiting
}

// Client calls the translation, pronunciation and follow-up endpoints
type Client struct {
	baseURL      string
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	limiter      *rate.Limiter
	logger       *zap.Logger
}

var _ repositories.LanguageService = (*Client)(nil)

type translationRequest struct {
	Prompt   string `json:"prompt"`
	Language string `json:"language"`
}

type pronunciationRequest struct {
	Phoneme  string `json:"phoneme"`
	Language string `json:"language"`
}

type followupRequest struct {
	Prev string `json:"prev"`
}

type textReply struct {
	Message *string `json:"message"`
}

type segmentsReply struct {
	Message []string `json:"message"`
}

// statusError is a non-2xx reply from the upstream service
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// NewClient creates a language service client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("language service base URL is required")
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative, got %d", cfg.MaxRetries)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerMin > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMin)/60.0), 1)
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		limiter:      limiter,
		logger:       logger,
	}, nil
}

// Translate asks the service how to say prompt in language
func (c *Client) Translate(ctx context.Context, prompt, language string) (string, error) {
	var reply textReply
	if err := c.post(ctx, translationPath, translationRequest{Prompt: prompt, Language: language}, &reply); err != nil {
		return "", err
	}
	if reply.Message == nil {
		return "", fmt.Errorf("%w: translation reply has no message", entities.ErrUpstreamMalformed)
	}
	return *reply.Message, nil
}

// Pronunciation asks the service for feedback on phoneme
func (c *Client) Pronunciation(ctx context.Context, phoneme, language string) ([]string, error) {
	var reply segmentsReply
	if err := c.post(ctx, pronunciationPath, pronunciationRequest{Phoneme: phoneme, Language: language}, &reply); err != nil {
		return nil, err
	}
	if reply.Message == nil {
		return nil, fmt.Errorf("%w: pronunciation reply has no message list", entities.ErrUpstreamMalformed)
	}
	return reply.Message, nil
}

// Followup asks the service to continue from the previous avatar message
func (c *Client) Followup(ctx context.Context, prev string) (string, error) {
	var reply textReply
	if err := c.post(ctx, followupPath, followupRequest{Prev: prev}, &reply); err != nil {
		return "", err
	}
	if reply.Message == nil {
		return "", fmt.Errorf("%w: follow-up reply has no message", entities.ErrUpstreamMalformed)
	}
	return *reply.Message, nil
}

// post sends payload to path and decodes the reply into out, retrying transient failures
func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", entities.ErrUpstream, err)
		}

		lastErr = c.do(ctx, path, body, out)
		if lastErr == nil || !retryable(lastErr) || attempt == c.maxRetries {
			break
		}

		backoff := c.retryBackoff << uint(attempt)
		c.logger.Warn("Language service request failed, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %v", entities.ErrUpstream, ctx.Err())
		case <-timer.C:
		}
	}

	if lastErr == nil {
		return nil
	}
	if errors.Is(lastErr, entities.ErrUpstreamMalformed) {
		return lastErr
	}
	return fmt.Errorf("%w: %s: %v", entities.ErrUpstream, path, lastErr)
}

func (c *Client) do(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, body: string(errorBody)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", entities.ErrUpstreamMalformed, path, err)
	}
	return nil
}

// retryable reports whether err is a transport failure or a 5xx reply
func retryable(err error) bool {
	if errors.Is(err, entities.ErrUpstreamMalformed) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return true
}
