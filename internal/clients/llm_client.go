package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"github.com/vadiminshakov/tradegate/internal/domain"
	"github.com/vadiminshakov/tradegate/internal/services/promptbuilder"
	"github.com/vadiminshakov/tradegate/pkg/retrier"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 2
	defaultRetryDelay     = 500 * time.Millisecond
	defaultRequestsPerMin = 20
	defaultBreakerTimeout = time.Minute
	defaultTripFailures   = 3
	defaultMaxTokens      = 400
)

// LLMConfig OpenAI-compatible endpoint settings.
type LLMConfig struct {
	APIURL            string
	APIKey            string
	Model             string
	RequestsPerMinute int
	MaxRetries        int
	RetryDelay        time.Duration
	BreakerTimeout    time.Duration
}

// SentimentClient asks an OpenAI-compatible chat API for market sentiment.
// Calls are rate limited, retried on transient failures and guarded by a
// circuit breaker.
type SentimentClient struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retrier    *retrier.Retrier
	logger     *zap.Logger
}

// NewSentimentClient creates a sentiment client for an OpenAI-compatible API.
func NewSentimentClient(cfg LLMConfig, logger *zap.Logger) *SentimentClient {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultRequestsPerMin
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = defaultBreakerTimeout
	}

	c := &SentimentClient{
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		logger:  logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "llm-sentiment",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= defaultTripFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	c.retrier = retrier.New(
		retrier.WithMaxRetries(cfg.MaxRetries),
		retrier.WithInitialInterval(cfg.RetryDelay),
		retrier.WithRetryIf(retryable),
		retrier.WithOnRetry(func(attempt int, err error) {
			logger.Debug("retrying sentiment request", zap.Int("attempt", attempt), zap.Error(err))
		}),
	)

	return c
}

// chatRequest represents the request structure for OpenAI-compatible APIs
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse represents the response structure from OpenAI-compatible APIs
type chatResponse struct {
	ID      string    `json:"id"`
	Model   string    `json:"model"`
	Choices []choice  `json:"choices"`
	Error   *apiError `json:"error,omitempty"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// statusError non-200 response from the API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("LLM API returned status %d: %s", e.code, e.body)
}

// retryable reports whether a failed request may succeed when repeated.
// Client errors other than throttling will not.
func retryable(err error) bool {
	var serr *statusError
	if errors.As(err, &serr) {
		return serr.code >= http.StatusInternalServerError || serr.code == http.StatusTooManyRequests
	}
	return !errors.Is(err, context.Canceled)
}

// ExternalSentiment implements the sentiment provider contract.
func (c *SentimentClient) ExternalSentiment(ctx context.Context, req domain.SentimentRequest) (domain.ExternalSentiment, error) {
	if c.apiKey == "" {
		return domain.ExternalSentiment{}, errors.New("LLM API key is empty")
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: promptbuilder.SystemPrompt},
			{Role: "user", Content: promptbuilder.BuildUserPrompt(req)},
		},
		Temperature: 0.0,
		MaxTokens:   defaultMaxTokens,
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) (domain.ExternalSentiment, error) {
			if err := c.limiter.Wait(ctx); err != nil {
				return domain.ExternalSentiment{}, retrier.Permanent(err)
			}
			content, err := c.sendRequest(ctx, reqBody)
			if err != nil {
				return domain.ExternalSentiment{}, err
			}
			sentiment, err := domain.ParseExternalSentiment(content)
			if err != nil {
				return domain.ExternalSentiment{}, retrier.Permanent(errors.Wrap(err, "invalid sentiment response"))
			}
			return sentiment, nil
		})
	})
	if err != nil {
		return domain.ExternalSentiment{}, errors.Wrap(err, "sentiment request")
	}

	return out.(domain.ExternalSentiment), nil
}

func (c *SentimentClient) sendRequest(ctx context.Context, reqBody chatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", retrier.Permanent(errors.Wrap(err, "failed to marshal request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", retrier.Permanent(errors.Wrap(err, "failed to create HTTP request"))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode, body: string(body)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", retrier.Permanent(errors.Wrap(err, "failed to unmarshal response"))
	}

	if chatResp.Error != nil {
		return "", errors.Errorf("LLM API error: %s (type: %s, code: %s)",
			chatResp.Error.Message, chatResp.Error.Type, chatResp.Error.Code)
	}

	if len(chatResp.Choices) == 0 {
		return "", errors.New("LLM API returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}
