package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/agentdesk/agentdesk/internal/metrics"
)

var (
	ErrNotConfigured = errors.New("chat webhook URL not configured")
	ErrEmptyResponse = errors.New("empty response from chat webhook")
)

// StatusError is returned when the webhook answers with a non-2xx status.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat webhook returned %s", e.Status)
}

// Request is one chat turn sent to the automation.
type Request struct {
	SessionID string
	ChatInput string
	Metadata  map[string]any
}

type payload struct {
	Action    string         `json:"action"`
	SessionID string         `json:"sessionId"`
	ChatInput string         `json:"chatInput"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type Options struct {
	URL        string
	Timeout    time.Duration
	Retries    int
	Metrics    *metrics.Recorder
	HTTPClient *http.Client
}

type Client struct {
	url        string
	httpClient *http.Client
	retries    int
	metrics    *metrics.Recorder
	newBackOff func() backoff.BackOff
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		url:        strings.TrimSpace(opts.URL),
		httpClient: httpClient,
		retries:    retries,
		metrics:    opts.Metrics,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// Send posts one chat turn and returns the decoded response body. Transport
// errors, 5xx and 429 responses are retried; everything else fails at once.
func (c *Client) Send(ctx context.Context, req Request) (any, error) {
	if !c.Configured() {
		c.metrics.WebhookRequest(metrics.OutcomeUnavailable)
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(payload{
		Action:    "sendMessage",
		SessionID: req.SessionID,
		ChatInput: req.ChatInput,
		Metadata:  req.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("encode webhook request: %w", err)
	}

	result, err := backoff.Retry(ctx, func() (any, error) {
		return c.post(ctx, body)
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.retries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.metrics.WebhookRequest(metrics.OutcomeRetry)
		}),
	)
	if err != nil {
		c.metrics.WebhookRequest(metrics.OutcomeFailure)
		return nil, err
	}
	c.metrics.WebhookRequest(metrics.OutcomeSuccess)
	return result, nil
}

func (c *Client) post(ctx context.Context, body []byte) (any, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("chat webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Code: resp.StatusCode, Status: resp.Status}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				return nil, backoff.RetryAfter(secs)
			}
			return nil, statusErr
		case resp.StatusCode >= 500:
			return nil, statusErr
		default:
			return nil, backoff.Permanent(statusErr)
		}
	}

	return decodeBody(raw)
}

func decodeBody(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, backoff.Permanent(ErrEmptyResponse)
	}
	var data any
	if err := json.Unmarshal(trimmed, &data); err != nil {
		preview := string(trimmed)
		if len(preview) > 100 {
			preview = preview[:100]
		}
		return nil, backoff.Permanent(fmt.Errorf("invalid JSON from chat webhook: %q: %w", preview, err))
	}
	return data, nil
}
