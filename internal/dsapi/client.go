package dsapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tmcpro/docusign-exporter/internal/config"
	"github.com/tmcpro/docusign-exporter/internal/event"
	"github.com/tmcpro/docusign-exporter/internal/util/ratelimiter"
	"go.uber.org/zap"
)

const apiVersion = "v2.1"

// errorBodyLimit caps how much of a failed response body is read for
// the error message.
const errorBodyLimit = 4 * 1024

// Client is a DocuSign eSignature REST client. Every request goes
// through a shared pacing limiter and an exponential-backoff retry
// loop, so discovery and concurrent downloads serialize their dispatch
// instants on one clock.
type Client struct {
	baseURL    string
	accountID  string
	token      string
	cookie     string
	userID     string
	httpClient *http.Client
	limiter    *ratelimiter.Limiter
	maxRetries int
	baseDelay  time.Duration
	bus        *event.Bus
	logger     *zap.Logger
}

// NewClient creates a client from session configuration.
func NewClient(cfg *config.Config, bus *event.Bus, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   cfg.BaseURL(),
		accountID: cfg.AccountID,
		token:     cfg.Token,
		cookie:    cfg.Cookie,
		userID:    cfg.UserID,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		limiter:    ratelimiter.ForRate(cfg.RequestsPerSecond),
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseRetryDelay,
		bus:        bus,
		logger:     logger,
	}
}

// SetTransport replaces the HTTP transport (used by tests).
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.httpClient.Transport = rt
}

// SetTimeout sets the HTTP client timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

func (c *Client) publish(e event.Event) {
	if c.bus != nil {
		c.bus.Publish(e)
	}
}

// accountPath builds a URL under the account root.
func (c *Client) accountPath(format string, args ...interface{}) string {
	return fmt.Sprintf("%s/%s/accounts/%s/", c.baseURL, apiVersion, c.accountID) + fmt.Sprintf(format, args...)
}

// authorize attaches session credentials to a request.
func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Cookie", c.cookie)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if c.userID != "" {
		req.Header.Set("X-DocuSign-Act-As-User", c.userID)
	}
}

// do executes one logical API call: pace, dispatch, classify, retry.
// The builder is invoked exactly once per attempt so request bodies
// are never reused. Each call ends in exactly one result or one
// terminal error; intermediate retries surface only as retrying
// events. The caller owns the response body on success.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Err: err}
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req = req.WithContext(ctx)
		c.authorize(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &NetworkError{Err: err}
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		msg := drainError(resp)

		if resp.StatusCode == http.StatusUnauthorized {
			c.publish(event.NewTokenExpired())
			return nil, &AuthExpiredError{Message: msg}
		}

		if !retryable(resp.StatusCode) || attempt > c.maxRetries {
			return nil, &APIError{Status: resp.StatusCode, Message: msg}
		}

		delay := c.baseDelay * (1 << (attempt - 1))
		cause := fmt.Sprintf("status %d", resp.StatusCode)
		c.logger.Warn("request failed, retrying",
			zap.String("url", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay))
		c.publish(event.NewRetrying(attempt, delay, cause))

		if err := sleep(ctx, delay); err != nil {
			return nil, &NetworkError{Err: err}
		}
	}
}

// drainError reads a bounded slice of a failed response body for the
// error message and closes the body.
func drainError(resp *http.Response) string {
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	if err != nil || len(b) == 0 {
		return http.StatusText(resp.StatusCode)
	}
	return string(b)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
