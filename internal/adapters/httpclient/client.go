package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusError is returned for responses with status >= 400.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// Options configures a Client.
type Options struct {
	Timeout time.Duration
	// MaxAttempts bounds attempts per call; 1 disables retries.
	MaxAttempts int
	Backoff     time.Duration
	Headers     map[string]string
}

// Client issues JSON GET requests with per-call timeout and optional bounded
// retry of transient failures. It is safe for concurrent use.
type Client struct {
	session     *http.Client
	maxAttempts int
	backoff     time.Duration
	headers     map[string]string
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &Client{
		session:     &http.Client{Timeout: timeout},
		maxAttempts: attempts,
		backoff:     backoff,
		headers:     headers,
	}
}

func (c *Client) newRequest(ctx context.Context, endpoint string, query url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

func retryable(err error) bool {
	var he *StatusError
	if errors.As(err, &he) {
		switch he.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// doWithRetry retries transient failures (network errors, 429 and 5xx responses)
// using exponential backoff while respecting context cancellation.
func (c *Client) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	backoff := c.backoff

	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) || attempt == c.maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

// GetJSON performs a GET against endpoint with the given query and decodes the
// JSON body into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, endpoint, query)
	})
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
