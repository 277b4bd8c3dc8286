package backend

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

	"github.com/levelup/storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxResponseBody = 1 << 20 // 1MB

// TokenSource yields the bearer token of the current session, or "" when there is none.
type TokenSource interface {
	Token() string
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Transport defaults to http.DefaultTransport; it is always wrapped by otelhttp.
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Client talks to the store REST backend. Copies made with WithTokenSource share
// the underlying HTTP client and circuit breaker.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[*response]
	tokens  TokenSource
	logger  *zap.Logger
}

type response struct {
	status int
	body   []byte
}

var errServerStatus = errors.New("server error status")

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "store-backend",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Transport: otelhttp.NewTransport(transport)},
		timeout: timeout,
		breaker: breaker,
		logger:  logger,
	}
}

// WithTokenSource returns a client that authenticates with tokens from ts.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.breaker.Execute(func() (*response, error) {
		httpResp, errDo := c.http.Do(req)
		if errDo != nil {
			return nil, errDo
		}
		defer httpResp.Body.Close()

		data, errRead := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
		if errRead != nil {
			return nil, errRead
		}
		r := &response{status: httpResp.StatusCode, body: data}
		if r.status >= http.StatusInternalServerError {
			return r, errServerStatus
		}
		return r, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
		}
		if resp == nil {
			c.logger.Debug("backend call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
			return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
		}
	}

	if resp.status >= http.StatusBadRequest {
		return &domain.BackendError{Status: resp.status, Message: extractMessage(resp.body)}
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// extractMessage pulls a human message out of an error body. Spring-style JSON
// errors and plain text bodies are both common on the backend.
func extractMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err == nil {
		for _, key := range []string{"message", "mensaje", "error"} {
			if s, ok := fields[key].(string); ok && s != "" {
				return s
			}
		}
		return ""
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}

	text := string(trimmed)
	if strings.HasPrefix(text, "<") || len(text) > 300 {
		return ""
	}
	return text
}
