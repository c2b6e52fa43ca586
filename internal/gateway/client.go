// Package gateway is the HTTP client for the remote transaction backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ariefcatur/go-checkout-session/internal/checkout"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	// BaseURL of the gateway API, e.g. http://localhost:3000/api
	BaseURL string

	// HTTPClient overrides the default traced client (optional)
	HTTPClient *http.Client

	// Timeout per request when HTTPClient is nil (default 10s)
	Timeout time.Duration

	// BreakerFailures is the number of consecutive failures that opens the
	// breaker (default 5)
	BreakerFailures uint32

	// BreakerCooldown is how long the breaker stays open (default 30s)
	BreakerCooldown time.Duration
}

// Client implements checkout.Gateway over HTTP/JSON.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown == 0 {
		cooldown = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "transaction-gateway",
		Timeout: cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		// 4xx responses do not count against the gateway
		IsSuccessful: func(err error) bool {
			var apiErr *checkout.APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < 500
			}
			return err == nil
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		cb:      cb,
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]checkout.Product, error) {
	var out []checkout.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PreviewCheckout(ctx context.Context, req checkout.PreviewRequest) (checkout.Preview, error) {
	var out checkout.Preview
	err := c.do(ctx, http.MethodPost, "/checkout/preview", req, &out)
	return out, err
}

func (c *Client) CreateTransaction(ctx context.Context, req checkout.CreateTransactionRequest) (checkout.CreateTransactionResponse, error) {
	var out checkout.CreateTransactionResponse
	err := c.do(ctx, http.MethodPost, "/transactions", req, &out)
	return out, err
}

func (c *Client) PayTransaction(ctx context.Context, reference string, payment checkout.PaymentDraft) (checkout.PayTransactionResponse, error) {
	var out checkout.PayTransactionResponse
	err := c.do(ctx, http.MethodPost, "/transactions/"+url.PathEscape(reference)+"/pay", payment, &out)
	return out, err
}

func (c *Client) GetTransaction(ctx context.Context, reference string) (checkout.Transaction, error) {
	var out checkout.Transaction
	err := c.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(reference), nil, &out)
	return out, err
}

// do sends one request through the breaker and decodes a JSON success body
// into out. There are no retries.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, in)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &checkout.APIError{Status: http.StatusServiceUnavailable, Message: "gateway unavailable"}
	}
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in any) ([]byte, error) {
	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	isJSON := strings.Contains(resp.Header.Get("Content-Type"), "application/json")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp.StatusCode, b, isJSON)
	}
	if !isJSON {
		return nil, nil
	}
	return b, nil
}

func apiError(status int, body []byte, isJSON bool) *checkout.APIError {
	msg := fmt.Sprintf("API error: %d", status)
	if isJSON {
		var m struct {
			Message any `json:"message"`
		}
		if json.Unmarshal(body, &m) == nil {
			if s, ok := m.Message.(string); ok && s != "" {
				msg = s
			}
		}
	}
	return &checkout.APIError{Status: status, Message: msg}
}
