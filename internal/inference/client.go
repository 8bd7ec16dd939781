package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/oauth2"

	"legal-analyzer-api/internal/shared/resilience"
	"legal-analyzer-api/internal/shared/telemetry"
)

const (
	// DefaultTimeout bounds every inference call.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 4 << 20
)

var (
	// ErrTimeout means the remote call did not answer within the timeout.
	ErrTimeout = errors.New("inference request timed out")
	// ErrTransport means the request never produced an HTTP response.
	ErrTransport = errors.New("inference transport failure")
	// ErrMalformedResponse means the body was not the expected JSON shape.
	ErrMalformedResponse = errors.New("malformed inference response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "inference status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%s request failed with status code %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed with status code %d: %s", e.Operation, e.StatusCode, strings.TrimSpace(e.Body))
}

// Options configures a Client.
type Options struct {
	APIKey   string
	Timeout  time.Duration
	Breakers *resilience.Breakers
	// BaseClient supplies the underlying transport; nil uses http.DefaultTransport.
	BaseClient *http.Client
}

// Client posts JSON to hosted inference endpoints with bearer authentication.
// It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	breakers   *resilience.Breakers
	hasKey     bool
}

// NewClient builds a Client. The API key is attached by an oauth2 static token source.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := opts.BaseClient
	if base == nil {
		base = &http.Client{}
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	key := strings.TrimSpace(opts.APIKey)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: key,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = timeout

	return &Client{
		httpClient: httpClient,
		timeout:    timeout,
		breakers:   opts.Breakers,
		hasKey:     key != "",
	}
}

// HasAPIKey reports whether a credential was configured.
func (c *Client) HasAPIKey() bool {
	return c != nil && c.hasKey
}

// Timeout returns the per-call timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// PostJSON sends payload to url, validates the response against schema (when
// non-nil) and decodes it into out. Numbers are decoded as json.Number.
func (c *Client) PostJSON(ctx context.Context, operation, url string, payload any, schema *jsonschema.Schema, out any) error {
	return c.breakers.Execute(ctx, operation, func(ctx context.Context) error {
		return c.post(ctx, operation, url, payload, schema, out)
	}, IsFailure)
}

func (c *Client) post(ctx context.Context, operation, url string, payload any, schema *jsonschema.Schema, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%s: %w after %s", operation, ErrTimeout, c.timeout)
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%s: %w: %v", operation, ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%s: %w after %s", operation, ErrTimeout, c.timeout)
		}
		return fmt.Errorf("%s: %w: read body: %v", operation, ErrTransport, err)
	}

	telemetry.Debug("inference.response", map[string]any{
		"request_id":  telemetry.RequestID(ctx),
		"operation":   operation,
		"status":      resp.StatusCode,
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       truncateBody(raw),
		}
	}

	if schema != nil {
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("%s: %w: %v", operation, ErrMalformedResponse, err)
		}
		if err := schema.Validate(doc); err != nil {
			return fmt.Errorf("%s: %w: %v", operation, ErrMalformedResponse, err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%s: %w: %v", operation, ErrMalformedResponse, err)
	}
	return nil
}

// IsFailure decides which errors count against the circuit breaker: caller
// cancellation and client-side 4xx responses do not.
func IsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return true
		}
		return statusErr.StatusCode >= 500
	}
	return true
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncateBody(raw []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
