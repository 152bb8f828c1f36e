// Package registry implements a client for the Zefix public REST API, the
// Swiss central business name index.
//
// No API key required. Endpoints used: firm search, firm detail, and the
// legal-form catalogue.
// Docs: https://www.zefix.ch/ZefixREST/swagger-ui.html
package registry

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

	"github.com/Fmazzesi/zefixtools/pkg/models"
)

const (
	// DefaultBaseURL is the public Zefix REST root.
	DefaultBaseURL = "https://www.zefix.ch/ZefixREST/api/v1"

	// DefaultUserAgent identifies this tool to the registry.
	DefaultUserAgent = "zefixtools/1.0 (github.com/Fmazzesi/zefixtools)"

	// SearchExact is the only search mode the tool uses.
	SearchExact = "exact"
)

// Client talks to the Zefix REST API. It is safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom API root (e.g. a test server).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.client = client }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client = &http.Client{Timeout: d}
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a registry client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "registry")
	return c
}

// BaseURL returns the API root the client is bound to.
func (c *Client) BaseURL() string { return c.baseURL }

// SearchByName runs an exact-match name search and returns the hits in the
// order the registry lists them.
func (c *Client) SearchByName(ctx context.Context, name string) ([]SearchHit, error) {
	body := searchRequest{Name: name, SearchType: SearchExact}
	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, "/firm/search.json", body, &resp); err != nil {
		return nil, err
	}
	if resp.HasMoreResults {
		c.logger.Warn("search result truncated by registry", "name", name, "hits", len(resp.List))
	}
	return resp.List, nil
}

// FirmDetail fetches the full record of one firm.
func (c *Client) FirmDetail(ctx context.Context, id models.EHRAID) (*Firm, error) {
	var firm Firm
	if err := c.do(ctx, http.MethodGet, "/firm/"+id.String(), nil, &firm); err != nil {
		return nil, err
	}
	if firm.EHRAID == 0 {
		firm.EHRAID = id
	}
	return &firm, nil
}

// LegalForms fetches the legal-form catalogue.
func (c *Client) LegalForms(ctx context.Context) ([]LegalForm, error) {
	var forms []LegalForm
	if err := c.do(ctx, http.MethodGet, "/legalForm", nil, &forms); err != nil {
		return nil, err
	}
	return forms, nil
}

// Ping checks connectivity with the cheapest endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.LegalForms(ctx); err != nil {
		return fmt.Errorf("registry ping: %w", err)
	}
	return nil
}

// do performs one request and decodes a 2xx JSON body into dest.
// Every failure is reported as *UpstreamError, except context cancellation.
func (c *Client) do(ctx context.Context, method, path string, payload, dest any) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("registry: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("registry: create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &UpstreamError{Outcome: transportOutcome(err), Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("registry request", "method", method, "url", url,
		"status", resp.StatusCode, "duration", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &UpstreamError{
			Outcome:    OutcomeForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Method:     method,
			URL:        url,
			Body:       string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &UpstreamError{
			Outcome:    OutcomeUnexpected,
			StatusCode: resp.StatusCode,
			Method:     method,
			URL:        url,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// transportOutcome classifies an error that happened before any response.
func transportOutcome(err error) Outcome {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return OutcomeTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	return OutcomeUnexpected
}
