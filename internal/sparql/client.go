// Package sparql executes SPARQL SELECT queries against the triple store and
// formats their results.
package sparql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vgoehler/mem-mcp/internal/apperr"
)

// DefaultTimeout bounds every query exchange.
const DefaultTimeout = 30 * time.Second

// EndpointKey is the configuration key of the endpoint URL.
const EndpointKey = "SPARQL_ENDPOINT"

// Media types of the SPARQL 1.1 protocol.
const (
	ContentTypeQuery   = "application/sparql-query"
	ContentTypeResults = "application/sparql-results+json"
)

// Querier executes one SELECT query.
type Querier interface {
	Query(ctx context.Context, query string) (*Results, error)
}

// Client posts queries to a SPARQL endpoint. It holds no mutable state and
// is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client for endpoint. An empty endpoint is a
// configuration error.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, apperr.MissingConfiguration(EndpointKey)
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Query posts query and decodes the JSON result table.
//
// A non-2xx status, or a body that is not a result document, yields an
// ENDPOINT_ERROR with the status and at most 200 characters of the body.
// A failed or timed-out exchange yields a TRANSPORT_ERROR. There is no retry.
func (c *Client) Query(ctx context.Context, query string) (*Results, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBufferString(query))
	if err != nil {
		return nil, apperr.Transport(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", ContentTypeQuery)
	req.Header.Set("Accept", ContentTypeResults)

	start := time.Now()
	c.logger.Debug("sparql: query", "endpoint", c.endpoint, "bytes", len(query))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("sparql: request failed", "error", err, "duration", time.Since(start))
		return nil, apperr.Transport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("sparql: reading response failed", "error", err, "status", resp.StatusCode)
		return nil, apperr.Transport(fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("sparql: response", "status", resp.StatusCode, "bytes", len(body), "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("sparql: endpoint error", "status", resp.StatusCode)
		return nil, apperr.Endpoint(resp.StatusCode, string(body))
	}

	results, err := decodeResults(body)
	if err != nil {
		e := apperr.Endpoint(resp.StatusCode, string(body))
		e.Err = err
		return nil, e
	}
	return results, nil
}

type wireResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results *struct {
		Bindings []Row `json:"bindings"`
	} `json:"results"`
}

func decodeResults(body []byte) (*Results, error) {
	var w wireResults
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	if w.Results == nil {
		return nil, errors.New("decode results: missing results member")
	}
	bindings := w.Results.Bindings
	if bindings == nil {
		bindings = []Row{}
	}
	vars := w.Head.Vars
	if vars == nil {
		vars = []string{}
	}
	return &Results{Vars: vars, Bindings: bindings}, nil
}
