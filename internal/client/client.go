// Package client reads the storefront catalog over HTTP.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/pkg/httpclient"
	"github.com/utafrali/Planto/pkg/pagination"
)

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CatalogClient calls the catalog and review read API.
type CatalogClient struct {
	baseURL string
	http    HTTPDoer
	logger  *slog.Logger
}

// NewCatalogClient creates a client for the API at baseURL.
func NewCatalogClient(baseURL string, doer HTTPDoer, logger *slog.Logger) *CatalogClient {
	return &CatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		logger:  logger,
	}
}

// NewDefault builds a CatalogClient over a retrying, circuit-broken transport.
func NewDefault(baseURL string, logger *slog.Logger) *CatalogClient {
	breaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("planto-api"),
		logger,
	)
	return NewCatalogClient(baseURL, breaker, logger)
}

// ListPlants fetches one page of plants. Zero page or limit and an empty
// category are left to the server defaults.
func (c *CatalogClient) ListPlants(ctx context.Context, page, limit int, category string) (pagination.Page[domain.Plant], error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if category != "" {
		q.Set("category", category)
	}

	var out pagination.Page[domain.Plant]
	err := c.getJSON(ctx, "/api/plants", q, &out)
	return out, err
}

// Featured fetches featured plants.
func (c *CatalogClient) Featured(ctx context.Context, limit int) ([]domain.Plant, error) {
	var out []domain.Plant
	err := c.getJSON(ctx, "/api/plants/featured", limitQuery(limit), &out)
	return out, err
}

// Trendy fetches trendy plants.
func (c *CatalogClient) Trendy(ctx context.Context, limit int) ([]domain.Plant, error) {
	var out []domain.Plant
	err := c.getJSON(ctx, "/api/plants/trendy", limitQuery(limit), &out)
	return out, err
}

// Reviews fetches the latest reviews.
func (c *CatalogClient) Reviews(ctx context.Context, limit int) ([]domain.Review, error) {
	var out []domain.Review
	err := c.getJSON(ctx, "/api/reviews", limitQuery(limit), &out)
	return out, err
}

// HighlightedReviews fetches highlighted reviews.
func (c *CatalogClient) HighlightedReviews(ctx context.Context, limit int) ([]domain.Review, error) {
	var out []domain.Review
	err := c.getJSON(ctx, "/api/reviews/highlight", limitQuery(limit), &out)
	return out, err
}

func (c *CatalogClient) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, "planto-api")
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": []string{strconv.Itoa(limit)}}
}

// Result is the outcome of a view-side fetch. A fetch aborted by its consumer
// is neither loaded nor failed.
type Result[T any] struct {
	Data   T
	Loaded bool
	Err    error
}

// Load runs fetch and classifies its outcome. Cancellation of ctx discards the
// result silently; any other failure sets Err. No retry happens here.
func Load[T any](ctx context.Context, fetch func(context.Context) (T, error)) Result[T] {
	data, err := fetch(ctx)
	switch {
	case err == nil && ctx.Err() == nil:
		return Result[T]{Data: data, Loaded: true}
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return Result[T]{}
	default:
		if err == nil {
			err = ctx.Err()
		}
		return Result[T]{Err: err}
	}
}
