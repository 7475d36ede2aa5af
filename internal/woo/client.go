package woo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ETAnderson/skubridge/internal/metrics"
)

const (
	defaultPageSize = 100
	maxAttempts     = 3
)

type Config struct {
	Site    string
	BaseURL string // storefront root, e.g. https://shop.example.com
	Key     string
	Secret  string

	PageSize    int
	HTTPTimeout time.Duration

	// RetryWait is the backoff step; the wait before retry n (1-based) is
	// n * RetryWait. Defaults to 2s; tests shrink it.
	RetryWait time.Duration

	// RequestsPerSecond caps outbound calls. 0 disables the limiter.
	RequestsPerSecond float64
}

// Client is a read-only client for one storefront's catalog API.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	site      string
	baseURL   string
	key       string
	secret    string
	pageSize  int
	retryWait time.Duration
	http      *http.Client
	limiter   *rate.Limiter
	logger    *log.Logger
}

func NewClient(cfg Config, logger *log.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 2 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}

	return &Client{
		site:      cfg.Site,
		baseURL:   cfg.BaseURL + "/wp-json/wc/v3",
		key:       cfg.Key,
		secret:    cfg.Secret,
		pageSize:  cfg.PageSize,
		retryWait: cfg.RetryWait,
		http:      &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:   limiter,
		logger:    logger,
	}
}

func (c *Client) Site() string { return c.site }

// ListAllProducts pages through the catalog in upstream order. Pagination
// stops on the first short or empty page.
func (c *Client) ListAllProducts(ctx context.Context) ([]Product, error) {
	var all []Product
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/products?page=%d&per_page=%d", c.baseURL, page, c.pageSize)

		var items []Product
		if err := c.getJSON(ctx, url, &items); err != nil {
			return nil, fmt.Errorf("list products page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}

		all = append(all, items...)
		c.logger.Printf("[%s] page %d: %d products (total %d)", c.site, page, len(items), len(all))

		if len(items) < c.pageSize {
			break
		}
	}
	return all, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (Product, error) {
	url := fmt.Sprintf("%s/products/%d", c.baseURL, id)

	var p Product
	if err := c.getJSON(ctx, url, &p); err != nil {
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (c *Client) GetVariations(ctx context.Context, productID int64) ([]Variation, error) {
	url := fmt.Sprintf("%s/products/%d/variations?per_page=%d", c.baseURL, productID, defaultPageSize)

	var vs []Variation
	if err := c.getJSON(ctx, url, &vs); err != nil {
		return nil, fmt.Errorf("get variations for %d: %w", productID, err)
	}
	return vs, nil
}

// Ping fetches a one-item product page and reports how many items came
// back. Used by the connectivity probe.
func (c *Client) Ping(ctx context.Context) (int, error) {
	url := fmt.Sprintf("%s/products?page=1&per_page=1", c.baseURL)

	var items []Product
	if err := c.getJSON(ctx, url, &items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	resp, err := c.getWithRetry(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// getWithRetry performs one authenticated GET with bounded retry. Only
// rate-limit-class statuses (429, 503) and transport errors retry; any
// other non-200 status fails immediately. After the last attempt the
// underlying error is surfaced to the caller.
func (c *Client) getWithRetry(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.key, c.secret)

		resp, err := c.http.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status: %s", resp.Status)
		case resp.StatusCode != http.StatusOK:
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %s", resp.Status)
		default:
			return resp, nil
		}

		if attempt < maxAttempts {
			wait := time.Duration(attempt) * c.retryWait
			c.logger.Printf("[%s] request failed (attempt %d/%d), retrying in %s: %v", c.site, attempt, maxAttempts, wait, lastErr)
			metrics.RecordUpstreamRetry(c.site)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	return nil, lastErr
}
