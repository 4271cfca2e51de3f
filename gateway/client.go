package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pelorus-io/shipbridge/iox"
	"github.com/pelorus-io/shipbridge/log"
)

// Defaults applied when the config leaves a field unset.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 5 * time.Second
)

// Config configures a gateway client for one remote account.
type Config struct {
	// BaseURL is the API root, e.g. https://api.example.com (required).
	BaseURL string
	// APIKey and APISecret form the basic-auth credential pair.
	APIKey    string
	APISecret string
	// RetryAttempts is the total attempt count for transient failures.
	RetryAttempts int
	// RetryDelay is the fixed delay between attempts. A 429 response with
	// a Retry-After hint overrides it for that wait.
	RetryDelay time.Duration
	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// Client wraps the remote account's REST API with the retry discipline.
type Client struct {
	cfg    Config
	client *http.Client
	logger *log.SugaredLogger
}

// New creates a gateway client. Returns an error if BaseURL is empty.
func New(cfg Config, logger *log.SugaredLogger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway: base URL is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// CreateOrUpdateOrder posts an order. The remote upserts on OrderKey, so
// re-submitting an already-created order updates it in place.
func (c *Client) CreateOrUpdateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	var out Order
	if err := c.do(ctx, "create order", http.MethodPost, "/orders/createorder", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindOrderByNumber checks whether an order with the exact number exists.
// The probe is best-effort: any failure is logged and reported as "not
// found" so the caller proceeds to the create/update instead of blocking
// on a secondary call's availability.
func (c *Client) FindOrderByNumber(ctx context.Context, orderNumber string) *Order {
	// The remote matches orderNumber as a prefix; filter to exact.
	query := url.Values{}
	query.Set("orderNumber", orderNumber)
	query.Set("pageSize", "10")

	var page ordersPage
	if err := c.do(ctx, "find order", http.MethodGet, "/orders", query, nil, &page); err != nil {
		c.logger.Warnf("could not check for existing order %s, proceeding with create: %v", orderNumber, err)
		return nil
	}
	for i := range page.Orders {
		if page.Orders[i].OrderNumber == orderNumber {
			return &page.Orders[i]
		}
	}
	return nil
}

// ListShipmentsOptions filters a shipment poll page.
type ListShipmentsOptions struct {
	// StoreID restricts results to one sub-store when set.
	StoreID *int
	// CreateDateStart/End bound the window by when the shipment record was
	// created (label generated), format YYYY-MM-DD.
	CreateDateStart string
	CreateDateEnd   string
	// Page is 1-based; PageSize caps at 500 remotely.
	Page     int
	PageSize int
}

// ListShipments returns one page of shipments created in the window.
func (c *Client) ListShipments(ctx context.Context, opts ListShipmentsOptions) (*ShipmentPage, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(opts.Page))
	query.Set("pageSize", strconv.Itoa(opts.PageSize))
	if opts.StoreID != nil {
		query.Set("storeId", strconv.Itoa(*opts.StoreID))
	}
	if opts.CreateDateStart != "" {
		query.Set("createDateStart", opts.CreateDateStart)
	}
	if opts.CreateDateEnd != "" {
		query.Set("createDateEnd", opts.CreateDateEnd)
	}

	var page ShipmentPage
	if err := c.do(ctx, "list shipments", http.MethodGet, "/shipments", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetOrder fetches a single order by remote ID.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	var out Order
	path := fmt.Sprintf("/orders/%d", orderID)
	if err := c.do(ctx, "get order", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListStores lists the account's sub-stores.
func (c *Client) ListStores(ctx context.Context) ([]Store, error) {
	var out []Store
	if err := c.do(ctx, "list stores", http.MethodGet, "/stores", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do executes one API call under the retry policy: network errors, 429 and
// 5xx are retried up to the configured attempt count with a fixed delay
// (429 honors a Retry-After hint); other 4xx fail immediately as permanent.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &PermanentError{Op: op, Detail: fmt.Sprintf("encode request: %v", err)}
		}
	}

	target := c.cfg.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	attempts := c.cfg.RetryAttempts
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return &PermanentError{Op: op, Detail: fmt.Sprintf("build request: %v", err)}
		}
		req.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("network error: %w", err)
			c.logger.Warnf("%s: %v (attempt %d/%d)", op, lastErr, attempt, attempts)
			if waitErr := c.wait(ctx, c.cfg.RetryDelay); waitErr != nil {
				return &TransientError{Op: op, Attempts: attempt, Err: waitErr}
			}
			continue
		}

		status := resp.StatusCode
		switch {
		case status == http.StatusTooManyRequests:
			delay := retryAfter(resp, c.cfg.RetryDelay)
			drain(resp)
			lastErr = fmt.Errorf("rate limited (429)")
			c.logger.Warnf("%s: rate limited, waiting %s (attempt %d/%d)", op, delay, attempt, attempts)
			if waitErr := c.wait(ctx, delay); waitErr != nil {
				return &TransientError{Op: op, Attempts: attempt, Err: waitErr}
			}
			continue

		case status >= 500:
			detail := readDetail(resp)
			lastErr = fmt.Errorf("server error %d: %s", status, detail)
			c.logger.Warnf("%s: server error %d, retrying in %s (attempt %d/%d)", op, status, c.cfg.RetryDelay, attempt, attempts)
			if waitErr := c.wait(ctx, c.cfg.RetryDelay); waitErr != nil {
				return &TransientError{Op: op, Attempts: attempt, Err: waitErr}
			}
			continue

		case status >= 400:
			detail := readDetail(resp)
			return &PermanentError{Op: op, Status: status, Detail: detail}
		}

		if out == nil {
			drain(resp)
			return nil
		}
		err = json.NewDecoder(resp.Body).Decode(out)
		drain(resp)
		if err != nil {
			return &PermanentError{Op: op, Status: status, Detail: fmt.Sprintf("decode response: %v", err)}
		}
		return nil
	}

	return &TransientError{Op: op, Attempts: attempts, Err: lastErr}
}

// wait sleeps for d or until the context is canceled.
func (c *Client) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// retryAfter reads a server-supplied Retry-After hint in seconds, falling
// back to the configured delay.
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// readDetail returns a truncated response body for error reporting.
func readDetail(resp *http.Response) string {
	defer iox.DiscardClose(resp.Body)
	data, err := io.ReadAll(io.LimitReader(resp.Body, 500))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// drain consumes the rest of the body to allow connection reuse.
func drain(resp *http.Response) {
	defer iox.DiscardClose(resp.Body)
	_, _ = io.Copy(io.Discard, resp.Body)
}
