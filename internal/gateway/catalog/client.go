package catalog

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
	"sync"
	"time"

	"github.com/mekedron/grocer-cli/internal/domain"
)

const (
	// DefaultBaseURL is used when no API url is configured.
	DefaultBaseURL   = "http://localhost:5000/api/"
	defaultUserAgent = "grocer-cli/1.0"
)

// HTTPClient is implemented by http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Endpoints stores the collection urls of the catalog API.
type Endpoints struct {
	Stores   string
	Products string
}

// EndpointsFor derives collection urls from an API base url.
func EndpointsFor(baseURL string) Endpoints {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return Endpoints{
		Stores:   base + "stores",
		Products: base + "products",
	}
}

// Client talks to the stores/products REST API.
type Client struct {
	httpClient     HTTPClient
	endpoints      Endpoints
	minRequestGap  time.Duration
	requestWindowM sync.Mutex
	nextRequestAt  time.Time
	verboseOutput  io.Writer
	verboseOutputM sync.RWMutex
}

// Option applies Client options.
type Option func(*Client)

// WithHTTPClient replaces default HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL points the client at another API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.endpoints = EndpointsFor(baseURL)
	}
}

// WithEndpoints replaces default endpoint set.
func WithEndpoints(endpoints Endpoints) Option {
	return func(c *Client) {
		c.endpoints = endpoints
	}
}

// WithRequestMinInterval enforces a minimum delay between API calls.
func WithRequestMinInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval < 0 {
			interval = 0
		}
		c.minRequestGap = interval
	}
}

// WithVerboseOutput enables per-request trace output.
func WithVerboseOutput(out io.Writer) Option {
	return func(c *Client) {
		c.SetVerboseOutput(out)
	}
}

// NewClient creates a catalog API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		endpoints:  EndpointsFor(DefaultBaseURL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetVerboseOutput sets destination for verbose HTTP request trace lines.
func (c *Client) SetVerboseOutput(out io.Writer) {
	c.verboseOutputM.Lock()
	c.verboseOutput = out
	c.verboseOutputM.Unlock()
}

// Endpoints returns the configured collection urls.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// Stores lists all stores.
func (c *Client) Stores(ctx context.Context) (domain.Batch[domain.Store], error) {
	payload, err := c.do(ctx, http.MethodGet, c.endpoints.Stores, nil)
	if err != nil {
		return domain.Batch[domain.Store]{}, err
	}
	batch, err := decodeBatch(payload, toStore)
	if err != nil {
		return domain.Batch[domain.Store]{}, &RequestError{Method: http.MethodGet, URL: c.endpoints.Stores, Cause: err}
	}
	return batch, nil
}

// StoreByID fetches one store.
func (c *Client) StoreByID(ctx context.Context, storeID string) (domain.Store, error) {
	rawURL, err := resourceURL(c.endpoints.Stores, storeID)
	if err != nil {
		return domain.Store{}, err
	}
	return c.store(ctx, http.MethodGet, rawURL, nil)
}

// Products lists all products.
func (c *Client) Products(ctx context.Context) (domain.Batch[domain.Product], error) {
	return c.productBatch(ctx, c.endpoints.Products)
}

// ProductsByStore lists the products of one store.
func (c *Client) ProductsByStore(ctx context.Context, storeID string) (domain.Batch[domain.Product], error) {
	rawURL, err := resourceURL(c.endpoints.Products+"/store", storeID)
	if err != nil {
		return domain.Batch[domain.Product]{}, err
	}
	return c.productBatch(ctx, rawURL)
}

// ProductByID fetches one product.
func (c *Client) ProductByID(ctx context.Context, productID string) (domain.Product, error) {
	rawURL, err := resourceURL(c.endpoints.Products, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return c.product(ctx, http.MethodGet, rawURL, nil)
}

// CreateStore creates a store and returns the stored record.
func (c *Client) CreateStore(ctx context.Context, store domain.Store) (domain.Store, error) {
	return c.store(ctx, http.MethodPost, c.endpoints.Stores, storePayload(store))
}

// UpdateStore updates the non-empty fields of a store.
func (c *Client) UpdateStore(ctx context.Context, storeID string, store domain.Store) (domain.Store, error) {
	rawURL, err := resourceURL(c.endpoints.Stores, storeID)
	if err != nil {
		return domain.Store{}, err
	}
	return c.store(ctx, http.MethodPut, rawURL, storePayload(store))
}

// DeleteStore removes a store.
func (c *Client) DeleteStore(ctx context.Context, storeID string) error {
	rawURL, err := resourceURL(c.endpoints.Stores, storeID)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodDelete, rawURL, nil)
	return err
}

// CreateProduct creates a product and returns the stored record.
func (c *Client) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	return c.product(ctx, http.MethodPost, c.endpoints.Products, productPayload(product))
}

// UpdateProduct sends only the fields set in changes.
func (c *Client) UpdateProduct(ctx context.Context, productID string, changes domain.ProductChanges) (domain.Product, error) {
	rawURL, err := resourceURL(c.endpoints.Products, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return c.product(ctx, http.MethodPut, rawURL, productChangesPayload(changes))
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	rawURL, err := resourceURL(c.endpoints.Products, productID)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodDelete, rawURL, nil)
	return err
}

func (c *Client) productBatch(ctx context.Context, rawURL string) (domain.Batch[domain.Product], error) {
	payload, err := c.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.Batch[domain.Product]{}, err
	}
	batch, err := decodeBatch(payload, toProduct)
	if err != nil {
		return domain.Batch[domain.Product]{}, &RequestError{Method: http.MethodGet, URL: rawURL, Cause: err}
	}
	return batch, nil
}

func (c *Client) store(ctx context.Context, method, rawURL string, body any) (domain.Store, error) {
	payload, err := c.do(ctx, method, rawURL, body)
	if err != nil {
		return domain.Store{}, err
	}
	store, _, err := decodeSingle(payload, toStore)
	if err != nil {
		return domain.Store{}, wrapDecodeError(method, rawURL, err)
	}
	return store, nil
}

func (c *Client) product(ctx context.Context, method, rawURL string, body any) (domain.Product, error) {
	payload, err := c.do(ctx, method, rawURL, body)
	if err != nil {
		return domain.Product{}, err
	}
	product, _, err := decodeSingle(payload, toProduct)
	if err != nil {
		return domain.Product{}, wrapDecodeError(method, rawURL, err)
	}
	return product, nil
}

func wrapDecodeError(method, rawURL string, err error) error {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}
	return &RequestError{Method: method, URL: rawURL, Cause: err}
}

func resourceURL(collection, id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", fmt.Errorf("resource id is required")
	}
	return strings.TrimRight(collection, "/") + "/" + url.PathEscape(trimmed), nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, body any) ([]byte, error) {
	var bodyReader io.Reader
	bodyBytes := 0
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyBytes = len(payload)
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	if err := c.waitForRequestSlot(ctx); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	c.traceRequestStart(method, rawURL, bodyBytes)

	res, err := c.httpClient.Do(req)
	if err != nil {
		requestErr := &RequestError{Method: method, URL: rawURL, Cause: err}
		c.traceRequestDone(method, rawURL, 0, 0, startedAt, requestErr)
		return nil, requestErr
	}
	defer func() {
		_ = res.Body.Close()
	}()

	rawResponse, err := io.ReadAll(res.Body)
	if err != nil {
		requestErr := &RequestError{Method: method, URL: rawURL, Cause: fmt.Errorf("read response body: %w", err)}
		c.traceRequestDone(method, rawURL, res.StatusCode, 0, startedAt, requestErr)
		return nil, requestErr
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := newAPIError(method, rawURL, res.StatusCode, rawResponse)
		c.traceRequestDone(method, rawURL, res.StatusCode, len(rawResponse), startedAt, apiErr)
		return nil, apiErr
	}

	c.traceRequestDone(method, rawURL, res.StatusCode, len(rawResponse), startedAt, nil)
	return rawResponse, nil
}

func (c *Client) traceRequestStart(method, rawURL string, bodyBytes int) {
	if bodyBytes > 0 {
		c.tracef("[http] -> %s %s body_bytes=%d", method, rawURL, bodyBytes)
		return
	}
	c.tracef("[http] -> %s %s", method, rawURL)
}

func (c *Client) traceRequestDone(method, rawURL string, statusCode int, responseBytes int, startedAt time.Time, reqErr error) {
	duration := time.Since(startedAt).Round(time.Millisecond)
	if reqErr != nil {
		c.tracef("[http] <- %s %s status=%d error=%v duration=%s", method, rawURL, statusCode, reqErr, duration)
		return
	}
	c.tracef(
		"[http] <- %s %s status=%d duration=%s bytes=%d",
		method,
		rawURL,
		statusCode,
		duration,
		responseBytes,
	)
}

func (c *Client) waitForRequestSlot(ctx context.Context) error {
	interval := c.minRequestGap
	if interval <= 0 {
		return nil
	}
	for {
		c.requestWindowM.Lock()
		wait := time.Until(c.nextRequestAt)
		if wait <= 0 {
			c.nextRequestAt = time.Now().Add(interval)
			c.requestWindowM.Unlock()
			return nil
		}
		c.requestWindowM.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) tracef(format string, args ...any) {
	c.verboseOutputM.RLock()
	out := c.verboseOutput
	c.verboseOutputM.RUnlock()
	if out == nil {
		return
	}
	_, _ = fmt.Fprintf(out, format+"\n", args...)
}
