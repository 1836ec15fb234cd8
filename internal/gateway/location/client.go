package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mekedron/grocer-cli/internal/domain"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// ErrLocationLookup is returned when geocoding fails.
var ErrLocationLookup = errors.New("error when trying to get location")

// HTTPClient is implemented by http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client resolves addresses to coordinates.
type Client struct {
	httpClient HTTPClient
	baseURL    string
}

// Option applies Client options.
type Option func(*Client)

// WithHTTPClient replaces default HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL points the client at another Nominatim-compatible search url.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return fmt.Errorf("parse coordinate %q: %w", text, err)
		}
		*c = coordinate(value)
		return nil
	}

	var value float64
	if err := json.Unmarshal(data, &value); err == nil {
		*c = coordinate(value)
		return nil
	}

	return fmt.Errorf("coordinate must be a string or number")
}

type nominatimResult struct {
	Lat coordinate `json:"lat"`
	Lon coordinate `json:"lon"`
}

// NewClient creates a location client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultNominatimURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get resolves an address using OSM Nominatim.
func (c *Client) Get(ctx context.Context, address string) (domain.Coordinate, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Coordinate{}, fmt.Errorf("%w: address is empty", ErrLocationLookup)
	}
	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	uri := c.baseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "grocer-cli/1.0")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %v", ErrLocationLookup, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return domain.Coordinate{}, fmt.Errorf("%w: status %d", ErrLocationLookup, res.StatusCode)
	}

	var payload []nominatimResult
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %v", ErrLocationLookup, err)
	}
	if len(payload) == 0 {
		return domain.Coordinate{}, fmt.Errorf("%w: no match for %q", ErrLocationLookup, address)
	}
	point := domain.Coordinate{
		Lat: float64(payload[0].Lat),
		Lon: float64(payload[0].Lon),
	}
	if err := point.Validate(); err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %v", ErrLocationLookup, err)
	}
	return point, nil
}
