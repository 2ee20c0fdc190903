package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrCatalogNotFound    = errors.New("catalog product not found")
	ErrCatalogBadStatus   = errors.New("catalog bad status")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

const clientTimeout = 3 * time.Second

// Client talks to the catalog API. Every product it returns has passed
// Validate.
type Client struct {
	BaseURL string
	Client  *http.Client
}

func NewClient(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: clientTimeout},
	}
}

func (c *Client) List(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.getJSON(ctx, "/api/products", &products); err != nil {
		return nil, err
	}

	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	if err := c.getJSON(ctx, fmt.Sprintf("/api/products/%d", id), &p); err != nil {
		return Product{}, err
	}
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	if p.ID != id {
		return Product{}, fmt.Errorf("%w: asked for id=%d, got id=%d", ErrInvalidProduct, id, p.ID)
	}
	return p, nil
}

// Ping reports whether the catalog service answers its readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, "/readyz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status=%d", ErrCatalogBadStatus, resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrCatalogNotFound
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status=%d", ErrCatalogBadStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrCatalogBadStatus, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return resp, nil
}
