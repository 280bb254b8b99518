// Package places is a thin client for a location-biased business search
// API. It is the HTTP alternative to the scraper subprocess: one call per
// grid point, returning listings in ranked order.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// Client performs ranked business searches biased to a coordinate.
type Client interface {
	NearbySearch(ctx context.Context, query string, lat, lng float64) ([]Listing, error)
}

// Listing is one ranked business result.
type Listing struct {
	Name    string  `json:"name"`
	PlaceID string  `json:"place_id"`
	Rating  float64 `json:"rating"`
	Reviews int     `json:"user_ratings_total"`
	Address string  `json:"formatted_address"`
	Phone   string  `json:"formatted_phone_number"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type searchResponse struct {
	Results []Listing `json:"results"`
	Status  string    `json:"status"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a places search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) NearbySearch(ctx context.Context, query string, lat, lng float64) ([]Listing, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("location", fmt.Sprintf("%g,%g", lat, lng))
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: execute request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: search returned %d: %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, eris.Wrap(err, "places: decode response")
	}
	if sr.Status != "" && sr.Status != "OK" && sr.Status != "ZERO_RESULTS" {
		return nil, eris.Errorf("places: search status %s", sr.Status)
	}

	return sr.Results, nil
}
