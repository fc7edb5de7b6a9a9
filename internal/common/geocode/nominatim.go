// internal/common/geocode/nominatim.go

// Package geocode resolves place names to coordinates using the Nominatim
// search API. A miss (no result for the query) is not an error: Forward
// returns a nil Result so callers can leave their state unchanged.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	commonhttp "disaster-eye-workers/internal/common/http"
	"disaster-eye-workers/internal/common/logger"
)

// Result is a resolved location.
type Result struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"display_name"`
}

// Geocoder converts free-text place names to coordinates.
type Geocoder interface {
	// Forward resolves a place name. Returns (nil, nil) when the
	// provider has no match for the query.
	Forward(ctx context.Context, query string) (*Result, error)
}

// Config holds Nominatim client settings.
type Config struct {
	BaseURL       string
	UserAgent     string
	CountrySuffix string
	Timeout       time.Duration
}

// NominatimClient implements Geocoder against a Nominatim instance.
type NominatimClient struct {
	config Config
	client *commonhttp.Client
	logger logger.Logger
}

// NewNominatimClient creates a Nominatim geocoding client.
func NewNominatimClient(cfg Config, log logger.Logger) *NominatimClient {
	return &NominatimClient{
		config: cfg,
		client: commonhttp.NewClientWithUserAgent(cfg.Timeout, cfg.UserAgent),
		logger: log.With(map[string]interface{}{"component": "geocoder"}),
	}
}

// Forward resolves a place name to coordinates, appending the configured
// country suffix to bias results (e.g. "Chennai" becomes "Chennai, India").
func (c *NominatimClient) Forward(ctx context.Context, query string) (*Result, error) {
	q := query
	if c.config.CountrySuffix != "" {
		q = fmt.Sprintf("%s, %s", query, c.config.CountrySuffix)
	}

	params := url.Values{
		"q":      {q},
		"format": {"json"},
		"limit":  {"1"},
	}
	searchURL := strings.TrimSuffix(c.config.BaseURL, "/") + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(places) == 0 {
		c.logger.Info("No geocoding result", map[string]interface{}{"query": q})
		return nil, nil
	}

	p := places[0]
	// Nominatim returns coordinates as strings.
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse latitude %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse longitude %q: %w", p.Lon, err)
	}

	return &Result{Lat: lat, Lng: lng, DisplayName: p.DisplayName}, nil
}

// Nominatim API response types.

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
