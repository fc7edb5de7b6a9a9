// internal/common/earthengine/client.go

// Package earthengine is a client for the Earth Engine REST API. It
// serializes computations as expression graphs, creates tile map
// references, and samples image statistics over regions.
package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"disaster-eye-workers/internal/common/logger"

	"golang.org/x/oauth2"
)

// Config holds connection settings for the platform.
type Config struct {
	BaseURL         string
	ProjectID       string
	TileURLTemplate string
	Timeout         time.Duration
}

// MapRef identifies a rendered map and where its tiles are served.
type MapRef struct {
	MapID   string `json:"mapid"`
	Token   string `json:"token"`
	TileURL string `json:"tile_url"`
}

// Client calls the platform's REST API. A nil token source produces
// unauthenticated requests, which the platform rejects; callers should
// treat a client without credentials as uninitialized.
type Client struct {
	config      Config
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
	logger      logger.Logger
}

// NewClient creates a platform client. tokenSource may be nil when no
// credentials are configured.
func NewClient(cfg Config, tokenSource oauth2.TokenSource, log logger.Logger) *Client {
	return &Client{
		config:      cfg,
		tokenSource: tokenSource,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log.With(map[string]interface{}{"component": "earthengine"}),
	}
}

// Initialized reports whether the client holds credentials.
func (c *Client) Initialized() bool {
	return c.tokenSource != nil
}

// CreateMap registers an expression as a rendered map and returns its
// tile reference.
func (c *Client) CreateMap(ctx context.Context, expr *Expression) (*MapRef, error) {
	endpoint := fmt.Sprintf("%s/v1alpha/projects/%s/maps", c.baseURL(), c.config.ProjectID)

	var result struct {
		Name  string `json:"name"`
		Token string `json:"token"`
	}
	if err := c.post(ctx, endpoint, map[string]interface{}{"expression": expr}, &result); err != nil {
		return nil, fmt.Errorf("create map: %w", err)
	}

	mapID := result.Name
	if idx := strings.LastIndex(mapID, "/"); idx >= 0 {
		mapID = mapID[idx+1:]
	}
	if mapID == "" {
		return nil, fmt.Errorf("create map: response has no map name")
	}

	return &MapRef{
		MapID:   mapID,
		Token:   result.Token,
		TileURL: c.tileURL(mapID, result.Token),
	}, nil
}

// ComputeValue evaluates an expression and returns the raw result.
func (c *Client) ComputeValue(ctx context.Context, expr *Expression) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/v1alpha/projects/%s/value:compute", c.baseURL(), c.config.ProjectID)

	var result struct {
		Result json.RawMessage `json:"result"`
	}
	if err := c.post(ctx, endpoint, map[string]interface{}{"expression": expr}, &result); err != nil {
		return nil, fmt.Errorf("compute value: %w", err)
	}
	return result.Result, nil
}

// ComputeDictionary evaluates an expression producing a band dictionary,
// such as a region reduction. Null bands are omitted so missing keys
// read as zero.
func (c *Client) ComputeDictionary(ctx context.Context, expr *Expression) (map[string]float64, error) {
	raw, err := c.ComputeValue(ctx, expr)
	if err != nil {
		return nil, err
	}

	var values map[string]*float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode dictionary result: %w", err)
	}

	out := make(map[string]float64, len(values))
	for band, value := range values {
		if value != nil {
			out[band] = *value
		}
	}
	return out, nil
}

// ComputeNumber evaluates an expression producing a single number.
func (c *Client) ComputeNumber(ctx context.Context, expr *Expression) (float64, error) {
	raw, err := c.ComputeValue(ctx, expr)
	if err != nil {
		return 0, err
	}

	var value *float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("decode numeric result: %w", err)
	}
	if value == nil {
		return 0, nil
	}
	return *value, nil
}

// Healthy probes the platform with a cheap authenticated read.
func (c *Client) Healthy(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/v1alpha/projects/%s/algorithms", c.baseURL(), c.config.ProjectID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("platform unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("platform health check failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("platform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("platform error: status %d: %s", resp.StatusCode, detail)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) error {
	if c.tokenSource == nil {
		return nil
	}
	token, err := c.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("fetch access token: %w", err)
	}
	token.SetAuthHeader(req)
	return nil
}

func (c *Client) baseURL() string {
	return strings.TrimSuffix(c.config.BaseURL, "/")
}

func (c *Client) tileURL(mapID, token string) string {
	url := strings.ReplaceAll(c.config.TileURLTemplate, "{mapid}", mapID)
	url = strings.ReplaceAll(url, "{token}", token)
	if token == "" {
		url = strings.TrimSuffix(url, "?token=")
	}
	return url
}
