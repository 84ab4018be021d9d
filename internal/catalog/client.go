package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediarr/mediarr/internal/media"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org/3"
	defaultImageBaseURL = "https://image.tmdb.org/t/p"

	// Every upstream call gets the same fixed budget; there are no retries.
	requestTimeout = 10 * time.Second
)

var (
	ErrAPIKeyMissing = errors.New("catalog API key is not configured")
	// ErrNotFound means the catalog returned 404 or an empty result set.
	// Callers treat it as "nothing here", not as a failure.
	ErrNotFound = errors.New("catalog resource not found")
	// ErrUpstream covers non-200/non-404 statuses and transport failures.
	// Callers degrade to absence instead of propagating it.
	ErrUpstream = errors.New("catalog upstream error")
)

// Config holds catalog client configuration.
type Config struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Language     string `mapstructure:"language"`
}

// Client issues enrichment queries (search, details, images) against the
// metadata catalog. Results are memoized in a bounded in-process cache so the
// same query tuple never triggers more than one upstream fetch per TTL.
type Client struct {
	httpClient *http.Client
	cfg        Config
	cache      *Cache
	logger     zerolog.Logger
}

// NewClient creates a new catalog client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = defaultImageBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		cfg:        cfg,
		cache:      NewCache(DefaultCacheConfig()),
		logger:     logger.With().Str("component", "catalog").Logger(),
	}
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.cfg.APIKey != ""
}

// Language returns the configured preferred language.
func (c *Client) Language() string {
	return c.cfg.Language
}

// Fetch performs a GET against the catalog and decodes the JSON body into
// result. Parameter values are transmitted as strings. A 404 yields
// ErrNotFound; any other non-200 status or transport failure yields
// ErrUpstream.
func (c *Client) Fetch(ctx context.Context, endpoint string, params map[string]string, result any) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}

	reqURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.cfg.BaseURL, "/"), strings.TrimPrefix(endpoint, "/"))
	if len(values) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, values.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("catalog request failed")
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		c.logger.Debug().Str("endpoint", endpoint).Msg("catalog resource not found")
		return ErrNotFound
	default:
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("endpoint", endpoint).
			Msg("catalog API error")
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Details holds the resolved title, overview and 4-digit year for an item.
type Details struct {
	Title    string
	Overview string
	Year     string
}

// Details fetches title and overview for a catalog identifier. The result is
// memoized per (id, kind, language).
func (c *Client) Details(ctx context.Context, id string, kind media.Kind) (*Details, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	cacheKey := fmt.Sprintf("details_%s_%s_%s", kind, id, c.cfg.Language)
	if d, ok := c.cache.GetDetails(cacheKey); ok {
		return d, nil
	}

	var body detailsResponse
	endpoint := fmt.Sprintf("%s/%s", kind, id)
	if err := c.Fetch(ctx, endpoint, map[string]string{"language": c.cfg.Language}, &body); err != nil {
		return nil, err
	}

	d := &Details{
		Title:    body.Title,
		Overview: body.Overview,
		Year:     yearOf(body.ReleaseDate),
	}
	if kind == media.KindSeries {
		d.Title = body.Name
		d.Year = yearOf(body.FirstAirDate)
	}
	if d.Title == "" {
		d.Title = "Unknown"
	}
	if d.Overview == "" {
		d.Overview = "No description available."
	}

	c.cache.Set(cacheKey, d)
	return d, nil
}

// ImageURL builds a full image URL for a file path and size preset.
func (c *Client) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", strings.TrimSuffix(c.cfg.ImageBaseURL, "/"), size, path)
}

// yearOf extracts the 4-digit year prefix of a YYYY-MM-DD date, or "".
func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}
