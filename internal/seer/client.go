package seer

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

	"github.com/rs/zerolog"

	"github.com/mediarr/mediarr/internal/media"
)

const (
	requestTimeout = 10 * time.Second
	//nolint:gosec // header name constant, not a credential
	apiKeyHeader = "X-Api-Key"

	// requestPageSize is the page size for walking /request.
	requestPageSize = 100
)

var ErrUpstream = errors.New("seer upstream error")

// List names a discover feed on the request broker.
type List string

const (
	ListTrending List = "trending"
	ListMovies   List = "movies"
	ListTV       List = "tv"
)

// Config holds request-broker client configuration.
type Config struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// Client provides HTTP communication with a Jellyseerr/Overseerr-compatible
// request broker.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new broker client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger.With().Str("component", "seer").Logger(),
	}
}

// IsConfigured returns true if a server URL is set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// DiscoverItem is one entry of a discover feed.
type DiscoverItem struct {
	ID               int    `json:"id"`
	MediaType        string `json:"mediaType"`
	Title            string `json:"title"`
	Name             string `json:"name"`
	ReleaseDate      string `json:"releaseDate"`
	FirstAirDate     string `json:"firstAirDate"`
	OriginalLanguage string `json:"originalLanguage"`
	GenreIDs         []int  `json:"genreIds"`
}

type discoverResponse struct {
	Page    int            `json:"page"`
	Results []DiscoverItem `json:"results"`
}

// Discover fetches one discover feed, optionally sorted.
func (c *Client) Discover(ctx context.Context, list List, sortBy string) ([]DiscoverItem, error) {
	params := url.Values{}
	if sortBy != "" {
		params.Set("sortBy", sortBy)
	}

	var body discoverResponse
	path := fmt.Sprintf("/api/v1/discover/%s", list)
	if err := c.doJSON(ctx, path, params, &body); err != nil {
		return nil, err
	}
	return body.Results, nil
}

// RawItems converts discover entries of the given kind to the common raw
// item shape. Entries carrying their own mediaType (trending feeds mix both)
// override the kind argument.
func RawItems(items []DiscoverItem, kind media.Kind) []media.RawItem {
	raw := make([]media.RawItem, 0, len(items))
	for _, it := range items {
		k := kind
		switch it.MediaType {
		case "movie":
			k = media.KindMovie
		case "tv":
			k = media.KindSeries
		}

		title, date := it.Title, it.ReleaseDate
		if k == media.KindSeries {
			title, date = it.Name, it.FirstAirDate
		}

		raw = append(raw, media.RawItem{
			CatalogID: strconv.Itoa(it.ID),
			Title:     title,
			Date:      date,
			Language:  it.OriginalLanguage,
			GenreIDs:  it.GenreIDs,
			Kind:      k,
		})
	}
	return raw
}

type requestsResponse struct {
	PageInfo struct {
		Pages   int `json:"pages"`
		Results int `json:"results"`
	} `json:"pageInfo"`
	Results []struct {
		Media struct {
			TmdbID int `json:"tmdbId"`
		} `json:"media"`
	} `json:"results"`
}

// RequestedIDs walks the paginated request list and returns the set of
// catalog identifiers already requested at the broker.
func (c *Client) RequestedIDs(ctx context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{})

	for skip := 0; ; skip += requestPageSize {
		params := url.Values{}
		params.Set("take", strconv.Itoa(requestPageSize))
		params.Set("skip", strconv.Itoa(skip))

		var body requestsResponse
		if err := c.doJSON(ctx, "/api/v1/request", params, &body); err != nil {
			return nil, err
		}
		if len(body.Results) == 0 {
			break
		}
		for _, r := range body.Results {
			if r.Media.TmdbID != 0 {
				ids[strconv.Itoa(r.Media.TmdbID)] = struct{}{}
			}
		}
	}

	c.logger.Debug().Int("count", len(ids)).Msg("fetched requested ids")
	return ids, nil
}

// doJSON executes a GET with the API key header and decodes the JSON body.
func (c *Client) doJSON(ctx context.Context, path string, params url.Values, result any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("seer request failed")
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Str("path", path).Msg("seer API error")
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
