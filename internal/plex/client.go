package plex

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const requestTimeout = 10 * time.Second

var ErrUpstream = errors.New("plex upstream error")

// Config holds media-server client configuration.
type Config struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// Client provides read access to a Plex-compatible media server's library.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new media-server client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger.With().Str("component", "plex").Logger(),
	}
}

// IsConfigured returns true if a server URL is set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// Sections returns the library section keys of the server.
func (c *Client) Sections(ctx context.Context) ([]string, error) {
	var container mediaContainer
	if err := c.doXML(ctx, "/library/sections", &container); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(container.Directories))
	for _, dir := range container.Directories {
		if dir.Key != "" {
			keys = append(keys, dir.Key)
		}
	}
	return keys, nil
}

// RecentlyAdded returns the recently added videos of a library section.
func (c *Client) RecentlyAdded(ctx context.Context, sectionKey string) ([]Video, error) {
	path := fmt.Sprintf("/library/sections/%s/recentlyAdded", sectionKey)
	var container mediaContainer
	if err := c.doXML(ctx, path, &container); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("section", sectionKey).
		Int("count", len(container.Videos)).
		Msg("fetched recently added")
	return container.Videos, nil
}

// doXML executes a GET with the Plex token header and decodes the XML body.
func (c *Client) doXML(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("plex request failed")
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Str("path", path).Msg("plex API error")
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := xml.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
