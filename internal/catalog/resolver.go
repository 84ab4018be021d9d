package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mediarr/mediarr/internal/media"
)

var (
	yearSuffixPattern = regexp.MustCompile(`\s*\(\d{4}\)\s*$`)
	parenthesesPattern = regexp.MustCompile(`\s*\([^)]*\)\s*`)
)

// Resolve maps a free-text title (optionally with a year) to a catalog
// identifier, retrying with progressively relaxed title variants:
// the title as given, the title with a trailing "(YYYY)" stripped, the title
// with all parenthesized segments stripped, and finally the part before the
// first colon when it is longer than three characters. The first variant
// whose search returns results wins; only the first result is considered.
// Upstream failures on one variant count as a miss for that variant.
func (c *Client) Resolve(ctx context.Context, title string, year int, kind media.Kind) (string, error) {
	if title == "" {
		return "", ErrNotFound
	}

	if id := c.searchVariant(ctx, title, year, kind); id != "" {
		return id, nil
	}

	noYear := strings.TrimSpace(yearSuffixPattern.ReplaceAllString(title, ""))
	if noYear != title {
		if id := c.searchVariant(ctx, noYear, year, kind); id != "" {
			return id, nil
		}
	}

	noParens := strings.TrimSpace(parenthesesPattern.ReplaceAllString(title, " "))
	if noParens != title && noParens != noYear {
		if id := c.searchVariant(ctx, noParens, year, kind); id != "" {
			return id, nil
		}
	}

	if idx := strings.Index(title, ":"); idx >= 0 {
		firstPart := strings.TrimSpace(title[:idx])
		if len(firstPart) > 3 {
			if id := c.searchVariant(ctx, firstPart, year, kind); id != "" {
				return id, nil
			}
		}
	}

	return "", ErrNotFound
}

// searchVariant runs one search attempt, memoized by the exact query tuple.
// It returns "" on an empty result set or a soft upstream failure.
func (c *Client) searchVariant(ctx context.Context, title string, year int, kind media.Kind) string {
	id, err := c.Search(ctx, title, year, kind)
	if err != nil {
		return ""
	}
	return id
}

// Search issues a single title search and returns the identifier of the
// first result, or ErrNotFound when the result set is empty.
func (c *Client) Search(ctx context.Context, title string, year int, kind media.Kind) (string, error) {
	if title == "" {
		return "", ErrNotFound
	}

	cacheKey := fmt.Sprintf("search_%s_%s_%d_%s", kind, title, year, c.cfg.Language)
	if id, ok := c.cache.GetID(cacheKey); ok {
		return id, nil
	}

	params := map[string]string{
		"query":    title,
		"language": c.cfg.Language,
	}
	if year > 0 {
		params["year"] = strconv.Itoa(year)
	}

	var body searchResponse
	if err := c.Fetch(ctx, "search/"+string(kind), params, &body); err != nil {
		return "", err
	}
	if len(body.Results) == 0 {
		return "", ErrNotFound
	}

	id := strconv.Itoa(body.Results[0].ID)
	c.cache.Set(cacheKey, id)
	return id, nil
}
