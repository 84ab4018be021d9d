package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/mediarr/mediarr/internal/media"
)

// Image size presets. Posters use a medium width, the banner backdrop a
// wider one, and the main backdrop full resolution.
const (
	posterSize   = "w500"
	backdropSize = "w780"
	originalSize = "original"
)

// ImageSet holds the resolved artwork URLs for one item. Any field may be
// empty when the catalog has no usable asset.
type ImageSet struct {
	Poster       string
	Backdrop     string
	MainBackdrop string
}

// Images resolves poster and backdrop URLs for a catalog identifier.
//
// Assets tagged with the configured language are preferred; when none carry
// the tag the whole set is considered. If a slot is still empty and the
// unfiltered set had no English-tagged asset either, a second fetch
// explicitly requesting English fills only the missing slots. A poster
// stands in for missing backdrops as the last resort. Results are cached
// per (id, kind, language).
func (c *Client) Images(ctx context.Context, id string, kind media.Kind) (ImageSet, error) {
	if id == "" {
		return ImageSet{}, ErrNotFound
	}

	cacheKey := fmt.Sprintf("images_%s_%s_%s", kind, id, c.cfg.Language)
	if set, ok := c.cache.GetImages(cacheKey); ok {
		return set, nil
	}

	var body imagesResponse
	endpoint := fmt.Sprintf("%s/%s/images", kind, id)
	if err := c.Fetch(ctx, endpoint, nil, &body); err != nil {
		return ImageSet{}, err
	}

	set := c.pickImages(body.Posters, body.Backdrops, c.cfg.Language)

	if (set.Poster == "" || set.Backdrop == "") && c.cfg.Language != "en" && !hasLanguage(body, "en") {
		var english imagesResponse
		if err := c.Fetch(ctx, endpoint, map[string]string{"language": "en"}, &english); err == nil {
			fallback := c.pickImages(english.Posters, english.Backdrops, "en")
			if set.Poster == "" {
				set.Poster = fallback.Poster
			}
			if set.Backdrop == "" {
				set.Backdrop = fallback.Backdrop
			}
			if set.MainBackdrop == "" {
				set.MainBackdrop = fallback.MainBackdrop
			}
		}
	}

	// A poster is better than an empty slot.
	if set.Poster != "" {
		if set.Backdrop == "" {
			set.Backdrop = set.Poster
		}
		if set.MainBackdrop == "" {
			set.MainBackdrop = set.Poster
		}
	}

	c.logger.Debug().
		Str("id", id).
		Str("kind", string(kind)).
		Bool("poster", set.Poster != "").
		Bool("backdrop", set.Backdrop != "").
		Msg("resolved images")

	c.cache.Set(cacheKey, set)
	return set, nil
}

// pickImages selects a poster and two backdrops from the given assets,
// preferring entries tagged with lang.
func (c *Client) pickImages(posters, backdrops []Image, lang string) ImageSet {
	var set ImageSet

	if chosen := preferLanguage(posters, lang); len(chosen) > 0 {
		set.Poster = c.ImageURL(chosen[0].FilePath, posterSize)
	}

	chosen := preferLanguage(backdrops, lang)
	if len(chosen) > 0 {
		sort.SliceStable(chosen, func(i, j int) bool {
			return chosen[i].VoteCount > chosen[j].VoteCount
		})
		set.Backdrop = c.ImageURL(chosen[0].FilePath, backdropSize)
		main := chosen[0]
		if len(chosen) > 1 {
			main = chosen[1]
		}
		set.MainBackdrop = c.ImageURL(main.FilePath, originalSize)
	}

	return set
}

// preferLanguage returns the subset of images tagged with lang, or a copy of
// the whole set when none carry the tag.
func preferLanguage(images []Image, lang string) []Image {
	var tagged []Image
	for _, img := range images {
		if img.ISO6391 == lang {
			tagged = append(tagged, img)
		}
	}
	if len(tagged) > 0 {
		return tagged
	}
	out := make([]Image, len(images))
	copy(out, images)
	return out
}

// hasLanguage reports whether any asset in the response carries the tag.
func hasLanguage(body imagesResponse, lang string) bool {
	for _, img := range body.Posters {
		if img.ISO6391 == lang {
			return true
		}
	}
	for _, img := range body.Backdrops {
		if img.ISO6391 == lang {
			return true
		}
	}
	return false
}
