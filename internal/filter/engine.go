package filter

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mediarr/mediarr/internal/media"
)

// Config holds the inclusion rules for one feed. It is immutable after
// construction; user overrides replace a default per key, never merge into
// one key's value.
type Config struct {
	Language          string `mapstructure:"language"`
	MinYear           int    `mapstructure:"min_year"`
	ExcludeTalkShows  bool   `mapstructure:"exclude_talk_shows"`
	ExcludeGenres     []int  `mapstructure:"exclude_genres"`
	ExcludeNonEnglish bool   `mapstructure:"exclude_non_english"`
	HideExisting      bool   `mapstructure:"hide_existing"`
	// ExcludeIDs lists catalog identifiers that slip past the genre rules
	// but should never appear in a feed.
	ExcludeIDs []string `mapstructure:"exclude_ids"`
}

// Defaults returns the stock filter configuration: English only, news,
// reality and talk genres excluded.
func Defaults() Config {
	return Config{
		Language:          "en",
		MinYear:           0,
		ExcludeTalkShows:  true,
		ExcludeGenres:     []int{10763, 10764, 10767},
		ExcludeNonEnglish: true,
		HideExisting:      true,
		ExcludeIDs:        []string{"137228"},
	}
}

// Overrides carries per-key user overrides; nil fields keep the default.
type Overrides struct {
	Language          *string `mapstructure:"language"`
	MinYear           *int    `mapstructure:"min_year"`
	ExcludeTalkShows  *bool   `mapstructure:"exclude_talk_shows"`
	ExcludeGenres     []int   `mapstructure:"exclude_genres"`
	ExcludeNonEnglish *bool   `mapstructure:"exclude_non_english"`
	HideExisting      *bool   `mapstructure:"hide_existing"`
	ExcludeIDs        []string `mapstructure:"exclude_ids"`
}

// Apply returns a copy of c with the non-nil override keys replaced.
func (c Config) Apply(o Overrides) Config {
	if o.Language != nil {
		c.Language = *o.Language
	}
	if o.MinYear != nil {
		c.MinYear = *o.MinYear
	}
	if o.ExcludeTalkShows != nil {
		c.ExcludeTalkShows = *o.ExcludeTalkShows
	}
	if o.ExcludeGenres != nil {
		c.ExcludeGenres = o.ExcludeGenres
	}
	if o.ExcludeNonEnglish != nil {
		c.ExcludeNonEnglish = *o.ExcludeNonEnglish
	}
	if o.HideExisting != nil {
		c.HideExisting = *o.HideExisting
	}
	if o.ExcludeIDs != nil {
		c.ExcludeIDs = o.ExcludeIDs
	}
	return c
}

// LibraryView is read-only access to sibling feeds' published records, used
// by the already-in-library rule.
type LibraryView interface {
	// LibraryIDs returns the catalog identifiers present in library feeds.
	LibraryIDs() map[string]struct{}
	// LibraryTitles returns normalized titles present in library feeds.
	LibraryTitles() map[string]struct{}
}

// Context carries the per-cycle external state the engine evaluates against.
// Either field may be zero when the owning feed has no such source.
type Context struct {
	// Requested holds identifiers already requested at the broker.
	Requested map[string]struct{}
	// Library is the sibling-feed view; nil disables the library rule.
	Library LibraryView
}

// Engine is a pure predicate evaluator deciding feed inclusion for raw
// items. Rules run as an ordered short-circuit chain; the first failing rule
// rejects.
type Engine struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates a filter engine for one feed.
func New(cfg Config, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger.With().Str("component", "filter").Logger(),
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Include decides whether a raw item belongs in the feed.
func (e *Engine) Include(item media.RawItem, fctx Context) bool {
	for _, excluded := range e.cfg.ExcludeIDs {
		if item.CatalogID != "" && item.CatalogID == excluded {
			return false
		}
	}

	if fctx.Requested != nil && item.CatalogID != "" {
		if _, ok := fctx.Requested[item.CatalogID]; ok {
			e.logger.Debug().Str("title", item.Title).Msg("rejected: already requested")
			return false
		}
	}

	// Unparsable dates never reject.
	if year, ok := parseYear(item.Date); ok && year < e.cfg.MinYear {
		e.logger.Debug().Str("title", item.Title).Int("year", year).Msg("rejected: below year floor")
		return false
	}

	if e.cfg.ExcludeNonEnglish && item.Language != "en" {
		e.logger.Debug().Str("title", item.Title).Str("language", item.Language).Msg("rejected: non-english")
		return false
	}

	for _, genre := range item.GenreIDs {
		for _, excluded := range e.cfg.ExcludeGenres {
			if genre == excluded {
				e.logger.Debug().Str("title", item.Title).Int("genre", genre).Msg("rejected: excluded genre")
				return false
			}
		}
	}

	if item.Kind == media.KindSeries && e.cfg.ExcludeTalkShows && IsTalkShow(item.Title) {
		e.logger.Debug().Str("title", item.Title).Msg("rejected: talk show")
		return false
	}

	if e.cfg.HideExisting && fctx.Library != nil {
		if item.CatalogID != "" {
			if _, ok := fctx.Library.LibraryIDs()[item.CatalogID]; ok {
				e.logger.Debug().Str("title", item.Title).Msg("rejected: already in library")
				return false
			}
		}
		if _, ok := fctx.Library.LibraryTitles()[NormalizeTitle(item.Title)]; ok {
			e.logger.Debug().Str("title", item.Title).Msg("rejected: title already in library")
			return false
		}
	}

	return true
}

// NormalizeTitle strips episode and parenthetical suffixes and lower-cases
// the result, so library titles compare loosely.
func NormalizeTitle(title string) string {
	title, _, _ = strings.Cut(title, " - ")
	title, _, _ = strings.Cut(title, " (")
	return strings.ToLower(strings.TrimSpace(title))
}

// parseYear extracts the leading 4-digit year of a YYYY-MM-DD date.
func parseYear(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}
