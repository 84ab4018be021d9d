package sensor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mediarr/mediarr/internal/catalog"
	"github.com/mediarr/mediarr/internal/filter"
	"github.com/mediarr/mediarr/internal/media"
	"github.com/mediarr/mediarr/internal/pipeline"
)

const tmdbPlaceholderIcon = "mdi:movie"

// ListType names one catalog list feed.
type ListType string

const (
	ListTrending      ListType = "trending"
	ListNowPlaying    ListType = "now_playing"
	ListUpcoming      ListType = "upcoming"
	ListOnAir         ListType = "on_air"
	ListAiringToday   ListType = "airing_today"
	ListPopularMovies ListType = "popular_movies"
	ListPopularTV     ListType = "popular_tv"
)

// tmdbFeed binds a list type to its catalog endpoint and media kind. An
// empty kind means the list mixes kinds and each result names its own.
type tmdbFeed struct {
	endpoint string
	kind     media.Kind
	name     string
}

var tmdbFeeds = map[ListType]tmdbFeed{
	ListTrending:      {"trending/all/week", "", "Trending"},
	ListNowPlaying:    {"movie/now_playing", media.KindMovie, "Now Playing"},
	ListUpcoming:      {"movie/upcoming", media.KindMovie, "Upcoming"},
	ListOnAir:         {"tv/on_the_air", media.KindSeries, "On Air"},
	ListAiringToday:   {"tv/airing_today", media.KindSeries, "Airing Today"},
	ListPopularMovies: {"movie/popular", media.KindMovie, "Popular Movies"},
	ListPopularTV:     {"tv/popular", media.KindSeries, "Popular TV"},
}

// tmdbListResponse is the wire shape of a catalog list page. List entries
// already carry everything a card row needs, so no per-item enrichment
// round trips are made.
type tmdbListResponse struct {
	Results []tmdbListItem `json:"results"`
}

type tmdbListItem struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	Name             string `json:"name"`
	Overview         string `json:"overview"`
	OriginalLanguage string `json:"original_language"`
	GenreIDs         []int  `json:"genre_ids"`
	ReleaseDate      string `json:"release_date"`
	FirstAirDate     string `json:"first_air_date"`
	PosterPath       string `json:"poster_path"`
	BackdropPath     string `json:"backdrop_path"`
	MediaType        string `json:"media_type"`
}

// TMDBSensor publishes one catalog list feed (trending, upcoming, popular
// and friends), filtered by the feed's rule set and deduplicated against
// library sensors.
type TMDBSensor struct {
	state
	client   *catalog.Client
	engine   *filter.Engine
	library  filter.LibraryView
	listType ListType
	maxItems int
	logger   zerolog.Logger
}

// NewTMDBSensor creates a catalog list sensor for one list type.
func NewTMDBSensor(client *catalog.Client, engine *filter.Engine, library filter.LibraryView, listType ListType, maxItems int, logger zerolog.Logger) *TMDBSensor {
	return &TMDBSensor{
		client:   client,
		engine:   engine,
		library:  library,
		listType: listType,
		maxItems: maxItems,
		logger:   logger.With().Str("component", "tmdb-sensor").Str("list", string(listType)).Logger(),
	}
}

func (s *TMDBSensor) Name() string {
	if feed, ok := tmdbFeeds[s.listType]; ok {
		return "TMDB Mediarr " + feed.name
	}
	return "TMDB Mediarr " + titleCase(string(s.listType))
}

func (s *TMDBSensor) UniqueID() string {
	return fmt.Sprintf("tmdb_mediarr_%s", s.listType)
}

// popularTVCharts are the endpoints the popular TV feed aggregates, two
// pages each, so filtering still leaves a full list.
var popularTVCharts = []string{"tv/popular", "trending/tv/week", "tv/top_rated"}

// Refresh fetches the feed's list pages and publishes the filtered rows.
func (s *TMDBSensor) Refresh(ctx context.Context) error {
	feed, ok := tmdbFeeds[s.listType]
	if !ok {
		s.fail()
		return fmt.Errorf("unknown list type %q", s.listType)
	}

	results, err := s.fetchResults(ctx, feed)
	if err != nil {
		s.fail()
		return err
	}

	fctx := filter.Context{Library: s.library}
	seen := make(map[string]struct{}, len(results))
	records := make([]media.Record, 0, len(results))

	for _, result := range results {
		kind := feed.kind
		if kind == "" {
			switch result.MediaType {
			case "movie":
				kind = media.KindMovie
			case "tv":
				kind = media.KindSeries
			default:
				// Mixed trending lists include people; those never render.
				continue
			}
		}

		item := rawListItem(result, kind)
		if _, dup := seen[item.CatalogID]; dup {
			continue
		}
		if !s.engine.Include(item, fctx) {
			continue
		}
		seen[item.CatalogID] = struct{}{}

		records = append(records, s.record(result, item))
		if s.maxItems > 0 && len(records) == s.maxItems {
			break
		}
	}

	s.publish(len(records), pipeline.Cards(records, tmdbPlaceholderIcon))
	return nil
}

// fetchResults returns the feed's raw result set. Most feeds are a single
// list page; popular TV walks three chart endpoints across two pages each
// and concatenates them. A failing chart page is skipped, not fatal.
func (s *TMDBSensor) fetchResults(ctx context.Context, feed tmdbFeed) ([]tmdbListItem, error) {
	if s.listType != ListPopularTV {
		var body tmdbListResponse
		params := map[string]string{"language": s.client.Language()}
		if err := s.client.Fetch(ctx, feed.endpoint, params, &body); err != nil {
			return nil, err
		}
		return body.Results, nil
	}

	var results []tmdbListItem
	for _, endpoint := range popularTVCharts {
		for page := 1; page <= 2; page++ {
			var body tmdbListResponse
			params := map[string]string{
				"language": s.client.Language(),
				"page":     strconv.Itoa(page),
			}
			if err := s.client.Fetch(ctx, endpoint, params, &body); err != nil {
				s.logger.Warn().Err(err).Str("endpoint", endpoint).Int("page", page).Msg("chart page unavailable, skipping")
				continue
			}
			results = append(results, body.Results...)
		}
	}
	return results, nil
}

// rawListItem normalizes one list entry for the filter engine.
func rawListItem(result tmdbListItem, kind media.Kind) media.RawItem {
	title := result.Title
	date := result.ReleaseDate
	if kind == media.KindSeries {
		title = result.Name
		date = result.FirstAirDate
	}
	return media.RawItem{
		CatalogID: strconv.Itoa(result.ID),
		Title:     title,
		Date:      date,
		Language:  result.OriginalLanguage,
		GenreIDs:  result.GenreIDs,
		Kind:      kind,
	}
}

// record builds a display row straight from the list entry.
func (s *TMDBSensor) record(result tmdbListItem, item media.RawItem) media.Record {
	title := item.Title
	if title == "" {
		title = "Unknown"
	}
	overview := result.Overview
	if overview == "" {
		overview = "No description available."
	}
	overview = media.ShortOverview(overview)

	return media.Record{
		Title:    title,
		Overview: overview,
		Year:     yearPrefix(item.Date),
		Poster:   s.client.ImageURL(result.PosterPath, "w500"),
		Fanart:   s.client.ImageURL(result.BackdropPath, "original"),
		Banner:   s.client.ImageURL(result.BackdropPath, "w780"),
		Type:     item.Kind.DisplayType(),
		Flag:     1,
		TmdbID:   item.CatalogID,
	}
}

func yearPrefix(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}
