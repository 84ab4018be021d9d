package sensor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mediarr/mediarr/internal/filter"
	"github.com/mediarr/mediarr/internal/media"
	"github.com/mediarr/mediarr/internal/pipeline"
	"github.com/mediarr/mediarr/internal/seer"
)

const seerPlaceholderIcon = "mdi:movie-search"

// ContentType names one broker discovery feed.
type ContentType string

const (
	ContentTrending      ContentType = "trending"
	ContentPopularMovies ContentType = "popular_movies"
	ContentPopularTV     ContentType = "popular_tv"
	ContentDiscover      ContentType = "discover"
)

// SeerClient is the discovery surface of the broker client.
type SeerClient interface {
	Discover(ctx context.Context, list seer.List, sortBy string) ([]seer.DiscoverItem, error)
	RequestedIDs(ctx context.Context) (map[string]struct{}, error)
}

// SeerSensor publishes one broker discovery feed, enriched with catalog
// details and artwork and deduplicated against already-requested media.
type SeerSensor struct {
	state
	client      SeerClient
	pipe        *pipeline.Pipeline
	contentType ContentType
	logger      zerolog.Logger
}

// NewSeerSensor creates a discovery sensor for one content type.
func NewSeerSensor(client SeerClient, pipe *pipeline.Pipeline, contentType ContentType, logger zerolog.Logger) *SeerSensor {
	return &SeerSensor{
		client:      client,
		pipe:        pipe,
		contentType: contentType,
		logger:      logger.With().Str("component", "seer-sensor").Str("content", string(contentType)).Logger(),
	}
}

func (s *SeerSensor) Name() string {
	switch s.contentType {
	case ContentPopularMovies:
		return "Seer Mediarr Popular Movies"
	case ContentPopularTV:
		return "Seer Mediarr Popular TV"
	default:
		return "Seer Mediarr " + titleCase(string(s.contentType))
	}
}

func (s *SeerSensor) UniqueID() string {
	return fmt.Sprintf("seer_mediarr_%s", s.contentType)
}

// Refresh fetches the feed and runs it through the enrichment pipeline.
// Discover mode fetches movies and series and concatenates them before the
// pipeline's final dedup and truncation.
func (s *SeerSensor) Refresh(ctx context.Context) error {
	fctx := filter.Context{}
	if requested, err := s.client.RequestedIDs(ctx); err == nil {
		fctx.Requested = requested
	} else {
		s.logger.Warn().Err(err).Msg("requested ids unavailable, skipping request dedup")
	}

	raw, err := s.fetch(ctx)
	if err != nil {
		s.fail()
		return err
	}

	records := s.pipe.Run(ctx, raw, fctx)
	s.publish(len(records), pipeline.Cards(records, seerPlaceholderIcon))
	return nil
}

func (s *SeerSensor) fetch(ctx context.Context) ([]media.RawItem, error) {
	switch s.contentType {
	case ContentTrending:
		items, err := s.client.Discover(ctx, seer.ListTrending, "")
		if err != nil {
			return nil, err
		}
		return seer.RawItems(items, media.KindMovie), nil

	case ContentPopularMovies:
		items, err := s.client.Discover(ctx, seer.ListMovies, "popularity.desc")
		if err != nil {
			return nil, err
		}
		return seer.RawItems(items, media.KindMovie), nil

	case ContentPopularTV:
		items, err := s.client.Discover(ctx, seer.ListTV, "popularity.desc")
		if err != nil {
			return nil, err
		}
		return seer.RawItems(items, media.KindSeries), nil

	case ContentDiscover:
		movies, err := s.client.Discover(ctx, seer.ListMovies, "")
		if err != nil {
			return nil, err
		}
		series, err := s.client.Discover(ctx, seer.ListTV, "")
		if err != nil {
			return nil, err
		}
		raw := seer.RawItems(movies, media.KindMovie)
		return append(raw, seer.RawItems(series, media.KindSeries)...), nil

	default:
		return nil, fmt.Errorf("unknown content type %q", s.contentType)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
