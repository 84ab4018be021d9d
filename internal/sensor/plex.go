package sensor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mediarr/mediarr/internal/filter"
	"github.com/mediarr/mediarr/internal/media"
	"github.com/mediarr/mediarr/internal/pipeline"
	"github.com/mediarr/mediarr/internal/plex"
)

const plexPlaceholderIcon = "mdi:eye-off"

// PlexClient is the library surface of the media-server client.
type PlexClient interface {
	Sections(ctx context.Context) ([]string, error)
	RecentlyAdded(ctx context.Context, sectionKey string) ([]plex.Video, error)
}

// PlexSensor publishes the media server's recently added items, enriched
// with catalog details and artwork. Episodes of the same show collapse into
// a single row carrying the newest addition's sort key.
type PlexSensor struct {
	state
	client PlexClient
	pipe   *pipeline.Pipeline
	logger zerolog.Logger
}

// NewPlexSensor creates the recently-added sensor.
func NewPlexSensor(client PlexClient, pipe *pipeline.Pipeline, logger zerolog.Logger) *PlexSensor {
	return &PlexSensor{
		client: client,
		pipe:   pipe,
		logger: logger.With().Str("component", "plex-sensor").Logger(),
	}
}

func (s *PlexSensor) Name() string { return "Plex Mediarr" }

func (s *PlexSensor) UniqueID() string { return "plex_mediarr" }

// Refresh fetches every section's recently added list and runs the items
// through the enrichment pipeline. A single failing section is skipped; a
// failing section listing fails the whole cycle.
func (s *PlexSensor) Refresh(ctx context.Context) error {
	sections, err := s.client.Sections(ctx)
	if err != nil {
		s.fail()
		return err
	}

	var videos []plex.Video
	for _, section := range sections {
		items, err := s.client.RecentlyAdded(ctx, section)
		if err != nil {
			s.logger.Error().Err(err).Str("section", section).Msg("section fetch failed, skipping")
			continue
		}
		videos = append(videos, items...)
	}

	raw := collapseVideos(videos)
	records := s.pipe.Run(ctx, raw, filter.Context{})
	s.publish(len(records), pipeline.Cards(records, plexPlaceholderIcon))
	return nil
}

// collapseVideos converts videos to raw items, grouping episodes by show so
// each show appears once. The newest addition supplies the row's sort key
// and episode context; shows with several new episodes get a count label.
func collapseVideos(videos []plex.Video) []media.RawItem {
	raw := make([]media.RawItem, 0, len(videos))
	showIndex := make(map[string]int)
	showCounts := make(map[string]int)

	for _, v := range videos {
		if v.IsEpisode() {
			show := v.DisplayTitle()
			showCounts[show]++
			if i, seen := showIndex[show]; seen {
				if v.AddedAt > raw[i].AddedAt {
					raw[i].AddedAt = v.AddedAt
					raw[i].Episode = v.Title
					raw[i].Number = v.EpisodeCode()
				}
				continue
			}
			showIndex[show] = len(raw)

			raw = append(raw, media.RawItem{
				CatalogID: v.CatalogGuid(),
				Title:     show,
				Date:      v.OriginallyAvailableAt,
				Kind:      media.KindSeries,
				AddedAt:   v.AddedAt,
				Episode:   v.Title,
				Number:    v.EpisodeCode(),
			})
			continue
		}

		date := v.OriginallyAvailableAt
		if date == "" && v.Year > 0 {
			date = fmt.Sprintf("%04d", v.Year)
		}

		raw = append(raw, media.RawItem{
			CatalogID: v.CatalogGuid(),
			Title:     v.DisplayTitle(),
			Date:      date,
			Kind:      media.KindMovie,
			AddedAt:   v.AddedAt,
		})
	}

	for show, count := range showCounts {
		if count > 1 {
			i := showIndex[show]
			raw[i].Episode = fmt.Sprintf("%d new episodes (%s)", count, raw[i].Number)
		}
	}
	return raw
}
