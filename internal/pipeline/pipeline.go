package pipeline

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mediarr/mediarr/internal/catalog"
	"github.com/mediarr/mediarr/internal/filter"
	"github.com/mediarr/mediarr/internal/media"
)

// Catalog is the enrichment surface of the catalog client.
type Catalog interface {
	Resolve(ctx context.Context, title string, year int, kind media.Kind) (string, error)
	Details(ctx context.Context, id string, kind media.Kind) (*catalog.Details, error)
	Images(ctx context.Context, id string, kind media.Kind) (catalog.ImageSet, error)
}

// Filter decides feed inclusion for raw items.
type Filter interface {
	Include(item media.RawItem, fctx filter.Context) bool
}

// Options configures a pipeline.
type Options struct {
	// MaxItems bounds the output list; zero or negative means unbounded.
	MaxItems int
}

// Pipeline turns raw upstream items into normalized display records. Items
// are enriched concurrently and independently; one item's failure never
// affects its siblings, it is simply dropped from the output.
type Pipeline struct {
	catalog  Catalog
	filter   Filter
	maxItems int
	logger   zerolog.Logger
}

// New creates a pipeline.
func New(cat Catalog, flt Filter, opts Options, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		catalog:  cat,
		filter:   flt,
		maxItems: opts.MaxItems,
		logger:   logger.With().Str("component", "pipeline").Logger(),
	}
}

// outcome is one item's enrichment result. ok is false for filtered or
// failed items.
type outcome struct {
	record  media.Record
	id      string
	addedAt int64
	ok      bool
}

// Run enriches the given items and returns the bounded, deduplicated,
// ordered record list. Items may mix media kinds (discover feeds concatenate
// movies and series before this call); deduplication and truncation happen
// once, after all items finish.
func (p *Pipeline) Run(ctx context.Context, items []media.RawItem, fctx filter.Context) []media.Record {
	outcomes := make([]outcome, len(items))

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = p.enrich(ctx, items[i], fctx)
		}(i)
	}
	wg.Wait()

	kept := make([]outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.ok {
			kept = append(kept, o)
		}
	}

	// Most recently added first; items without a sort key keep upstream order.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].addedAt > kept[j].addedAt
	})

	seen := make(map[string]struct{}, len(kept))
	records := make([]media.Record, 0, len(kept))
	for _, o := range kept {
		if _, dup := seen[o.id]; dup {
			continue
		}
		seen[o.id] = struct{}{}
		records = append(records, o.record)
	}

	if p.maxItems > 0 && len(records) > p.maxItems {
		records = records[:p.maxItems]
	}
	return records
}

// enrich runs one item through resolve, filter, details and images. Any miss
// or upstream failure drops the item.
func (p *Pipeline) enrich(ctx context.Context, item media.RawItem, fctx filter.Context) outcome {
	if item.CatalogID == "" {
		// A series row's date tracks its newest episode, not the premiere,
		// so show searches go out without a year.
		year := 0
		if item.Kind == media.KindMovie {
			year = yearOf(item.Date)
		}
		id, err := p.catalog.Resolve(ctx, item.Title, year, item.Kind)
		if err != nil {
			p.logger.Debug().Str("title", item.Title).Msg("unresolved title, dropping item")
			return outcome{}
		}
		item.CatalogID = id
	}

	if !p.filter.Include(item, fctx) {
		return outcome{}
	}

	details, err := p.catalog.Details(ctx, item.CatalogID, item.Kind)
	if err != nil {
		p.logger.Debug().Err(err).Str("id", item.CatalogID).Msg("details unavailable, dropping item")
		return outcome{}
	}

	images, err := p.catalog.Images(ctx, item.CatalogID, item.Kind)
	if err != nil {
		p.logger.Debug().Err(err).Str("id", item.CatalogID).Msg("images unavailable, dropping item")
		return outcome{}
	}

	fanart := images.MainBackdrop
	if fanart == "" {
		fanart = images.Backdrop
	}

	return outcome{
		record: media.Record{
			Title:    details.Title,
			Overview: media.ShortOverview(details.Overview),
			Year:     details.Year,
			Poster:   images.Poster,
			Fanart:   fanart,
			Banner:   images.Backdrop,
			Type:     item.Kind.DisplayType(),
			Flag:     1,
			TmdbID:   item.CatalogID,
			Episode:  item.Episode,
			Number:   item.Number,
		},
		id:      item.CatalogID,
		addedAt: item.AddedAt,
		ok:      true,
	}
}

// Cards wraps records for publication, substituting the placeholder template
// when the feed is empty.
func Cards(records []media.Record, icon string) []any {
	if len(records) == 0 {
		return []any{media.NewPlaceholder(icon)}
	}
	cards := make([]any, len(records))
	for i, r := range records {
		cards[i] = r
	}
	return cards
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
