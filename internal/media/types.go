package media

// Kind identifies the media kind of an item as the catalog names it.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "tv"
)

// DisplayType returns the user-facing type label for a kind.
func (k Kind) DisplayType() string {
	if k == KindMovie {
		return "Movie"
	}
	return "TV Show"
}

// RawItem is the adapter-normalized representation of one upstream item
// before filtering and enrichment. It lives for a single refresh cycle.
type RawItem struct {
	// CatalogID is set when the adapter could read a native catalog
	// identifier (e.g. an embedded themoviedb Guid); empty means the
	// title resolver has to find one.
	CatalogID string
	Title     string
	// Date is YYYY-MM-DD or a partial prefix of it; may be empty.
	Date     string
	Language string
	GenreIDs []int
	Kind     Kind
	// Episode and Number carry per-episode display context for library
	// feeds (episode title and SxxEyy code); empty elsewhere.
	Episode string
	Number  string
	// AddedAt is the upstream sort key (unix seconds) when the source
	// provides one; zero preserves upstream order.
	AddedAt int64
}

// Record is the final display-ready output unit of the enrichment pipeline.
type Record struct {
	Title    string `json:"title"`
	Overview string `json:"overview"`
	Year     string `json:"year"`
	Poster   string `json:"poster"`
	Fanart   string `json:"fanart"`
	Banner   string `json:"banner"`
	Type     string `json:"type"`
	Flag     int    `json:"flag"`
	TmdbID   string `json:"tmdb_id,omitempty"`
	Episode  string `json:"episode,omitempty"`
	Number   string `json:"number,omitempty"`
}

// overviewRuneLimit is how much of an overview a card row shows.
const overviewRuneLimit = 100

// ShortOverview truncates an overview for a card row. The limit counts
// runes, not bytes, so a multibyte character never splits at the boundary.
func ShortOverview(s string) string {
	runes := []rune(s)
	if len(runes) <= overviewRuneLimit {
		return s
	}
	return string(runes[:overviewRuneLimit]) + "..."
}

// Placeholder is the fixed template row emitted when a feed has no
// renderable items, so card consumers always receive at least one entry.
type Placeholder struct {
	TitleDefault string `json:"title_default"`
	Line1Default string `json:"line1_default"`
	Line2Default string `json:"line2_default"`
	Line3Default string `json:"line3_default"`
	Icon         string `json:"icon"`
}

// NewPlaceholder returns the empty-feed template with the given icon.
func NewPlaceholder(icon string) Placeholder {
	return Placeholder{
		TitleDefault: "$title",
		Line1Default: "$type",
		Line2Default: "$overview",
		Line3Default: "$year",
		Icon:         icon,
	}
}
