package sensor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediarr/mediarr/internal/catalog"
	"github.com/mediarr/mediarr/internal/filter"
	"github.com/mediarr/mediarr/internal/media"
)

func tmdbTestClient(server *httptest.Server) *catalog.Client {
	return catalog.NewClient(catalog.Config{
		APIKey:       "k",
		BaseURL:      server.URL,
		ImageBaseURL: "https://img.example.com/t/p",
		Language:     "en",
	}, zerolog.Nop())
}

func TestTMDBSensor_Refresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trending/all/week" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"id": 603, "media_type": "movie", "title": "The Matrix",
					"overview": "A computer hacker learns about the true nature of reality.",
					"release_date": "1999-03-30", "original_language": "en",
					"poster_path": "/matrix.jpg", "backdrop_path": "/matrix-bd.jpg",
				},
				{
					"id": 1396, "media_type": "tv", "name": "Breaking Bad",
					"first_air_date": "2008-01-20", "original_language": "en",
					"poster_path": "/bb.jpg",
				},
				{"id": 500, "media_type": "person", "name": "Someone Famous"},
			},
		})
	}))
	defer server.Close()

	engine := filter.New(filter.Defaults(), zerolog.Nop())
	sn := NewTMDBSensor(tmdbTestClient(server), engine, nil, ListTrending, 10, zerolog.Nop())
	require.NoError(t, sn.Refresh(context.Background()))

	snap := sn.Snapshot()
	assert.True(t, snap.Available)
	assert.Equal(t, 2, snap.State, "person entries never render")

	movie, ok := snap.Data[0].(media.Record)
	require.True(t, ok)
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, "1999", movie.Year)
	assert.Equal(t, "Movie", movie.Type)
	assert.Equal(t, "https://img.example.com/t/p/w500/matrix.jpg", movie.Poster)
	assert.Equal(t, "https://img.example.com/t/p/original/matrix-bd.jpg", movie.Fanart)
	assert.Equal(t, "https://img.example.com/t/p/w780/matrix-bd.jpg", movie.Banner)

	show, ok := snap.Data[1].(media.Record)
	require.True(t, ok)
	assert.Equal(t, "Breaking Bad", show.Title)
	assert.Equal(t, "TV Show", show.Type)
	assert.Equal(t, "2008", show.Year)
}

func TestTMDBSensor_FixedKindLists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/upcoming" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": 1, "title": "Future Movie", "release_date": "2030-01-01", "original_language": "en"},
			},
		})
	}))
	defer server.Close()

	engine := filter.New(filter.Defaults(), zerolog.Nop())
	sn := NewTMDBSensor(tmdbTestClient(server), engine, nil, ListUpcoming, 10, zerolog.Nop())
	require.NoError(t, sn.Refresh(context.Background()))

	snap := sn.Snapshot()
	require.Equal(t, 1, snap.State)
	rec := snap.Data[0].(media.Record)
	assert.Equal(t, "Movie", rec.Type)
}

func TestTMDBSensor_MaxItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results := make([]map[string]any, 0, 20)
		for i := 1; i <= 20; i++ {
			results = append(results, map[string]any{
				"id": i, "title": "Movie", "release_date": "2020-01-01", "original_language": "en",
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	defer server.Close()

	engine := filter.New(filter.Defaults(), zerolog.Nop())
	sn := NewTMDBSensor(tmdbTestClient(server), engine, nil, ListPopularMovies, 5, zerolog.Nop())
	require.NoError(t, sn.Refresh(context.Background()))
	assert.Equal(t, 5, sn.Snapshot().State)
}

func TestTMDBSensor_PopularTVAggregatesCharts(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.URL.Path+"?page="+r.URL.Query().Get("page"))
		mu.Unlock()

		switch r.URL.Path {
		case "/tv/popular":
			json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{
				{"id": 1396, "name": "Breaking Bad", "first_air_date": "2008-01-20", "original_language": "en"},
			}})
		case "/trending/tv/week":
			// Overlaps with the popular chart.
			json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{
				{"id": 1396, "name": "Breaking Bad", "first_air_date": "2008-01-20", "original_language": "en"},
				{"id": 95396, "name": "Severance", "first_air_date": "2022-02-18", "original_language": "en"},
			}})
		case "/tv/top_rated":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	engine := filter.New(filter.Defaults(), zerolog.Nop())
	sn := NewTMDBSensor(tmdbTestClient(server), engine, nil, ListPopularTV, 10, zerolog.Nop())
	require.NoError(t, sn.Refresh(context.Background()))

	assert.Equal(t, []string{
		"/tv/popular?page=1", "/tv/popular?page=2",
		"/trending/tv/week?page=1", "/trending/tv/week?page=2",
		"/tv/top_rated?page=1", "/tv/top_rated?page=2",
	}, calls, "each chart is walked two pages deep")

	snap := sn.Snapshot()
	assert.True(t, snap.Available, "a failing chart page must not fail the cycle")
	assert.Equal(t, 2, snap.State, "charts deduplicate against each other")
}

func TestTMDBSensor_Deduplicates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": 603, "title": "The Matrix", "release_date": "1999-03-30", "original_language": "en"},
				{"id": 603, "title": "The Matrix", "release_date": "1999-03-30", "original_language": "en"},
			},
		})
	}))
	defer server.Close()

	engine := filter.New(filter.Defaults(), zerolog.Nop())
	sn := NewTMDBSensor(tmdbTestClient(server), engine, nil, ListNowPlaying, 10, zerolog.Nop())
	require.NoError(t, sn.Refresh(context.Background()))
	assert.Equal(t, 1, sn.Snapshot().State)
}

func TestTMDBSensor_HideExisting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": 603, "title": "The Matrix", "release_date": "1999-03-30", "original_language": "en"},
				{"id": 949, "title": "Heat", "release_date": "1995-12-15", "original_language": "en"},
			},
		})
	}))
	defer server.Close()

	library := fakeLibraryView{ids: map[string]struct{}{"603": {}}}
	engine := filter.New(filter.Defaults(), zerolog.Nop())
	sn := NewTMDBSensor(tmdbTestClient(server), engine, library, ListNowPlaying, 10, zerolog.Nop())
	require.NoError(t, sn.Refresh(context.Background()))

	snap := sn.Snapshot()
	require.Equal(t, 1, snap.State)
	rec := snap.Data[0].(media.Record)
	assert.Equal(t, "Heat", rec.Title)
}

func TestTMDBSensor_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	engine := filter.New(filter.Defaults(), zerolog.Nop())
	sn := NewTMDBSensor(tmdbTestClient(server), engine, nil, ListTrending, 10, zerolog.Nop())

	require.Error(t, sn.Refresh(context.Background()))
	assert.False(t, sn.Snapshot().Available)
}

func TestTMDBSensor_Names(t *testing.T) {
	tests := []struct {
		list     ListType
		name     string
		uniqueID string
	}{
		{ListTrending, "TMDB Mediarr Trending", "tmdb_mediarr_trending"},
		{ListNowPlaying, "TMDB Mediarr Now Playing", "tmdb_mediarr_now_playing"},
		{ListOnAir, "TMDB Mediarr On Air", "tmdb_mediarr_on_air"},
		{ListPopularTV, "TMDB Mediarr Popular TV", "tmdb_mediarr_popular_tv"},
	}

	for _, tt := range tests {
		sn := NewTMDBSensor(nil, nil, nil, tt.list, 10, zerolog.Nop())
		assert.Equal(t, tt.name, sn.Name())
		assert.Equal(t, tt.uniqueID, sn.UniqueID())
	}
}

type fakeLibraryView struct {
	ids    map[string]struct{}
	titles map[string]struct{}
}

func (f fakeLibraryView) LibraryIDs() map[string]struct{} { return f.ids }

func (f fakeLibraryView) LibraryTitles() map[string]struct{} { return f.titles }
