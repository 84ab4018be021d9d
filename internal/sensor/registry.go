package sensor

import (
	"fmt"
	"sync"
	"time"

	"github.com/mediarr/mediarr/internal/filter"
	"github.com/mediarr/mediarr/internal/media"
)

// libraryViewTTL bounds how often the sibling-library view is recomputed.
const libraryViewTTL = time.Hour

// Registry holds all sensors and exposes the read-only sibling view that the
// already-in-library filter rule evaluates against. Sensors registered as
// library feeds (the ones mirroring owned media) contribute to that view;
// discovery feeds do not.
type Registry struct {
	mu      sync.RWMutex
	order   []Sensor
	byID    map[string]Sensor
	library map[string]bool

	viewMu      sync.Mutex
	viewIDs     map[string]struct{}
	viewTitles  map[string]struct{}
	viewFetched time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[string]Sensor),
		library: make(map[string]bool),
	}
}

// Add registers a discovery sensor.
func (r *Registry) Add(s Sensor) error {
	return r.add(s, false)
}

// AddLibrary registers a sensor whose feed mirrors owned media; its records
// feed the already-in-library view.
func (r *Registry) AddLibrary(s Sensor) error {
	return r.add(s, true)
}

func (r *Registry) add(s Sensor, library bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := s.UniqueID()
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("sensor %q already registered", id)
	}
	r.byID[id] = s
	r.order = append(r.order, s)
	r.library[id] = library
	return nil
}

// Get returns the sensor with the given unique ID.
func (r *Registry) Get(id string) (Sensor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// IsLibrary reports whether the sensor with the given ID feeds the
// already-in-library view.
func (r *Registry) IsLibrary(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.library[id]
}

// All returns the sensors in registration order.
func (r *Registry) All() []Sensor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Sensor, len(r.order))
	copy(out, r.order)
	return out
}

// LibraryIDs implements filter.LibraryView.
func (r *Registry) LibraryIDs() map[string]struct{} {
	ids, _ := r.libraryView()
	return ids
}

// LibraryTitles implements filter.LibraryView.
func (r *Registry) LibraryTitles() map[string]struct{} {
	_, titles := r.libraryView()
	return titles
}

// libraryView walks the library sensors' published records, recomputing at
// most once per TTL.
func (r *Registry) libraryView() (map[string]struct{}, map[string]struct{}) {
	r.viewMu.Lock()
	defer r.viewMu.Unlock()

	if r.viewIDs != nil && time.Since(r.viewFetched) < libraryViewTTL {
		return r.viewIDs, r.viewTitles
	}

	ids := make(map[string]struct{})
	titles := make(map[string]struct{})
	for _, s := range r.All() {
		r.mu.RLock()
		isLibrary := r.library[s.UniqueID()]
		r.mu.RUnlock()
		if !isLibrary {
			continue
		}
		for _, card := range s.Snapshot().Data {
			rec, ok := card.(media.Record)
			if !ok {
				continue
			}
			if rec.TmdbID != "" {
				ids[rec.TmdbID] = struct{}{}
			}
			if rec.Title != "" {
				titles[filter.NormalizeTitle(rec.Title)] = struct{}{}
			}
		}
	}

	r.viewIDs = ids
	r.viewTitles = titles
	r.viewFetched = time.Now()
	return ids, titles
}

// InvalidateLibraryView forces the next view lookup to recompute. Library
// sensors call this after publishing a fresh snapshot.
func (r *Registry) InvalidateLibraryView() {
	r.viewMu.Lock()
	defer r.viewMu.Unlock()
	r.viewIDs = nil
	r.viewTitles = nil
}

var _ filter.LibraryView = (*Registry)(nil)
