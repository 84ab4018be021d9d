package sensor

import (
	"context"
	"sync"
	"time"
)

// Snapshot is a sensor's last published state: the item count, the card
// rows, and whether the last refresh succeeded.
type Snapshot struct {
	State     int       `json:"state"`
	Data      []any     `json:"data"`
	Available bool      `json:"available"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Sensor is one polled feed.
type Sensor interface {
	// Name is the human-readable feed name.
	Name() string
	// UniqueID identifies the sensor in the registry and the API.
	UniqueID() string
	// Refresh runs one update cycle and replaces the snapshot. A returned
	// error means the whole cycle failed and the sensor is unavailable.
	Refresh(ctx context.Context) error
	// Snapshot returns the last published snapshot.
	Snapshot() Snapshot
}

// state is the embeddable snapshot holder shared by all sensors.
type state struct {
	mu   sync.RWMutex
	snap Snapshot
}

// publish replaces the snapshot with a successful result.
func (s *state) publish(count int, cards []any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{
		State:     count,
		Data:      cards,
		Available: true,
		UpdatedAt: time.Now().UTC(),
	}
}

// fail resets the snapshot to empty and marks the sensor unavailable. Stale
// data is never left behind after a failed cycle.
func (s *state) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{
		State:     0,
		Data:      []any{},
		Available: false,
		UpdatedAt: time.Now().UTC(),
	}
}

// Snapshot returns the last published snapshot.
func (s *state) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
