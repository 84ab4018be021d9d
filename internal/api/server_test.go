package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediarr/mediarr/internal/scheduler"
	"github.com/mediarr/mediarr/internal/sensor"
	"github.com/mediarr/mediarr/internal/websocket"
)

type stubSensor struct {
	id   string
	snap sensor.Snapshot
}

func (s *stubSensor) Name() string                      { return "Stub " + s.id }
func (s *stubSensor) UniqueID() string                  { return s.id }
func (s *stubSensor) Refresh(ctx context.Context) error { return nil }
func (s *stubSensor) Snapshot() sensor.Snapshot         { return s.snap }

func newTestServer(t *testing.T) (*Server, *sensor.Registry, *scheduler.Scheduler) {
	t.Helper()

	registry := sensor.NewRegistry()
	sched, err := scheduler.New(zerolog.Nop())
	if err != nil {
		t.Fatalf("scheduler.New() error = %v", err)
	}
	t.Cleanup(func() { _ = sched.Stop() })

	hub := websocket.NewHub()
	go hub.Run()

	return NewServer(registry, sched, hub, zerolog.Nop()), registry, sched
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestListSensors(t *testing.T) {
	s, registry, _ := newTestServer(t)

	if err := registry.Add(&stubSensor{
		id:   "tmdb_mediarr_trending",
		snap: sensor.Snapshot{State: 3, Available: true, UpdatedAt: time.Now()},
	}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/v1/sensors")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out []sensorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 1 || out[0].ID != "tmdb_mediarr_trending" || out[0].Snapshot.State != 3 {
		t.Errorf("response = %+v", out)
	}
}

func TestGetSensor(t *testing.T) {
	s, registry, _ := newTestServer(t)
	_ = registry.Add(&stubSensor{id: "plex_mediarr"})

	if rec := doRequest(t, s, http.MethodGet, "/api/v1/sensors/plex_mediarr"); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec := doRequest(t, s, http.MethodGet, "/api/v1/sensors/missing"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRefreshSensor(t *testing.T) {
	s, registry, sched := newTestServer(t)
	_ = registry.Add(&stubSensor{id: "plex_mediarr"})
	if err := sched.RegisterTask(scheduler.TaskConfig{
		ID:       "plex_mediarr",
		Name:     "Plex Mediarr",
		Interval: time.Hour,
		Func:     func(ctx context.Context) error { return nil },
	}); err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}

	if rec := doRequest(t, s, http.MethodPost, "/api/v1/sensors/plex_mediarr/refresh"); rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if rec := doRequest(t, s, http.MethodPost, "/api/v1/sensors/missing/refresh"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListTasks(t *testing.T) {
	s, _, sched := newTestServer(t)
	if err := sched.RegisterTask(scheduler.TaskConfig{
		ID:       "task",
		Name:     "Task",
		Interval: time.Hour,
		Func:     func(ctx context.Context) error { return nil },
	}); err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/v1/tasks")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var tasks []scheduler.TaskInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "task" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestGetStatus(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["version"] != Version {
		t.Errorf("version = %v", out["version"])
	}
}
