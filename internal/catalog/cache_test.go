package catalog

import (
	"fmt"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 10})

	cache.Set("key", "value")
	got, ok := cache.Get("key")
	if !ok || got != "value" {
		t.Errorf("Get() = (%v, %v), want (value, true)", got, ok)
	}

	if _, ok := cache.Get("missing"); ok {
		t.Error("Get() returned a hit for a missing key")
	}
}

func TestCache_Expiry(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: 10 * time.Millisecond, MaxItems: 10})

	cache.Set("key", "value")
	time.Sleep(20 * time.Millisecond)

	if _, ok := cache.Get("key"); ok {
		t.Error("Get() returned an expired entry")
	}
}

func TestCache_Bounded(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 20})

	for i := 0; i < 100; i++ {
		cache.Set(fmt.Sprintf("key-%d", i), i)
	}

	if got := cache.Len(); got > 20 {
		t.Errorf("Len() = %d, want at most 20", got)
	}
}

func TestCache_TypedGetters(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 10})

	cache.Set("id", "603")
	cache.Set("details", &Details{Title: "The Matrix"})
	cache.Set("images", ImageSet{Poster: "/p.jpg"})

	if id, ok := cache.GetID("id"); !ok || id != "603" {
		t.Errorf("GetID() = (%q, %v)", id, ok)
	}
	if d, ok := cache.GetDetails("details"); !ok || d.Title != "The Matrix" {
		t.Errorf("GetDetails() = (%v, %v)", d, ok)
	}
	if set, ok := cache.GetImages("images"); !ok || set.Poster != "/p.jpg" {
		t.Errorf("GetImages() = (%v, %v)", set, ok)
	}

	// A type mismatch is a miss, not a panic.
	if _, ok := cache.GetDetails("id"); ok {
		t.Error("GetDetails() returned a hit for a mistyped entry")
	}
}

func TestCache_Clear(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 10})

	cache.Set("key", "value")
	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("Len() = %d after Clear()", cache.Len())
	}
}
