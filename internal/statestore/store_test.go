package statestore

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLastWriteWinsPerKey(t *testing.T) {
	store := New()
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	store.Update("Device01", map[string]interface{}{"temperature": 20.0, "humidity": 55.0}, base)
	store.Update("Device01", map[string]interface{}{"temperature": 25.0}, base.Add(time.Second))

	snap := store.SnapshotAt(DefaultMaxAge, base.Add(time.Second))
	state, ok := snap["Device01"]
	if !ok {
		t.Fatal("expected Device01 in snapshot")
	}
	if got := state.Readings["temperature"]; got != 25.0 {
		t.Errorf("temperature = %v, want 25", got)
	}
	if got := state.Readings["humidity"]; got != 55.0 {
		t.Errorf("humidity = %v, want 55 (untouched key must survive merge)", got)
	}
	if !state.LastSeen.Equal(base.Add(time.Second)) {
		t.Errorf("last_seen = %v, want %v", state.LastSeen, base.Add(time.Second))
	}
}

func TestSnapshotFreshnessBoundary(t *testing.T) {
	store := New()
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store.Update("Device01", map[string]interface{}{"temperature": 21.5}, base)

	// exactly maxAge old is still fresh
	snap := store.SnapshotAt(10*time.Second, base.Add(10*time.Second))
	if _, ok := snap["Device01"]; !ok {
		t.Error("device exactly max_age old must be included")
	}

	// one nanosecond past maxAge is stale
	snap = store.SnapshotAt(10*time.Second, base.Add(10*time.Second+time.Nanosecond))
	if _, ok := snap["Device01"]; ok {
		t.Error("device older than max_age must be excluded")
	}
}

func TestGetAbsent(t *testing.T) {
	store := New()
	if _, ok := store.Get("ghost", "temperature"); ok {
		t.Error("absent device must report absent, not a zero value")
	}
	store.Update("Device01", map[string]interface{}{"temperature": 0.0}, time.Now())
	value, ok := store.Get("Device01", "temperature")
	if !ok || value != 0.0 {
		t.Errorf("a real zero reading must be distinguishable from absent, got %v ok=%t", value, ok)
	}
	if _, ok := store.Get("Device01", "humidity"); ok {
		t.Error("absent sensor key must report absent")
	}
}

func TestReservedKeyNeverStored(t *testing.T) {
	store := New()
	store.Update("Device01", map[string]interface{}{ReservedIDKey: "Device01", "temperature": 19.0}, time.Now())
	if _, ok := store.Get("Device01", ReservedIDKey); ok {
		t.Errorf("readings must never contain the reserved key %q", ReservedIDKey)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	store := New()
	now := time.Now()
	store.Update("Device01", map[string]interface{}{"temperature": 19.0}, now)

	snap := store.SnapshotAt(DefaultMaxAge, now)
	snap["Device01"].Readings["temperature"] = 99.0

	value, _ := store.Get("Device01", "temperature")
	if value != 19.0 {
		t.Errorf("mutating a snapshot leaked into the store: %v", value)
	}
}

func TestConcurrentUpdatesAndSnapshots(t *testing.T) {
	store := New()
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				store.Update(fmt.Sprintf("device-%d", w), map[string]interface{}{"counter": float64(i)}, time.Now())
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				store.Snapshot(DefaultMaxAge)
				store.Get("device-0", "counter")
			}
		}()
	}
	wg.Wait()

	snap := store.Snapshot(DefaultMaxAge)
	for w := 0; w < 4; w++ {
		id := fmt.Sprintf("device-%d", w)
		if snap[id].Readings["counter"] != 199.0 {
			t.Errorf("%s final counter = %v, want 199", id, snap[id].Readings["counter"])
		}
	}
}
