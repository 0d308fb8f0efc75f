package statestore

import (
	"sync"
	"time"
)

// ReservedIDKey is the payload key carrying the device identity. It is never
// stored as a reading.
const ReservedIDKey = "deviceId"

// DefaultMaxAge is the freshness window applied when callers pass no override.
const DefaultMaxAge = 10 * time.Second

// Readings maps a sensor key to its latest reported value (number, string or bool)
type Readings map[string]interface{}

// DeviceState is one device's last-known readings
type DeviceState struct {
	DeviceID string    `json:"device_id"`
	Readings Readings  `json:"readings"`
	LastSeen time.Time `json:"last_seen"`
}

// Store holds the last-known state of every device that has published at least
// once. Safe for concurrent use by the transport writer and any readers.
// Entries are never purged; stale ones simply stop appearing in snapshots.
type Store struct {
	mu      sync.RWMutex
	devices map[string]*DeviceState
}

// New creates an empty store
func New() *Store {
	return &Store{devices: make(map[string]*DeviceState)}
}

// Update merges fields into the device's readings and refreshes last_seen.
// The reserved identity key is dropped if present.
func (s *Store) Update(deviceID string, fields map[string]interface{}, now time.Time) {
	if deviceID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.devices[deviceID]
	if !ok {
		entry = &DeviceState{DeviceID: deviceID, Readings: make(Readings)}
		s.devices[deviceID] = entry
	}
	for key, value := range fields {
		if key == ReservedIDKey {
			continue
		}
		entry.Readings[key] = value
	}
	entry.LastSeen = now
}

// Get returns the current value of one sensor key, or false when either the
// device or the key is absent. An absent device never reads as a zero value.
func (s *Store) Get(deviceID, sensorKey string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.devices[deviceID]
	if !ok {
		return nil, false
	}
	value, ok := entry.Readings[sensorKey]
	return value, ok
}

// Contains reports whether the device has ever published, regardless of age
func (s *Store) Contains(deviceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.devices[deviceID]
	return ok
}

// Snapshot returns all devices seen within maxAge of now
func (s *Store) Snapshot(maxAge time.Duration) map[string]DeviceState {
	return s.SnapshotAt(maxAge, time.Now())
}

// SnapshotAt returns a consistent copy of every device whose last_seen is
// within maxAge of now. A device exactly maxAge old is included. Reading maps
// are copied so the result cannot tear under concurrent updates.
func (s *Store) SnapshotAt(maxAge time.Duration, now time.Time) map[string]DeviceState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]DeviceState, len(s.devices))
	for id, entry := range s.devices {
		if now.Sub(entry.LastSeen) > maxAge {
			continue
		}
		readings := make(Readings, len(entry.Readings))
		for k, v := range entry.Readings {
			readings[k] = v
		}
		out[id] = DeviceState{DeviceID: id, Readings: readings, LastSeen: entry.LastSeen}
	}
	return out
}
