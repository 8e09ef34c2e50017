// internal/sandbox/store.go

// Package sandbox emulates the attribution service for local development
// and end-to-end tests: the Graph events endpoint and the pixel beacon.
package sandbox

import (
	"encoding/json"
	"sync"
	"time"
)

// ReceivedEvent is one server event accepted by the events endpoint
type ReceivedEvent struct {
	PixelID       string          `json:"pixel_id"`
	TestEventCode string          `json:"test_event_code,omitempty"`
	TraceID       string          `json:"fbtrace_id"`
	Event         json.RawMessage `json:"event"`
	ReceivedAt    time.Time       `json:"received_at"`
}

// Name returns the event_name of the stored event
func (e ReceivedEvent) Name() string {
	var head struct {
		EventName string `json:"event_name"`
	}
	_ = json.Unmarshal(e.Event, &head)
	return head.EventName
}

// Beacon is one pixel hit
type Beacon struct {
	PixelID    string            `json:"pixel_id"`
	Event      string            `json:"event"`
	EventID    string            `json:"event_id,omitempty"`
	Params     map[string]string `json:"params"`
	ReceivedAt time.Time         `json:"received_at"`
}

// Store keeps everything the sandbox received, in arrival order
type Store struct {
	mu      sync.RWMutex
	events  []ReceivedEvent
	beacons []Beacon
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

func (s *Store) addEvents(events ...ReceivedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

func (s *Store) addBeacon(b Beacon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beacons = append(s.beacons, b)
}

// Events returns the received events, optionally filtered by name
func (s *Store) Events(name string) []ReceivedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ReceivedEvent, 0, len(s.events))
	for _, e := range s.events {
		if name == "" || e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

// Beacons returns the received pixel hits, optionally filtered by event
func (s *Store) Beacons(event string) []Beacon {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Beacon, 0, len(s.beacons))
	for _, b := range s.beacons {
		if event == "" || b.Event == event {
			out = append(out, b)
		}
	}
	return out
}

// Reset drops everything received so far
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.beacons = nil
}
