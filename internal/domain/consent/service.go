// internal/domain/consent/service.go
package consent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/elegant-store/storefront/internal/infrastructure/storage"
)

// Channel is the client analytics channel consent decisions act on
type Channel interface {
	Load(pixelID string) bool
	Grant()
	Revoke()
}

// Service records the consent decision and applies it to the channel
type Service struct {
	mu      sync.RWMutex
	state   State
	store   storage.Store
	channel Channel
	pixelID string
	logger  logrus.FieldLogger
}

// NewService creates a consent service. pixelID is the public identifier
// the channel is loaded with; an empty id never loads it.
func NewService(store storage.Store, channel Channel, pixelID string, logger logrus.FieldLogger) *Service {
	return &Service{
		state:   Unset(),
		store:   store,
		channel: channel,
		pixelID: pixelID,
		logger:  logger,
	}
}

// Current reads the decision from storage. It never fails: unreadable
// storage is Unset, and a corrupt value is removed and reported as Unset.
func (s *Service) Current(ctx context.Context) State {
	data, err := s.store.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return Unset()
	}
	if err != nil {
		s.logger.WithError(err).Warn("Consent storage unreadable, treating as unset")
		return Unset()
	}

	var prefs Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		s.logger.WithError(err).Warn("Stored consent is corrupt, removing it")
		if err := s.store.Delete(ctx, StorageKey); err != nil {
			s.logger.WithError(err).Warn("Failed to remove corrupt consent")
		}
		return Unset()
	}

	prefs.Necessary = true
	return State{Decided: true, Preferences: prefs}
}

// Restore applies a previously saved decision at session start and
// returns it. Unset means the prompt must be shown.
func (s *Service) Restore(ctx context.Context) State {
	state := s.Current(ctx)
	if state.Decided {
		s.apply(state.Preferences)
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return state
}

// AcceptAll opts into every category
func (s *Service) AcceptAll(ctx context.Context) Preferences {
	return s.Save(ctx, AllAccepted())
}

// AcceptNecessary opts out of every optional category
func (s *Service) AcceptNecessary(ctx context.Context) Preferences {
	return s.Save(ctx, DefaultPreferences())
}

// Save records custom preferences and applies them. Necessary is forced
// on. A storage failure is logged; the decision still applies for the
// rest of the session.
func (s *Service) Save(ctx context.Context, prefs Preferences) Preferences {
	prefs.Necessary = true

	data, err := json.Marshal(prefs)
	if err == nil {
		err = s.store.Set(ctx, StorageKey, data)
	}
	if err != nil {
		s.logger.WithError(err).Warn("Failed to persist consent")
	}

	s.mu.Lock()
	s.state = State{Decided: true, Preferences: prefs}
	s.mu.Unlock()

	s.apply(prefs)
	return prefs
}

// Reset forgets the decision so the prompt is shown again. Tracking stops
// until a new decision is made.
func (s *Service) Reset(ctx context.Context) State {
	if err := s.store.Delete(ctx, StorageKey); err != nil {
		s.logger.WithError(err).Warn("Failed to remove consent")
	}

	s.mu.Lock()
	s.state = Unset()
	s.mu.Unlock()

	s.channel.Revoke()
	return Unset()
}

// State returns the decision in effect for this session
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// TrackingAllowed reports whether the decision in effect allows tracking
func (s *Service) TrackingAllowed() bool {
	state := s.State()
	return state.Decided && state.Preferences.TrackingAllowed()
}

func (s *Service) apply(prefs Preferences) {
	if !prefs.TrackingAllowed() {
		s.channel.Revoke()
		s.logger.Info("Tracking disabled (only necessary cookies)")
		return
	}

	if s.pixelID != "" {
		s.channel.Load(s.pixelID)
	}
	s.channel.Grant()
	s.logger.Info("Tracking enabled (analytics/marketing)")
}
