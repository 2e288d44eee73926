// Package profilestore persists user medical profiles and their latest
// computed air quality snapshots.
package profilestore

import (
	"context"
	"sync"
	"time"

	"github.com/respiguard/backend/internal/domain/airquality"
	"github.com/respiguard/backend/internal/domain/profile"
)

type aqiSnapshot struct {
	index airquality.Index
	at    time.Time
}

// MemoryStore is a simple in-memory profile store.
type MemoryStore struct {
	mu        sync.RWMutex
	profiles  map[string]profile.Profile
	snapshots map[string]aqiSnapshot
}

// NewMemoryStore constructs the store, optionally seeded with profiles.
func NewMemoryStore(seed ...profile.Profile) *MemoryStore {
	s := &MemoryStore{
		profiles:  make(map[string]profile.Profile),
		snapshots: make(map[string]aqiSnapshot),
	}
	for _, p := range seed {
		s.profiles[p.UserID] = p
	}
	return s
}

// Put stores or replaces a profile.
func (s *MemoryStore) Put(p profile.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
}

// GetProfile returns the stored profile or the documented fallback.
func (s *MemoryStore) GetProfile(_ context.Context, userID string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[userID]; ok {
		return p, nil
	}
	return profile.FallbackProfile(userID), nil
}

// SaveLatestAQI records the most recent computed index for the user.
func (s *MemoryStore) SaveLatestAQI(_ context.Context, userID string, idx airquality.Index, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[userID] = aqiSnapshot{index: idx, at: at}
	return nil
}

// LatestAQI returns the stored snapshot, ok=false when none exists.
func (s *MemoryStore) LatestAQI(_ context.Context, userID string) (airquality.Index, time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[userID]
	if !ok {
		return airquality.Index{}, time.Time{}, false, nil
	}
	return snap.index, snap.at, true, nil
}

var _ profile.Store = (*MemoryStore)(nil)
