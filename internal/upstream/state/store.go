package state

import (
	"sync"

	"github.com/adjebara/people-search/backend/internal/model/profile"
)

// Store holds the server-side view of the active session: the original
// query and the current profile set the /process endpoint operates on.
// There is one anonymous session per server, matching the client side.
type Store struct {
	mu       sync.RWMutex
	query    string
	profiles []profile.RawRecord
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// SetSearch records the results of a fresh search, replacing everything.
func (s *Store) SetSearch(query string, profiles []profile.RawRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.profiles = append([]profile.RawRecord(nil), profiles...)
}

// SetProfiles replaces the profile set, keeping the query.
func (s *Store) SetProfiles(profiles []profile.RawRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = append([]profile.RawRecord(nil), profiles...)
}

// Current returns the active query and a copy of the profile set.
func (s *Store) Current() (string, []profile.RawRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query, append([]profile.RawRecord(nil), s.profiles...)
}

// Clear wipes the session.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = ""
	s.profiles = nil
}
