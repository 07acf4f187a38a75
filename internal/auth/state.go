package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StateTTL bounds how long a sign-in attempt may take.
const StateTTL = 10 * time.Minute

// StateStore holds outstanding OAuth state values. Each value is accepted once.
type StateStore struct {
	mu      sync.Mutex
	pending map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewStateStore creates an empty store.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = StateTTL
	}
	return &StateStore{pending: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

// Issue returns a new state value.
func (s *StateStore) Issue() string {
	state := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	s.pending[state] = now.Add(s.ttl)
	return state
}

// Consume reports whether state was issued and has not expired, and forgets it.
func (s *StateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.pending[state]
	if !ok {
		return false
	}
	delete(s.pending, state)
	return s.now().Before(expires)
}

// Len returns the number of outstanding states.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *StateStore) sweepLocked(now time.Time) {
	for k, exp := range s.pending {
		if !now.Before(exp) {
			delete(s.pending, k)
		}
	}
}
