package session

import (
	"sync"
	"time"

	"dthink_backend/internal/models"
)

type memoryEntry struct {
	snapshot  *Snapshot
	expiresAt time.Time
}

// MemoryStore keeps sessions in an in-process map. Sessions do not survive
// a restart; deployments needing that use the database-backed store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(user *models.User) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.entries[token] = &memoryEntry{
		snapshot:  NewSnapshot(user),
		expiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()

	return token, nil
}

func (s *MemoryStore) Resolve(token string) (*Snapshot, error) {
	if token == "" {
		return nil, nil
	}

	// Entry fields are read and written under the same lock; Refresh and
	// RefreshUser mutate them concurrently.
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expiresAt) {
		// Expired sessions behave exactly like absent ones.
		delete(s.entries, token)
		return nil, nil
	}

	// Sliding inactivity window.
	entry.expiresAt = s.now().Add(s.ttl)

	return entry.snapshot, nil
}

func (s *MemoryStore) Refresh(token string, user *models.User) (*Snapshot, error) {
	snap := NewSnapshot(user)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return nil, nil
	}
	entry.snapshot = snap
	entry.expiresAt = s.now().Add(s.ttl)
	return snap, nil
}

func (s *MemoryStore) RefreshUser(user *models.User) error {
	snap := NewSnapshot(user)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.snapshot.UserID == user.ID {
			entry.snapshot = snap
		}
	}
	return nil
}

func (s *MemoryStore) Destroy(token string) error {
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Prune() (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for token, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, token)
			pruned++
		}
	}
	return pruned, nil
}
