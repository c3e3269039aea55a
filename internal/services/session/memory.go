package session

import (
	"context"
	"sync"
	"time"

	"github.com/phambaophuc/flag-avatar/internal/models"
)

// MemoryStore keeps sessions in process. Used when Redis is not reachable and
// in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	session   models.Session
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, assetID string) (*models.Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[assetID]
	m.mu.RUnlock()

	if !ok || m.expired(entry) {
		return nil, ErrNotFound
	}
	s := entry.session
	return &s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *models.Session) error {
	entry := memoryEntry{session: *s}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.AssetID] = entry
	m.evictExpired()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, assetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, assetID)
	return nil
}

func (m *MemoryStore) HealthCheck(ctx context.Context) map[string]string {
	return map[string]string{"sessions": "healthy"}
}

func (m *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt)
}

// evictExpired must be called with mu held.
func (m *MemoryStore) evictExpired() {
	for id, entry := range m.sessions {
		if m.expired(entry) {
			delete(m.sessions, id)
		}
	}
}
