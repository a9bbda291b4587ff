package conversation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-node development.
// Same get-or-default / sliding-TTL contract as RedisStore.
type MemoryStore struct {
	mu       sync.Mutex
	contexts map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	ctx       Context
	expiresAt time.Time
}

// NewMemoryStore creates a memory-backed context store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	return &MemoryStore{
		contexts: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(_ context.Context, contactID string) (Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.contexts[contactID]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.contexts, contactID)
		return Context{ContactID: contactID}, nil
	}
	return entry.ctx, nil
}

func (s *MemoryStore) Update(ctx context.Context, contactID string, mutate func(*Context)) (Context, error) {
	c, _ := s.Get(ctx, contactID)

	mutate(&c)
	c.ContactID = contactID
	c.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[contactID] = memoryEntry{ctx: c, expiresAt: s.now().Add(s.ttl)}
	return c, nil
}

func (s *MemoryStore) Clear(_ context.Context, contactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, contactID)
	return nil
}
