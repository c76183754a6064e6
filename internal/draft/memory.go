package draft

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is used when Redis is unavailable.  Drafts are deep-copied
// on the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[Key]memEntry
}

type memEntry struct {
	draft   Draft
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, items: map[Key]memEntry{}}
}

func (s *MemoryStore) Load(_ context.Context, k Key) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[k]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(e.expires) {
		delete(s.items, k)
		return nil, ErrNotFound
	}
	return copyDraft(&e.draft), nil
}

func (s *MemoryStore) Save(_ context.Context, k Key, d *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	d.UpdatedAt = now.UTC()
	s.items[k] = memEntry{draft: *copyDraft(d), expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, k Key) error {
	s.mu.Lock()
	delete(s.items, k)
	s.mu.Unlock()
	return nil
}

func copyDraft(d *Draft) *Draft {
	out := *d
	if d.Composition != nil {
		out.Composition = d.Composition.Clone()
	}
	out.AllowedDates = append([]string{}, d.AllowedDates...)
	return &out
}
