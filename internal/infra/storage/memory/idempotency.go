package memory

import (
	"context"
	"sync"
	"time"

	"homio/internal/app/middleware"
)

// IdempotencyStore keeps replay records in process. The first record for a
// key wins until it expires; TTL zero keeps records forever.
type IdempotencyStore struct {
	TTL   time.Duration
	Clock func() time.Time

	mu    sync.Mutex
	items map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	if ok && s.expired(rec) {
		delete(s.items, key)
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, ok, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[rec.Key]; ok && !s.expired(existing) {
		return nil
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = s.now()
	}
	s.items[rec.Key] = rec
	return nil
}

func (s *IdempotencyStore) expired(rec middleware.IdempotencyRecord) bool {
	return s.TTL > 0 && !rec.OccurredAt.Add(s.TTL).After(s.now())
}

func (s *IdempotencyStore) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
