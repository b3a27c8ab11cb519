package history

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), now: time.Now}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[sessionID]
	if !ok {
		return Record{}, ErrNotFound
	}
	record.State = record.State.Clone()
	return record, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, record Record) error {
	if err := validate(record); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[record.SessionID]; ok && record.CreatedAt.IsZero() {
		record.CreatedAt = existing.CreatedAt
	}
	s.records[record.SessionID] = stamp(record, s.now())
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[sessionID]; !ok {
		return ErrNotFound
	}
	delete(s.records, sessionID)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		record.State = record.State.Clone()
		records = append(records, record)
	}
	sortRecords(records)
	return records, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
