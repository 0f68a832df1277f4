package memory

import (
	"context"
	"sync"

	"mission-engine/internal/domain"
)

// ProgressionStore is an in-memory implementation of app.ProgressionStore.
type ProgressionStore struct {
	mu      sync.RWMutex
	records map[identity]domain.Progression
}

type identity struct {
	userID    string
	missionID string
}

func NewProgressionStore() *ProgressionStore {
	return &ProgressionStore{records: make(map[identity]domain.Progression)}
}

func (s *ProgressionStore) FindOne(_ context.Context, userID, missionID string) (domain.Progression, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[identity{userID, missionID}]
	if !ok {
		return domain.Progression{}, domain.ErrProgressionNotFound
	}
	return rec, nil
}

func (s *ProgressionStore) Upsert(_ context.Context, rec domain.Progression) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[identity{rec.UserID, rec.MissionID}] = rec
	return nil
}

// Len reports how many records exist, for tests.
func (s *ProgressionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
