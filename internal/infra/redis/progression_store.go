package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mission-engine/internal/domain"
)

// ProgressionStore persists progression records as JSON values keyed by
// identity: mission:progress:{userID}:{missionID}. A TTL of zero keeps
// records forever; a positive TTL refreshes on every write.
type ProgressionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProgressionStore(client *redis.Client, ttl time.Duration) *ProgressionStore {
	return &ProgressionStore{client: client, ttl: ttl}
}

func (s *ProgressionStore) FindOne(ctx context.Context, userID, missionID string) (domain.Progression, error) {
	raw, err := s.client.Get(ctx, s.key(userID, missionID)).Result()
	if err == redis.Nil {
		return domain.Progression{}, domain.ErrProgressionNotFound
	}
	if err != nil {
		return domain.Progression{}, fmt.Errorf("redis get progression: %w", err)
	}
	var rec domain.Progression
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.Progression{}, fmt.Errorf("unmarshal progression: %w", err)
	}
	return rec, nil
}

func (s *ProgressionStore) Upsert(ctx context.Context, rec domain.Progression) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal progression: %w", err)
	}
	if err := s.client.Set(ctx, s.key(rec.UserID, rec.MissionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set progression: %w", err)
	}
	return nil
}

func (s *ProgressionStore) key(userID, missionID string) string {
	return "mission:progress:" + userID + ":" + missionID
}
