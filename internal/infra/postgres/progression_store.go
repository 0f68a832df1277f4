package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"mission-engine/internal/domain"
)

// ProgressionStore persists progression records in Postgres. Writes are
// last-write-wins upserts keyed by (user_id, mission_id).
type ProgressionStore struct {
	pool *pgxpool.Pool
}

func NewProgressionStore(pool *pgxpool.Pool) *ProgressionStore {
	return &ProgressionStore{pool: pool}
}

func (s *ProgressionStore) FindOne(ctx context.Context, userID, missionID string) (domain.Progression, error) {
	rec := domain.Progression{UserID: userID, MissionID: missionID}
	err := s.pool.QueryRow(ctx,
		`SELECT points, state, created_at FROM mission_progressions WHERE user_id=$1 AND mission_id=$2`,
		userID, missionID,
	).Scan(&rec.Points, (*string)(&rec.State), &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Progression{}, domain.ErrProgressionNotFound
	}
	if err != nil {
		return domain.Progression{}, fmt.Errorf("find progression: %w", err)
	}
	return rec, nil
}

func (s *ProgressionStore) Upsert(ctx context.Context, rec domain.Progression) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO mission_progressions (user_id, mission_id, points, state, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, mission_id)
		 DO UPDATE SET points=EXCLUDED.points, state=EXCLUDED.state`,
		rec.UserID, rec.MissionID, rec.Points, string(rec.State), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert progression: %w", err)
	}
	return nil
}
