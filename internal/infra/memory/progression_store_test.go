package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"mission-engine/internal/domain"
)

func TestProgressionStoreRoundTrip(t *testing.T) {
	store := NewProgressionStore()
	ctx := context.Background()

	_, err := store.FindOne(ctx, "u1", "general-knowledge")
	if !errors.Is(err, domain.ErrProgressionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	rec := domain.Progression{
		UserID:    "u1",
		MissionID: "general-knowledge",
		Points:    12.5,
		State:     domain.StateGame,
		CreatedAt: time.Now(),
	}
	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.FindOne(ctx, "u1", "general-knowledge")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Points != 12.5 || got.State != domain.StateGame {
		t.Fatalf("unexpected record %+v", got)
	}

	rec.State = domain.StateSucceed
	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("upsert must overwrite, len=%d", store.Len())
	}
}
