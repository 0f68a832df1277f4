package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"mission-engine/internal/domain"
	"mission-engine/internal/manifest"
	"mission-engine/internal/render"
)

// ProgressionStore abstracts how progression records are persisted
// (in-memory, Redis, Postgres).
type ProgressionStore interface {
	FindOne(ctx context.Context, userID, missionID string) (domain.Progression, error)
	Upsert(ctx context.Context, rec domain.Progression) error
}

// Behavior is what a concrete mission variant contributes on top of the
// shared lifecycle: its completion predicate and its per-session reset.
type Behavior interface {
	IsCompleted() bool
	ResetSession()
}

// Mission is the shared lifecycle core. Variants compose it rather than
// inherit from it; all persistence and state transitions funnel through
// here. A Mission instance is owned by one in-flight request at a time;
// the transport layer is responsible for not sharing it.
type Mission struct {
	userID    string
	missionID string

	points    float64
	state     domain.MissionState
	createdAt time.Time
	manifest  manifest.Manifest

	store     ProgressionStore
	manifests manifest.Loader
	renderer  render.Renderer
	defaults  map[string]any
	behavior  Behavior

	synced bool
}

// NewMission builds an unsynced mission with in-memory defaults. Callers
// must attach a behavior and run Sync before using it.
func NewMission(userID, missionID string, store ProgressionStore, manifests manifest.Loader, renderer render.Renderer) *Mission {
	return &Mission{
		userID:    userID,
		missionID: missionID,
		points:    0,
		state:     domain.StateGame,
		createdAt: time.Now(),
		store:     store,
		manifests: manifests,
		renderer:  renderer,
		defaults:  make(map[string]any),
	}
}

// Bind attaches the variant that owns this core.
func (m *Mission) Bind(b Behavior) {
	m.behavior = b
}

// Sync brings the mission to readiness: it loads (or creates) the
// progression record and loads the static manifest concurrently, joining
// both before returning. Either branch failing fails the whole sync; the
// mission must not be used afterwards.
func (m *Mission) Sync(ctx context.Context) error {
	var (
		loaded manifest.Manifest
		record domain.Progression
		found  bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := m.store.FindOne(gctx, m.userID, m.missionID)
		if errors.Is(err, domain.ErrProgressionNotFound) {
			return m.store.Upsert(gctx, m.snapshot())
		}
		if err != nil {
			return fmt.Errorf("sync progression: %w", err)
		}
		record, found = rec, true
		return nil
	})
	g.Go(func() error {
		mf, err := m.manifests.LoadManifest(gctx, m.missionID)
		if err != nil {
			return fmt.Errorf("load manifest: %w", err)
		}
		loaded = mf
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	m.manifest = loaded
	if found {
		// The stored record wins over in-memory defaults, identity aside.
		m.points = record.Points
		m.state = record.State
		m.createdAt = record.CreatedAt
	}
	m.defaults["title"] = loaded.Title
	m.synced = true
	return nil
}

// IsCompleted delegates to the bound variant. An unbound core has no
// completion predicate; asking for one is a programming error.
func (m *Mission) IsCompleted() bool {
	if m.behavior == nil {
		panic("app: IsCompleted requires a mission variant to be bound")
	}
	return m.behavior.IsCompleted()
}

// UserPoints hides the running total until the mission resolves, so no
// partial credit leaks before the completion predicate holds.
func (m *Mission) UserPoints() float64 {
	if !m.IsCompleted() {
		return 0
	}
	return m.points
}

// RecordPoints adds delta to the running total and reports whether the
// completion predicate holds afterwards. The caller decides what to do
// with a completed mission; nothing closes implicitly here.
func (m *Mission) RecordPoints(delta float64) bool {
	m.points += delta
	return m.IsCompleted()
}

// Close resolves the mission to succeed or failed per the completion
// predicate and persists the result.
func (m *Mission) Close(ctx context.Context) error {
	if m.IsCompleted() {
		m.state = domain.StateSucceed
	} else {
		m.state = domain.StateFailed
	}
	return m.Update(ctx)
}

// Open is the only sanctioned way out of a terminal state: back to game,
// zero points, variant session bookkeeping cleared, persisted.
func (m *Mission) Open(ctx context.Context) error {
	m.state = domain.StateGame
	m.points = 0
	if m.behavior != nil {
		m.behavior.ResetSession()
	}
	return m.Update(ctx)
}

// Update upserts the current in-memory snapshot. Store errors propagate;
// in-memory state is left as it was before the failed write.
func (m *Mission) Update(ctx context.Context) error {
	if err := m.store.Upsert(ctx, m.snapshot()); err != nil {
		return fmt.Errorf("update progression: %w", err)
	}
	return nil
}

// Render merges the instance defaults with the caller context and
// delegates to the renderer. It never mutates mission state.
func (m *Mission) Render(name string, extra map[string]any) (string, error) {
	return m.renderer.Render(name, render.MergeContext(m.defaults, extra))
}

func (m *Mission) snapshot() domain.Progression {
	return domain.Progression{
		UserID:    m.userID,
		MissionID: m.missionID,
		Points:    m.points,
		State:     m.state,
		CreatedAt: m.createdAt,
	}
}

// Points returns the raw running total, regardless of completion.
func (m *Mission) Points() float64 { return m.points }

// State returns the current lifecycle state.
func (m *Mission) State() domain.MissionState { return m.state }

// CreatedAt returns the first-construction timestamp.
func (m *Mission) CreatedAt() time.Time { return m.createdAt }

// PointsRequired returns the author-configured success threshold.
func (m *Mission) PointsRequired() float64 { return m.manifest.PointsRequired }

// DurationMs returns the advisory timeout budget, -1 when unconstrained.
// The engine does not enforce it; that belongs to the transport.
func (m *Mission) DurationMs() int64 { return m.manifest.DurationMs }

// Manifest returns the loaded static configuration.
func (m *Mission) Manifest() manifest.Manifest { return m.manifest }

// Synced reports whether construction completed.
func (m *Mission) Synced() bool { return m.synced }

// UserID returns the user half of the identity.
func (m *Mission) UserID() string { return m.userID }

// MissionID returns the mission half of the identity.
func (m *Mission) MissionID() string { return m.missionID }
