package app

import (
	"context"
	"fmt"
	"sync"
)

// QuizFactory builds and syncs a quiz instance for one user. Factories are
// where mission authors register their question producers.
type QuizFactory func(ctx context.Context, userID string) (*QuizMission, error)

// Registry maps mission ids to factories. Construction per (user, mission)
// happens on demand; instances are not shared across connections.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]QuizFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]QuizFactory)}
}

// Register installs a factory for a mission id, replacing any previous one.
func (r *Registry) Register(missionID string, factory QuizFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[missionID] = factory
}

// New constructs a synced quiz mission for the given identity.
func (r *Registry) New(ctx context.Context, missionID, userID string) (*QuizMission, error) {
	r.mu.RLock()
	factory, ok := r.factories[missionID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown mission %q", missionID)
	}
	return factory(ctx, userID)
}

// MissionIDs lists the registered missions.
func (r *Registry) MissionIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	return ids
}
