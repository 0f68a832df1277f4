// Package manifest holds the static per-mission configuration loaded at
// construction time. A missing or malformed manifest is fatal: the mission
// cannot be used without it.
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mission-engine/internal/domain"
)

// Manifest describes a mission's author-configured, immutable settings.
type Manifest struct {
	Title          string  `yaml:"title"`
	Template       string  `yaml:"template"`
	PointsRequired float64 `yaml:"pointsRequired"`
	// DurationMs is an advisory timeout budget; -1 disables it.
	DurationMs int64 `yaml:"durationMs"`
}

// Loader fetches the manifest for a mission.
type Loader interface {
	LoadManifest(ctx context.Context, missionID string) (Manifest, error)
}

// Load reads and validates a manifest file.
func Load(path string) (Manifest, error) {
	m := Manifest{DurationMs: -1}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, domain.ErrManifestNotFound
		}
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.PointsRequired <= 0 {
		return m, fmt.Errorf("manifest %s: pointsRequired must be positive", path)
	}
	return m, nil
}

// DirLoader resolves manifests as <root>/<missionID>/manifest.yaml.
type DirLoader struct {
	root string
}

func NewDirLoader(root string) *DirLoader {
	return &DirLoader{root: root}
}

func (l *DirLoader) LoadManifest(_ context.Context, missionID string) (Manifest, error) {
	return Load(filepath.Join(l.root, missionID, "manifest.yaml"))
}

// TemplatePath is where a mission's display template lives relative to root.
func (l *DirLoader) TemplatePath(missionID, name string) string {
	return filepath.Join(l.root, missionID, name)
}
