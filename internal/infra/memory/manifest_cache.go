package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"mission-engine/internal/domain"
	"mission-engine/internal/manifest"
)

// ManifestCache caches mission manifests with TTL to avoid re-reading the
// manifest file on every mission construction.
type ManifestCache struct {
	loader manifest.Loader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedManifest
}

type cachedManifest struct {
	manifest  manifest.Manifest
	expiresAt time.Time
}

func NewManifestCache(loader manifest.Loader, ttl time.Duration) *ManifestCache {
	return &ManifestCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedManifest),
	}
}

func (c *ManifestCache) LoadManifest(ctx context.Context, missionID string) (manifest.Manifest, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[missionID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.manifest, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(missionID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[missionID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.manifest, nil
		}
		c.mu.RUnlock()

		mf, err := c.loader.LoadManifest(ctx, missionID)
		if err != nil {
			return manifest.Manifest{}, err
		}

		c.mu.Lock()
		c.cache[missionID] = cachedManifest{
			manifest:  mf,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return mf, nil
	})
	if err != nil {
		return manifest.Manifest{}, err
	}
	return result.(manifest.Manifest), nil
}

// StaticManifestLoader serves manifests from a map (tests/demos).
type StaticManifestLoader struct {
	manifests map[string]manifest.Manifest
}

func NewStaticManifestLoader(manifests map[string]manifest.Manifest) *StaticManifestLoader {
	return &StaticManifestLoader{manifests: manifests}
}

func (l *StaticManifestLoader) LoadManifest(_ context.Context, missionID string) (manifest.Manifest, error) {
	if mf, ok := l.manifests[missionID]; ok {
		return mf, nil
	}
	return manifest.Manifest{}, domain.ErrManifestNotFound
}

func (c *ManifestCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
