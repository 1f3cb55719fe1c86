package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string     `json:"path"`
	File          string     `json:"file"`
	Namespace     string     `json:"namespace"`
	Format        string     `json:"format"`
	ReadOnly      bool       `json:"read_only"`
	Serializers   []string   `json:"serializers"`
	CacheHits     int        `json:"cache_hits"`
	Revision      uint64     `json:"revision"`
	WatcherActive bool       `json:"watcher_active"`
	LastReconcile *time.Time `json:"last_reconcile,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	serializers := make([]string, 0, len(r.serializers))
	for ext := range r.serializers {
		serializers = append(serializers, ext)
	}

	return RepositoryState{
		Path:          r.Path,
		File:          r.File(),
		Namespace:     r.config.Namespace,
		Format:        r.config.Format,
		ReadOnly:      r.readOnly,
		Serializers:   serializers,
		CacheHits:     r.cache.Hits(),
		Revision:      r.lastRevision,
		WatcherActive: r.watcherActive,
		LastReconcile: r.lastReconcile,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "fs-repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}

func (r *Repository) recordReconcile() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastReconcile = &now
}

func (r *Repository) recordRevision(rev uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRevision = rev
}
