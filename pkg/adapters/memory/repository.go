// Package memory provides an in-process core.Repository.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/notepad/pkg/core"
)

// Repository keeps the collection in memory. Commits are serialized, so it
// honours the same atomicity contract as the durable adapters.
type Repository struct {
	mu       sync.Mutex
	current  core.Collection
	readOnly bool
	fail     error
}

// NewRepository returns an empty repository, optionally seeded with notes.
func NewRepository(seed ...core.Record) *Repository {
	return &Repository{current: core.NewCollection(0, seed...)}
}

// SetReadOnly makes every commit fail with core.ErrReadOnly.
func (r *Repository) SetReadOnly(readOnly bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readOnly = readOnly
}

// FailCommits makes every commit fail with err until called with nil.
// It stands in for storage faults in tests.
func (r *Repository) FailCommits(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

// Initialize implements core.Repository.
func (r *Repository) Initialize(ctx context.Context) error { return nil }

// Load implements core.Repository.
func (r *Repository) Load(ctx context.Context) (core.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, nil
}

// Begin implements core.Repository.
func (r *Repository) Begin(ctx context.Context) (core.Transaction, error) {
	return &transaction{repo: r}, nil
}

type transaction struct {
	core.Staging
	repo *Repository
}

// Commit implements core.Transaction.
func (t *transaction) Commit(ctx context.Context) (core.Collection, error) {
	ops, err := t.Drain()
	if err != nil {
		return core.Collection{}, err
	}

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	if t.repo.readOnly {
		return core.Collection{}, core.ErrReadOnly
	}
	if t.repo.fail != nil {
		return core.Collection{}, t.repo.fail
	}

	t.repo.current = t.repo.current.Apply(ops...)
	return t.repo.current, nil
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Notes    int    `json:"notes"`
	Revision uint64 `json:"revision"`
	ReadOnly bool   `json:"read_only"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RepositoryState{
		Notes:    r.current.Len(),
		Revision: r.current.Revision(),
		ReadOnly: r.readOnly,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "memory-repository"
}

var _ core.Repository = (*Repository)(nil)
var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
