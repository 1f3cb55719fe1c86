package core

import (
	"context"
	"sync"
)

// Repository defines the contract for storing the note collection.
// Adhering to this interface allows the core to be independent of the
// underlying storage mechanism (file, memory, embedded database).
type Repository interface {
	// Initialize ensures the underlying storage is ready (e.g. create directories).
	// A missing collection is not an error: it reads as empty.
	Initialize(ctx context.Context) error

	// Load returns the collection as currently persisted.
	Load(ctx context.Context) (Collection, error)

	// Begin starts a unit of work against the collection.
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction defines the contract for a unit of work.
// Staged operations are applied together on Commit as one read-modify-write
// of the persisted collection; readers never see a partial result.
type Transaction interface {
	// Add stages the insertion of a record.
	Add(ctx context.Context, rec Record) error

	// Remove stages the removal of the record with this encoding.
	Remove(ctx context.Context, encoded string) error

	// Replace stages the removal of old and the insertion of rec.
	Replace(ctx context.Context, old string, rec Record) error

	// Commit applies all staged operations atomically and returns the new collection.
	Commit(ctx context.Context) (Collection, error)

	// Rollback discards all staged operations.
	Rollback(ctx context.Context) error
}

// Watchable is implemented by repositories that can report changes made
// by other writers (another process sharing the same storage).
type Watchable interface {
	Watch(ctx context.Context) (<-chan Event, error)
}

// Staging collects operations for a Transaction. Adapters embed it and
// implement Commit on top of Drain.
type Staging struct {
	mu     sync.Mutex
	ops    []Op
	closed bool
}

// Add implements Transaction.
func (s *Staging) Add(ctx context.Context, rec Record) error {
	return s.stage(AddOp(rec))
}

// Remove implements Transaction.
func (s *Staging) Remove(ctx context.Context, encoded string) error {
	return s.stage(RemoveOp(encoded))
}

// Replace implements Transaction.
func (s *Staging) Replace(ctx context.Context, old string, rec Record) error {
	return s.stage(ReplaceOp(old, rec))
}

// Rollback implements Transaction.
func (s *Staging) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ops = nil
	s.closed = true
	return nil
}

// Drain closes the staging area and hands back what was staged.
func (s *Staging) Drain() ([]Op, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrTxClosed
	}
	s.closed = true
	ops := s.ops
	s.ops = nil
	return ops, nil
}

func (s *Staging) stage(op Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrTxClosed
	}
	s.ops = append(s.ops, op)
	return nil
}
