package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/lifecycle"
)

// Service handles the business logic for notes: mutations against the
// repository and the snapshot stream subscribers observe.
type Service struct {
	repo   Repository
	clock  Clock
	logger *slog.Logger
	watch  bool

	broker *broker

	mu          sync.Mutex
	watching    bool
	watchCancel context.CancelFunc
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock sets the time source used to stamp notes.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithServiceLogger sets the logger for the service.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithWatch controls whether the service follows out-of-process changes
// when the repository is Watchable. Enabled by default.
func WithWatch(enabled bool) ServiceOption {
	return func(s *Service) {
		s.watch = enabled
	}
}

// NewService creates a new Service.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		clock:  SystemClock{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		watch:  true,
		broker: newBroker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository returns the underlying storage adapter.
func (s *Service) Repository() Repository {
	return s.repo
}

// Save adds an encoded note to the collection. Saving a note that is
// already present leaves the collection unchanged.
func (s *Service) Save(ctx context.Context, note string) error {
	_, err := s.mutate(ctx, "save", func(tx Transaction) error {
		return tx.Add(ctx, Decode(note))
	})
	return err
}

// Delete removes an encoded note. Deleting an absent note is not an error.
func (s *Service) Delete(ctx context.Context, note string) error {
	_, err := s.mutate(ctx, "delete", func(tx Transaction) error {
		return tx.Remove(ctx, note)
	})
	return err
}

// Update replaces oldNote with newNote in a single commit. When oldNote is
// absent newNote is inserted anyway. The new note keeps the old note's ID.
func (s *Service) Update(ctx context.Context, oldNote, newNote string) error {
	_, err := s.mutate(ctx, "update", func(tx Transaction) error {
		return tx.Replace(ctx, oldNote, Decode(newNote))
	})
	return err
}

// SaveText stamps text with the current time and saves it.
func (s *Service) SaveText(ctx context.Context, text string) (Record, error) {
	rec := NewRecord(text, s.clock)
	next, err := s.mutate(ctx, "save", func(tx Transaction) error {
		return tx.Add(ctx, rec)
	})
	if err != nil {
		return Record{}, err
	}
	stored, _ := next.Lookup(rec.Encode())
	return stored, nil
}

// Edit stamps text with the current time and replaces oldNote with it.
func (s *Service) Edit(ctx context.Context, oldNote, text string) (Record, error) {
	rec := NewRecord(text, s.clock)
	next, err := s.mutate(ctx, "update", func(tx Transaction) error {
		return tx.Replace(ctx, oldNote, rec)
	})
	if err != nil {
		return Record{}, err
	}
	stored, _ := next.Lookup(rec.Encode())
	return stored, nil
}

// WithTransaction executes fn within a transaction and publishes the result.
func (s *Service) WithTransaction(ctx context.Context, fn func(tx Transaction) error) error {
	_, err := s.mutate(ctx, "batch", fn)
	return err
}

// Snapshot returns the current collection, loading it on first use.
func (s *Service) Snapshot(ctx context.Context) (Collection, error) {
	if c, ok := s.broker.snapshot(); ok {
		return c, nil
	}

	c, err := s.repo.Load(ctx)
	if err != nil {
		return Collection{}, fmt.Errorf("load notes: %w", err)
	}
	s.broker.publish(c, false)

	c, _ = s.broker.snapshot()
	return c, nil
}

// Get resolves a note reference: an exact encoding, an ID, or an
// unambiguous ID prefix.
func (s *Service) Get(ctx context.Context, ref string) (Record, error) {
	if ref == "" {
		return Record{}, errors.New("note reference cannot be empty")
	}

	c, err := s.Snapshot(ctx)
	if err != nil {
		return Record{}, err
	}

	if rec, ok := c.Lookup(ref); ok {
		return rec, nil
	}

	var matches []Record
	for _, rec := range c.Records() {
		if rec.ID == ref {
			return rec, nil
		}
		if strings.HasPrefix(rec.ID, ref) {
			matches = append(matches, rec)
		}
	}

	switch len(matches) {
	case 0:
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return Record{}, fmt.Errorf("%w: %s matches %d notes", ErrAmbiguous, ref, len(matches))
	}
}

// Observe streams collection snapshots: the current one right away, then
// one after every committed mutation. Slow readers skip intermediate
// snapshots and always receive the newest. The channel closes when ctx is done.
func (s *Service) Observe(ctx context.Context) (<-chan Collection, error) {
	if _, err := s.Snapshot(ctx); err != nil {
		return nil, err
	}

	sub := s.broker.subscribe()
	out := make(chan Collection)
	s.broker.stream(ctx, sub, out)

	s.ensureWatching()
	return out, nil
}

// Close stops following out-of-process changes. Open Observe streams stay
// open until their contexts end.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	s.watching = false
	return nil
}

func (s *Service) mutate(ctx context.Context, op string, fn func(tx Transaction) error) (Collection, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return Collection{}, fmt.Errorf("%s note: %w", op, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return Collection{}, err
	}

	next, err := tx.Commit(ctx)
	if err != nil {
		s.logger.Warn("mutation failed", "op", op, "error", err)
		return Collection{}, fmt.Errorf("%s note: %w", op, err)
	}

	s.logger.Debug("mutation committed", "op", op, "revision", next.Revision(), "notes", next.Len())
	s.broker.publish(next, false)
	return next, nil
}

// ensureWatching starts following the repository once, if it supports it.
func (s *Service) ensureWatching() {
	w, ok := s.repo.(Watchable)
	if !ok || !s.watch {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watching {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := w.Watch(ctx)
	if err != nil {
		cancel()
		s.logger.Warn("watch unavailable, following own writes only", "error", err)
		return
	}
	s.watching = true
	s.watchCancel = cancel

	lifecycle.Go(ctx, func(ctx context.Context) error {
		for {
			var e Event
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				e = ev
			}

			c, err := s.repo.Load(ctx)
			if err != nil {
				s.logger.Error("reload after change failed", "event", e.String(), "error", err)
				continue
			}
			if s.broker.publish(c, e.Type == EventDelete) {
				s.logger.Debug("reloaded after change", "event", e.String(), "revision", c.Revision())
			}
		}
	})
}
