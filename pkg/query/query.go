// Package query derives filtered, display-ordered views from the note
// collection stream.
package query

import (
	"context"
	"sort"
	"strings"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notepad/pkg/core"
)

// Observer is the source of collection snapshots; *core.Service satisfies it.
type Observer interface {
	Observe(ctx context.Context) (<-chan core.Collection, error)
}

// Service turns the snapshot stream into search results.
// It holds no mutable state: every result is recomputed from a snapshot.
type Service struct {
	store Observer
}

// NewService creates a query service over store.
func NewService(store Observer) *Service {
	return &Service{store: store}
}

// FilteredNotes streams the encoded notes matching q, once per snapshot.
// The channel closes when ctx is done.
func (s *Service) FilteredNotes(ctx context.Context, q string) (<-chan []string, error) {
	return derive(ctx, s.store, q, func(recs []core.Record) []string {
		out := make([]string, len(recs))
		for i, rec := range recs {
			out[i] = rec.Encode()
		}
		return out
	})
}

// FilteredRecords is FilteredNotes carrying the structured records.
func (s *Service) FilteredRecords(ctx context.Context, q string) (<-chan []core.Record, error) {
	return derive(ctx, s.store, q, func(recs []core.Record) []core.Record {
		return recs
	})
}

func derive[T any](ctx context.Context, store Observer, q string, shape func([]core.Record) T) (<-chan T, error) {
	snapshots, err := store.Observe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan T)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case c, ok := <-snapshots:
				if !ok {
					return nil
				}
				select {
				case out <- shape(Filter(c, q)):
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return out, nil
}

// Filter returns the records of c whose text contains q, ignoring case, in
// display order. A blank q matches every record. Timestamps never match.
func Filter(c core.Collection, q string) []core.Record {
	recs := c.Records()

	if strings.TrimSpace(q) != "" {
		needle := strings.ToLower(q)
		kept := recs[:0]
		for _, rec := range recs {
			if strings.Contains(strings.ToLower(rec.Text), needle) {
				kept = append(kept, rec)
			}
		}
		recs = kept
	}

	Sort(recs)
	return recs
}

// Sort orders records for display: newest first, then by text, then by ID.
// Records whose timestamp is missing or not in the standard layout go last.
func Sort(recs []core.Record) {
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		_, aOK := a.Time()
		_, bOK := b.Time()
		if aOK != bOK {
			return aOK
		}
		if a.Timestamp != b.Timestamp {
			// The layout is fixed-width and big-endian, so string order is time order.
			return a.Timestamp > b.Timestamp
		}
		if a.Text != b.Text {
			return a.Text < b.Text
		}
		return a.ID < b.ID
	})
}
