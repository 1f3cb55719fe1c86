// Package lifecycle bridges search results into a lifecycle.Source, so a
// lifecycle-managed event loop can react to what a query currently matches.
package lifecycle

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notepad/pkg/core"
)

// Results is the event emitted whenever the matching notes change.
// Seq counts emitted events, starting at 1.
type Results struct {
	Query   string
	Seq     int
	Records []core.Record
}

// String implements lifecycle.Event.
func (r Results) String() string {
	return fmt.Sprintf("results #%d for %q (%d notes)", r.Seq, r.Query, len(r.Records))
}

type resultsSource struct {
	query   string
	results <-chan []core.Record
	out     chan lifecycle.Event
}

// NewSource creates a lifecycle.Source over a FilteredRecords stream for query.
// A result equal to the previous one is not emitted again, so changes to
// notes outside the query stay silent.
func NewSource(query string, results <-chan []core.Record) lifecycle.Source {
	return &resultsSource{
		query:   query,
		results: results,
		out:     make(chan lifecycle.Event),
	}
}

func (s *resultsSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *resultsSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)

		var (
			last []core.Record
			seq  int
		)
		for {
			select {
			case <-ctx.Done():
				return nil
			case recs, ok := <-s.results:
				if !ok {
					return nil
				}
				if seq > 0 && slices.Equal(last, recs) {
					continue
				}
				last = recs
				seq++
				select {
				case s.out <- Results{Query: s.query, Seq: seq, Records: recs}:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
