package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/aretw0/notepad/pkg/adapters/memory"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/query"
)

func encoded(recs []core.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Encode()
	}
	return out
}

func TestFilter(t *testing.T) {
	c := core.NewCollection(0,
		core.Decode("Buy MILK|2024-01-01 10:00:00"),
		core.Decode("Call mom|2024-01-01 11:00:00"),
		core.Decode("milkshake|2024-01-02 09:00:00"),
		core.Decode("broken entry"),
	)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "case insensitive",
			query: "milk",
			want:  []string{"milkshake|2024-01-02 09:00:00", "Buy MILK|2024-01-01 10:00:00"},
		},
		{
			name:  "blank returns all",
			query: "   ",
			want: []string{
				"milkshake|2024-01-02 09:00:00",
				"Call mom|2024-01-01 11:00:00",
				"Buy MILK|2024-01-01 10:00:00",
				"broken entry",
			},
		},
		{
			name:  "timestamp never matches",
			query: "2024",
			want:  []string{},
		},
		{
			name:  "undecodable text is searchable",
			query: "BROKEN",
			want:  []string{"broken entry"},
		},
		{
			name:  "no match",
			query: "xyz",
			want:  []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := encoded(query.Filter(c, tc.query))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Filter(%q) mismatch (-want +got):\n%s", tc.query, diff)
			}
		})
	}
}

func TestFilter_FreeFormTimestamps(t *testing.T) {
	c := core.NewCollection(0,
		core.Decode("Buy milk|yesterday"),
		core.Decode("Buy milk|٢٠٢٤-٠١-٠١ ١٠:٠٠:٠٠"),
		core.Decode("Buy milk|2024/01/01 10:00"),
		core.Decode("Pay rent|2024-01-01 10:00:00"),
	)

	for _, q := range []string{"yesterday", "٢٠٢٤", "2024/01", "10:00"} {
		assert.Empty(t, query.Filter(c, q), "query %q matched a timestamp", q)
	}

	got := encoded(query.Filter(c, "MILK"))
	assert.Len(t, got, 3)

	all := encoded(query.Filter(c, ""))
	assert.Equal(t, "Pay rent|2024-01-01 10:00:00", all[0], "parseable timestamps sort first")
}

func TestSort_TieBreaks(t *testing.T) {
	recs := []core.Record{
		{ID: "2", Text: "b", Timestamp: "2024-01-01 10:00:00"},
		{ID: "1", Text: "a", Timestamp: "2024-01-01 10:00:00"},
		{ID: "3", Text: "z", Timestamp: "2024-01-03 10:00:00"},
	}
	query.Sort(recs)

	want := []string{"3", "1", "2"}
	got := []string{recs[0].ID, recs[1].ID, recs[2].ID}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

// TestFilter_Properties checks that results are exactly the matching subset.
func TestFilter_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		texts := rapid.SliceOfN(rapid.StringMatching(`[a-cA-C|]{0,6}`), 0, 12).Draw(t, "texts")
		q := rapid.StringMatching(`[a-cA-C ]{0,3}`).Draw(t, "query")

		recs := make([]core.Record, len(texts))
		for i, text := range texts {
			recs[i] = core.Record{Text: text, Timestamp: "2024-01-01 10:00:00"}
		}
		c := core.NewCollection(0, recs...)
		got := query.Filter(c, q)

		matched := map[string]bool{}
		for _, rec := range got {
			matched[rec.Encode()] = true
			if !matches(rec.Text, q) {
				t.Fatalf("%q returned for query %q", rec.Text, q)
			}
		}
		for _, rec := range c.Records() {
			if matches(rec.Text, q) && !matched[rec.Encode()] {
				t.Fatalf("%q missing for query %q", rec.Text, q)
			}
		}
	})
}

func matches(text, q string) bool {
	blank := true
	for _, r := range q {
		if r != ' ' {
			blank = false
		}
	}
	if blank {
		return true
	}
	return containsFold(text, q)
}

func containsFold(s, sub string) bool {
	lower := func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}
	ls, lsub := []rune(s), []rune(sub)
	for i := 0; i+len(lsub) <= len(ls); i++ {
		ok := true
		for j := range lsub {
			if lower(ls[i+j]) != lower(lsub[j]) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func next[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v, ok := <-ch:
		require.True(t, ok, "stream closed unexpectedly")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for results")
		var zero T
		return zero
	}
}

func TestFilteredNotes_FollowsStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := core.NewService(memory.NewRepository())
	q := query.NewService(store)

	results, err := q.FilteredNotes(ctx, "milk")
	require.NoError(t, err)
	require.Empty(t, next(t, results))

	require.NoError(t, store.Save(ctx, "Buy milk|2024-01-01 10:00:00"))
	require.Equal(t, []string{"Buy milk|2024-01-01 10:00:00"}, next(t, results))

	require.NoError(t, store.Save(ctx, "Call mom|2024-01-01 11:00:00"))
	require.Equal(t, []string{"Buy milk|2024-01-01 10:00:00"}, next(t, results))

	require.NoError(t, store.Update(ctx, "Buy milk|2024-01-01 10:00:00", "Buy oat milk|2024-01-01 12:00:00"))
	require.Equal(t, []string{"Buy oat milk|2024-01-01 12:00:00"}, next(t, results))

	cancel()
	select {
	case _, ok := <-results:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("results did not close after cancel")
	}
}

func TestFilteredRecords_CarriesIDs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := core.NewService(memory.NewRepository(core.Decode("MILK run|2024-01-01 10:00:00")))
	results, err := query.NewService(store).FilteredRecords(ctx, "milk")
	require.NoError(t, err)

	recs := next(t, results)
	require.Len(t, recs, 1)
	require.NotEmpty(t, recs[0].ID)
}
