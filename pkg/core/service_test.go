package core_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notepad/pkg/adapters/memory"
	"github.com/aretw0/notepad/pkg/core"
)

func nextSnapshot(t *testing.T, ch <-chan core.Collection) core.Collection {
	t.Helper()

	select {
	case c, ok := <-ch:
		require.True(t, ok, "snapshot stream closed unexpectedly")
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for snapshot")
		return core.Collection{}
	}
}

func assertQuiet(t *testing.T, ch <-chan core.Collection) {
	t.Helper()

	select {
	case c := <-ch:
		t.Fatalf("unexpected snapshot: %s", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestService_SaveDeleteUpdate(t *testing.T) {
	ctx := context.Background()
	svc := core.NewService(memory.NewRepository())

	require.NoError(t, svc.Save(ctx, "Buy milk|2024-01-01 10:00:00"))
	require.NoError(t, svc.Save(ctx, "Buy milk|2024-01-01 10:00:00"))
	require.NoError(t, svc.Save(ctx, "Call mom|2024-01-01 11:00:00"))

	c, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Buy milk|2024-01-01 10:00:00", "Call mom|2024-01-01 11:00:00"}, c.Strings())

	require.NoError(t, svc.Update(ctx, "Call mom|2024-01-01 11:00:00", "Call dad|2024-01-01 12:00:00"))
	require.NoError(t, svc.Delete(ctx, "Buy milk|2024-01-01 10:00:00"))
	require.NoError(t, svc.Delete(ctx, "never saved"))

	c, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Call dad|2024-01-01 12:00:00"}, c.Strings())
	assert.Equal(t, uint64(6), c.Revision())
}

func TestService_UpdateMissingBehavesLikeSave(t *testing.T) {
	ctx := context.Background()
	svc := core.NewService(memory.NewRepository())

	require.NoError(t, svc.Update(ctx, "ghost|2024-01-01 10:00:00", "real|2024-01-01 10:00:00"))

	c, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"real|2024-01-01 10:00:00"}, c.Strings())
}

func TestService_SaveTextAndEdit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	clock := core.ClockFunc(func() time.Time { return now })
	svc := core.NewService(memory.NewRepository(), core.WithClock(clock))

	rec, err := svc.SaveText(ctx, "draft")
	require.NoError(t, err)
	assert.Equal(t, "draft|2024-05-01 09:00:00", rec.Encode())
	assert.NotEmpty(t, rec.ID)

	now = now.Add(time.Hour)
	edited, err := svc.Edit(ctx, rec.Encode(), "final")
	require.NoError(t, err)
	assert.Equal(t, "final|2024-05-01 10:00:00", edited.Encode())
	assert.Equal(t, rec.ID, edited.ID, "edit keeps the note's ID")
}

func TestService_ObserveEmitsOnSubscribeAndMutation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := memory.NewRepository(core.Decode("seed|2024-01-01 10:00:00"))
	svc := core.NewService(repo)

	stream, err := svc.Observe(ctx)
	require.NoError(t, err)

	first := nextSnapshot(t, stream)
	assert.Equal(t, []string{"seed|2024-01-01 10:00:00"}, first.Strings())

	require.NoError(t, svc.Save(ctx, "more|2024-01-01 11:00:00"))
	second := nextSnapshot(t, stream)
	assert.Equal(t, 2, second.Len())
	assert.Greater(t, second.Revision(), first.Revision())

	// A no-op mutation is still a new snapshot.
	require.NoError(t, svc.Save(ctx, "more|2024-01-01 11:00:00"))
	third := nextSnapshot(t, stream)
	assert.Equal(t, second.Strings(), third.Strings())

	cancel()
	select {
	case _, ok := <-stream:
		assert.False(t, ok, "stream should close once ctx is done")
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close")
	}
}

func TestService_MultipleSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := core.NewService(memory.NewRepository())

	a, err := svc.Observe(ctx)
	require.NoError(t, err)
	b, err := svc.Observe(ctx)
	require.NoError(t, err)

	nextSnapshot(t, a)
	nextSnapshot(t, b)

	require.NoError(t, svc.Save(ctx, "shared|2024-01-01 10:00:00"))
	assert.True(t, nextSnapshot(t, a).Contains("shared|2024-01-01 10:00:00"))
	assert.True(t, nextSnapshot(t, b).Contains("shared|2024-01-01 10:00:00"))

	state := svc.State().(core.ServiceState)
	assert.Equal(t, 2, state.Subscribers)
	assert.Equal(t, "memory-repository", state.RepositoryType)
}

func TestService_SlowSubscriberGetsLatest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := core.NewService(memory.NewRepository())
	stream, err := svc.Observe(ctx)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		require.NoError(t, svc.Save(ctx, fmt.Sprintf("n%02d|2024-01-01 10:00:00", i)))
	}

	// Older snapshots may be skipped, but the newest one always arrives.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case c := <-stream:
			if c.Len() == 50 {
				assert.Equal(t, uint64(50), c.Revision())
				return
			}
		case <-deadline:
			t.Fatal("never observed the final snapshot")
		}
	}
}

func TestService_FailedMutationPublishesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := memory.NewRepository()
	svc := core.NewService(repo)

	stream, err := svc.Observe(ctx)
	require.NoError(t, err)
	nextSnapshot(t, stream)

	fault := errors.New("disk full")
	repo.FailCommits(fault)

	err = svc.Save(ctx, "lost|2024-01-01 10:00:00")
	require.Error(t, err)
	assert.ErrorIs(t, err, fault)
	assert.Contains(t, err.Error(), "save note")
	assertQuiet(t, stream)

	repo.FailCommits(nil)
	repo.SetReadOnly(true)
	assert.ErrorIs(t, svc.Delete(ctx, "anything"), core.ErrReadOnly)
	assertQuiet(t, stream)

	c, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestService_WithTransaction(t *testing.T) {
	ctx := context.Background()
	svc := core.NewService(memory.NewRepository())

	err := svc.WithTransaction(ctx, func(tx core.Transaction) error {
		if err := tx.Add(ctx, core.Decode("a|2024-01-01 10:00:00")); err != nil {
			return err
		}
		return tx.Add(ctx, core.Decode("b|2024-01-01 10:00:00"))
	})
	require.NoError(t, err)

	c, _ := svc.Snapshot(ctx)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, uint64(1), c.Revision(), "a batch is one commit")

	boom := errors.New("abort")
	err = svc.WithTransaction(ctx, func(tx core.Transaction) error {
		_ = tx.Add(ctx, core.Decode("c|2024-01-01 10:00:00"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	c, _ = svc.Snapshot(ctx)
	assert.False(t, c.Contains("c|2024-01-01 10:00:00"))
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	svc := core.NewService(memory.NewRepository())

	a, err := svc.SaveText(ctx, "alpha")
	require.NoError(t, err)

	got, err := svc.Get(ctx, a.Encode())
	require.NoError(t, err)
	assert.Equal(t, a, got)

	got, err = svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	got, err = svc.Get(ctx, a.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = svc.Get(ctx, "zzzz")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Get(ctx, "")
	assert.Error(t, err)
}

func TestService_GetAmbiguous(t *testing.T) {
	ctx := context.Background()
	svc := core.NewService(memory.NewRepository(
		core.Record{ID: "abc-1", Text: "one"},
		core.Record{ID: "abc-2", Text: "two"},
	))

	_, err := svc.Get(ctx, "abc")
	assert.ErrorIs(t, err, core.ErrAmbiguous)

	rec, err := svc.Get(ctx, "abc-2")
	require.NoError(t, err)
	assert.Equal(t, "two", rec.Text)
}

func TestService_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	svc := core.NewService(memory.NewRepository())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, svc.Save(ctx, fmt.Sprintf("note %d|2024-01-01 10:00:00", i)))
		}(i)
	}
	wg.Wait()

	c, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 32, c.Len())
	assert.Equal(t, uint64(32), c.Revision())
}

// watchableRepo feeds hand-made change events to the service.
type watchableRepo struct {
	*memory.Repository
	events chan core.Event
}

func (w *watchableRepo) Watch(ctx context.Context) (<-chan core.Event, error) {
	return w.events, nil
}

func TestService_FollowsExternalChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := &watchableRepo{Repository: memory.NewRepository(), events: make(chan core.Event)}
	svc := core.NewService(repo)
	defer svc.Close()

	stream, err := svc.Observe(ctx)
	require.NoError(t, err)
	nextSnapshot(t, stream)

	// Another writer commits straight to storage.
	tx, _ := repo.Begin(ctx)
	_ = tx.Add(ctx, core.Decode("external|2024-01-01 10:00:00"))
	_, err = tx.Commit(ctx)
	require.NoError(t, err)

	repo.events <- core.Event{Type: core.EventModify, Namespace: core.DefaultNamespace}
	assert.True(t, nextSnapshot(t, stream).Contains("external|2024-01-01 10:00:00"))

	// Nothing newer on disk: a modify event is dropped.
	repo.events <- core.Event{Type: core.EventModify, Namespace: core.DefaultNamespace}
	assertQuiet(t, stream)

	// A delete always republishes.
	repo.events <- core.Event{Type: core.EventDelete, Namespace: core.DefaultNamespace}
	nextSnapshot(t, stream)

	assert.True(t, svc.State().(core.ServiceState).Watching)
}

func TestService_WatchDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := &watchableRepo{Repository: memory.NewRepository(), events: make(chan core.Event)}
	svc := core.NewService(repo, core.WithWatch(false))

	_, err := svc.Observe(ctx)
	require.NoError(t, err)
	assert.False(t, svc.State().(core.ServiceState).Watching)
}

func TestEvent_String(t *testing.T) {
	e := core.Event{Type: core.EventDelete, Namespace: "notes"}
	assert.True(t, strings.HasPrefix(e.String(), "DELETE"))
}
