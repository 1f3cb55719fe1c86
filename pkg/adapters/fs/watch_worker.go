package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/notepad/pkg/core"
)

// Watch reports changes to the collection file made by other writers.
// The watcher runs under a supervisor that restarts it on failure; the
// channel closes once ctx is done and the watcher has stopped.
func (r *Repository) Watch(ctx context.Context) (<-chan core.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pattern := r.config.WatchPattern
	if pattern == "" {
		pattern = filepath.Base(r.File())
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern: %q", pattern)
	}

	events := make(chan core.Event, 16)

	spec := supervisor.Spec{
		Name: "notes-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			return newWatchWorker(r, pattern, events), nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2,
			ResetDuration:   time.Minute,
			MaxRestarts:     5,
			MaxDuration:     5 * time.Minute,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}

	sup := supervisor.New("notes-watch", supervisor.StrategyOneForOne, spec)
	if err := sup.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := sup.Stop(stopCtx)
		close(events)
		return err
	})

	return events, nil
}

type watchWorker struct {
	*worker.BaseWorker
	repo      *Repository
	pattern   string
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(repo *Repository, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		repo:       repo,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// The directory, not the file: atomic replaces swap the file's inode.
	if err := watcher.Add(w.repo.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.repo.Path, err)
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(50 * time.Millisecond)
	w.repo.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// reconcile makes subscribers reload once the watcher is attached, covering
// changes made while no watcher was running (first start or a restart).
func (w *watchWorker) reconcile(ctx context.Context) {
	w.repo.recordReconcile()
	w.sendEvent(ctx, core.Event{
		Type:      core.EventModify,
		Namespace: w.repo.config.Namespace,
		Timestamp: time.Now().Unix(),
	})
}

// processFilesystemEvent handles filtering and mapping of filesystem events.
// Returns true if event was processed, false if it was ignored.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) (processed bool) {
	if w.repo.config.Logger != nil {
		w.repo.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())
	}

	if w.shouldIgnore(event) {
		return false
	}

	eType := mapEventType(event)
	if eType == "" {
		return false
	}

	w.sendEvent(ctx, core.Event{
		Type:      eType,
		Namespace: w.repo.config.Namespace,
		Timestamp: time.Now().Unix(),
	})
	return true
}

func (w *watchWorker) shouldIgnore(event fsnotify.Event) bool {
	ok, err := doublestar.Match(w.pattern, filepath.Base(event.Name))
	return err != nil || !ok
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	default:
		return ""
	}
}

// sendEvent enqueues an event via the debouncer, protecting against channel closure during shutdown.
func (w *watchWorker) sendEvent(ctx context.Context, event core.Event) {
	w.debouncer.add(event, func(e core.Event) {
		defer func() {
			// Recover from panic if channel was closed (worker stopping)
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

// handleWatcherError processes errors from the fsnotify watcher.
func (w *watchWorker) handleWatcherError(err error) {
	if w.repo.config.Logger != nil {
		w.repo.config.Logger.Error("fsnotify error", "error", err)
	}
	if w.repo.config.ErrorHandler != nil {
		w.repo.config.ErrorHandler(err)
	}
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)

			logger := w.repo.config.Logger
			if logger == nil {
				return
			}
			// Stack only at debug level.
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	w.reconcile(ctx)
	err = w.mainEventLoop(ctx)

	// Stop accepting new events and wait for in-flight deliveries before the
	// owner closes the events channel.
	w.debouncer.stopAndWait(5 * time.Second)

	return err
}

// mainEventLoop is the core select loop that processes filesystem and watcher events.
func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}
