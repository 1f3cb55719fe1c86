package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/notepad/pkg/core"
)

// Repository implements core.Repository on top of a single file holding the
// whole collection of a namespace (by default <Path>/notes.json).
type Repository struct {
	Path   string
	config Config

	serializers map[string]Serializer
	cache       *cache

	// writeMu serializes commits within the process; the lock file
	// serializes them across processes.
	writeMu sync.Mutex

	mu            sync.RWMutex
	readOnly      bool
	watcherActive bool
	lastRevision  uint64
	lastReconcile *time.Time
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path         string
	Namespace    string // Defaults to core.DefaultNamespace.
	Format       string // File extension selecting the serializer: ".json" (default), ".yaml", ".yml".
	MustExist    bool
	ReadOnly     bool
	Logger       *slog.Logger
	WatchPattern string      // Glob (doublestar) matched against changed file names. Defaults to the collection file name.
	ErrorHandler func(error) // Receives watcher failures.
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.Namespace == "" {
		config.Namespace = core.DefaultNamespace
	}
	if config.Format == "" {
		config.Format = ".json"
	}
	if config.Format[0] != '.' {
		config.Format = "." + config.Format
	}

	return &Repository{
		Path:        config.Path,
		config:      config,
		serializers: DefaultSerializers(),
		cache:       newCache(),
		readOnly:    config.ReadOnly,
	}
}

// RegisterSerializer adds or replaces the serializer for a file extension.
func (r *Repository) RegisterSerializer(ext string, s Serializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serializers[ext] = s
}

// File returns the path of the collection file.
func (r *Repository) File() string {
	return filepath.Join(r.Path, r.config.Namespace+r.config.Format)
}

func (r *Repository) lockFile() string {
	return filepath.Join(r.Path, "."+r.config.Namespace+".lock")
}

func (r *Repository) serializer() (Serializer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.serializers[r.config.Format]
	if !ok {
		return nil, fmt.Errorf("no serializer registered for %s", r.config.Format)
	}
	return s, nil
}

// Initialize performs the necessary setup for the repository (mkdir).
// The collection file itself is created by the first commit.
func (r *Repository) Initialize(ctx context.Context) error {
	if _, err := r.serializer(); err != nil {
		return err
	}

	if r.config.MustExist || r.readOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("notes path does not exist: %s", r.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat notes path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("notes path is not a directory: %s", r.Path)
		}
		return nil
	}

	if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create notes directory: %w", err)
	}
	return nil
}

// Load reads the collection file. A missing file reads as an empty collection.
//
// Strategy:
//  1. Stat the file; if its mtime and size match the cached parse, reuse it.
//  2. Otherwise parse it and refresh the cache.
func (r *Repository) Load(ctx context.Context) (core.Collection, error) {
	info, err := os.Stat(r.File())
	if errors.Is(err, os.ErrNotExist) {
		r.cache.Invalidate()
		return core.NewCollection(0), nil
	}
	if err != nil {
		return core.Collection{}, fmt.Errorf("failed to stat collection: %w", err)
	}

	if c, hit := r.cache.Get(info); hit {
		return c, nil
	}

	c, info, err := r.read()
	if err != nil {
		return core.Collection{}, err
	}
	r.cache.Set(info, c)
	r.recordRevision(c.Revision())
	return c, nil
}

// read parses the collection file, bypassing the cache.
func (r *Repository) read() (core.Collection, os.FileInfo, error) {
	s, err := r.serializer()
	if err != nil {
		return core.Collection{}, nil, err
	}

	f, err := os.Open(r.File())
	if errors.Is(err, os.ErrNotExist) {
		return core.NewCollection(0), nil, nil
	}
	if err != nil {
		return core.Collection{}, nil, fmt.Errorf("failed to open collection: %w", err)
	}
	defer f.Close()

	// Stat the open file, not the path: a concurrent rename must not pair
	// the new file's attributes with the old file's content.
	info, err := f.Stat()
	if err != nil {
		return core.Collection{}, nil, fmt.Errorf("failed to stat collection: %w", err)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return core.Collection{}, nil, fmt.Errorf("failed to read collection: %w", err)
	}

	c, err := s.Parse(bytes.NewReader(data), r.config.Namespace)
	if err != nil {
		return core.Collection{}, nil, fmt.Errorf("failed to parse %s: %w", r.File(), err)
	}
	return c, info, nil
}

// Begin starts a new transaction.
func (r *Repository) Begin(ctx context.Context) (core.Transaction, error) {
	return NewTransaction(r), nil
}

// commit applies ops as one read-modify-write of the collection file.
//
// Workflow:
//  1. Take the process mutex, then the lock file.
//  2. Re-read the file (never from cache) so concurrent writers are not lost.
//  3. Apply ops, serialize, and replace the file atomically.
func (r *Repository) commit(ctx context.Context, ops []core.Op) (core.Collection, error) {
	if r.isReadOnly() {
		return core.Collection{}, core.ErrReadOnly
	}
	if err := ctx.Err(); err != nil {
		return core.Collection{}, err
	}

	s, err := r.serializer()
	if err != nil {
		return core.Collection{}, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := os.MkdirAll(r.Path, 0755); err != nil {
		return core.Collection{}, fmt.Errorf("failed to create notes directory: %w", err)
	}

	unlock, err := fileLock(r.lockFile())
	if err != nil {
		return core.Collection{}, err
	}
	defer unlock()

	current, _, err := r.read()
	if err != nil {
		return core.Collection{}, err
	}

	next := current.Apply(ops...)

	data, err := s.Serialize(next, r.config.Namespace)
	if err != nil {
		return core.Collection{}, fmt.Errorf("failed to serialize collection: %w", err)
	}

	if r.config.Logger != nil {
		r.config.Logger.Debug("writing collection", "path", r.File(), "revision", next.Revision(), "notes", next.Len())
	}

	if err := writeFileAtomic(r.File(), data, 0644); err != nil {
		r.cache.Invalidate()
		return core.Collection{}, err
	}

	if info, err := os.Stat(r.File()); err == nil {
		r.cache.Set(info, next)
	} else {
		r.cache.Invalidate()
	}
	r.recordRevision(next.Revision())

	return next, nil
}

func (r *Repository) isReadOnly() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.readOnly
}

var _ core.Repository = (*Repository)(nil)
var _ core.Watchable = (*Repository)(nil)
