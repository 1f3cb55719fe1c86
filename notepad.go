package notepad

import (
	"log/slog"

	"github.com/aretw0/notepad/internal/platform"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/query"
)

// --- Types ---

// Record is a single note.
type Record = core.Record

// Collection is a snapshot of the whole note set.
type Collection = core.Collection

// Service is the note store.
type Service = core.Service

// QueryService derives filtered views of the note store.
type QueryService = query.Service

// --- Configuration ---

// Option defines a functional option for configuring notepad.
type Option = platform.Option

// WithLogger sets the logger for the service and its repository.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAdapter selects the storage adapter by name: "fs" (default) or "memory".
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithFormat selects the collection file format: "json" (default) or "yaml".
func WithFormat(format string) Option {
	return platform.WithFormat(format)
}

// WithNamespace changes the storage namespace. Defaults to "notes".
func WithNamespace(namespace string) Option {
	return platform.WithNamespace(namespace)
}

// WithReadOnly makes every mutation fail with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithMustExist ensures the notes directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the temp-dir sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithClock sets the time source notes are stamped with.
func WithClock(clock core.Clock) Option {
	return platform.WithClock(clock)
}

// WithWatch controls whether observers follow changes made by other processes.
func WithWatch(enabled bool) Option {
	return platform.WithWatch(enabled)
}

// WithWatchPattern overrides the glob matched against changed file names.
func WithWatchPattern(pattern string) Option {
	return platform.WithWatchPattern(pattern)
}

// WithWatcherErrorHandler registers a callback for watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithConfigFile loads settings from a JSONC file.
func WithConfigFile(path string) Option {
	return platform.WithConfigFile(path)
}

// WithSerializer registers a custom serializer (an fs.Serializer) for a file extension.
func WithSerializer(ext string, s any) Option {
	return platform.WithSerializer(ext, s)
}

// --- Factory ---

// New creates a note store over the directory at path.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init prepares the storage explicitly and returns its repository.
func Init(path string, opts ...Option) (core.Repository, error) {
	return platform.Init(path, opts...)
}

// NewQuery creates a query service over a note store.
func NewQuery(svc *core.Service) *query.Service {
	return query.NewService(svc)
}

// --- Safety & Utils ---

// ResolveNotesPath determines the actual notes directory based on safety rules.
func ResolveNotesPath(userPath string, forceTemp bool) string {
	return platform.ResolveNotesPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards from startDir for a notes directory.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
