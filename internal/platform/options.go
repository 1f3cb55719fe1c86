package platform

import (
	"log/slog"

	"github.com/aretw0/notepad/pkg/core"
)

// options holds the internal configuration for the notepad service.
type options struct {
	repository  core.Repository
	logger      *slog.Logger
	adapter     string
	clock       core.Clock
	watch       bool
	configFile  string
	config      map[string]interface{}
	serializers map[string]any
}

// Option defines a functional option for configuring notepad.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		repository:  nil,
		logger:      nil,
		adapter:     "fs",
		watch:       true,
		config:      make(map[string]interface{}),
		serializers: make(map[string]any),
	}
}

// WithSerializer registers a custom serializer for a specific extension.
// The serializer 's' must implement the adapter's Serializer interface (e.g. fs.Serializer).
// Validation happens at runtime during Init.
func WithSerializer(ext string, s any) Option {
	return func(o *options) {
		o.serializers[ext] = s
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithMustExist ensures the notes directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithLogger sets the logger for the service and its repository.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository allows injecting a custom storage adapter.
// If provided, the adapter selection is skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the storage adapter by name: "fs" (default) or "memory".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithFormat selects the collection file format: "json" (default) or "yaml".
func WithFormat(format string) Option {
	return func(o *options) {
		o.config["format"] = format
	}
}

// WithNamespace changes the storage namespace (and file name). Defaults to "notes".
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.config["namespace"] = namespace
	}
}

// WithClock sets the time source notes are stamped with.
func WithClock(clock core.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithWatch controls whether observers follow changes made by other processes.
// Enabled by default.
func WithWatch(enabled bool) Option {
	return func(o *options) {
		o.watch = enabled
	}
}

// WithWatchPattern overrides the glob matched against changed file names.
func WithWatchPattern(pattern string) Option {
	return func(o *options) {
		o.config["watch_pattern"] = pattern
	}
}

// WithWatcherErrorHandler registers a callback to handle errors occurring during the Watch loop.
// This allows applications to log or react to runtime watcher failures (e.g. permission denied)
// which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Mutations return core.ErrReadOnly.
// 2. Initialization (Mkdir) is skipped; the directory must exist.
// 3. Dev Safety (go run temp dir) is BYPASSED (uses real path).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true), the notes directory is re-rooted into a temporary directory
// to prevent accidental data loss.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithConfigFile loads settings from a JSONC file. Explicit options win over
// the file. Without it, <dir>/notepad.jsonc is read when present.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}
