package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/notepad/pkg/adapters/fs"
	"github.com/aretw0/notepad/pkg/adapters/memory"
	"github.com/aretw0/notepad/pkg/core"
)

// Init prepares the storage selected by opts and returns its repository.
// The 'uri' argument is adapter-specific (a directory for "fs").
func Init(uri string, opts ...Option) (core.Repository, error) {
	o, err := resolveOptions(uri, opts)
	if err != nil {
		return nil, err
	}
	return initRepository(uri, o)
}

func initRepository(uri string, o *options) (core.Repository, error) {
	// 1. Check for injected repository
	if o.repository != nil {
		return o.repository, nil
	}

	// 2. Initialize based on Adapter
	var repo core.Repository
	var err error

	switch o.adapter {
	case "fs":
		repo, err = initFS(uri, o)
	case "memory":
		repo = memory.NewRepository()
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if err != nil {
		return nil, err
	}

	// 3. Run Initialization
	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}

	return repo, nil
}

// initFS handles the initialization logic for the Filesystem adapter
func initFS(path string, o *options) (core.Repository, error) {
	tempDir, _ := o.config["temp_dir"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	format, _ := o.config["format"].(string)
	namespace, _ := o.config["namespace"].(string)
	watchPattern, _ := o.config["watch_pattern"].(string)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))
	isReadOnly, _ := o.config["read_only"].(bool)

	// Default to the sandbox unless dev_safety is explicitly disabled.
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	// Bypass Safety if:
	// 1. ReadOnly is active (inherently safe)
	// 2. User explicitly disabled DevSafety
	bypassSafety := isReadOnly || !devSafety

	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolvedPath := ResolveNotesPath(path, useTemp)

	if o.logger != nil && useTemp && resolvedPath != path {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolvedPath)
	}

	repo := fs.NewRepository(fs.Config{
		Path:         resolvedPath,
		Namespace:    namespace,
		Format:       format,
		MustExist:    mustExist,
		ReadOnly:     isReadOnly,
		Logger:       o.logger,
		WatchPattern: watchPattern,
		ErrorHandler: errorHandler,
	})

	// Register Custom Serializers
	for ext, s := range o.serializers {
		serializer, ok := s.(fs.Serializer)
		if !ok {
			return nil, fmt.Errorf("serializer for %s must implement fs.Serializer", ext)
		}
		repo.RegisterSerializer(ext, serializer)
	}

	return repo, nil
}
