package platform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// ConfigFileName is the config file looked up in the notes directory.
const ConfigFileName = "notepad.jsonc"

// ErrConfigInvalid is returned when a config file cannot be parsed.
var ErrConfigInvalid = errors.New("invalid config")

// FileConfig is the content of a notepad config file. Comments and trailing
// commas are allowed. Unset fields leave the defaults alone.
type FileConfig struct {
	Adapter      *string `json:"adapter,omitempty"`
	Format       *string `json:"format,omitempty"`
	Namespace    *string `json:"namespace,omitempty"`
	ReadOnly     *bool   `json:"read_only,omitempty"`
	Watch        *bool   `json:"watch,omitempty"`
	WatchPattern *string `json:"watch_pattern,omitempty"`
}

// LoadConfigFile reads and parses path. A missing file is not an error unless
// mustExist is set; loaded reports whether anything was read.
func LoadConfigFile(path string, mustExist bool) (cfg FileConfig, loaded bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err = ParseConfig(data)
	if err != nil {
		return FileConfig{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	return cfg, true, nil
}

// ParseConfig decodes JSONC config data.
func ParseConfig(data []byte) (FileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return FileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg FileConfig
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return FileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

// Options turns the file settings into options, to be applied before the
// caller's own.
func (c FileConfig) Options() []Option {
	var opts []Option
	if c.Adapter != nil {
		opts = append(opts, WithAdapter(*c.Adapter))
	}
	if c.Format != nil {
		opts = append(opts, WithFormat(*c.Format))
	}
	if c.Namespace != nil {
		opts = append(opts, WithNamespace(*c.Namespace))
	}
	if c.ReadOnly != nil {
		opts = append(opts, WithReadOnly(*c.ReadOnly))
	}
	if c.Watch != nil {
		opts = append(opts, WithWatch(*c.Watch))
	}
	if c.WatchPattern != nil {
		opts = append(opts, WithWatchPattern(*c.WatchPattern))
	}
	return opts
}

// resolveOptions applies opts on top of the config file settings.
func resolveOptions(uri string, opts []Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.repository != nil {
		return o, nil
	}

	path, mustExist := o.configFile, true
	if path == "" {
		if uri == "" {
			return o, nil
		}
		path, mustExist = filepath.Join(uri, ConfigFileName), false
	}

	cfg, loaded, err := LoadConfigFile(path, mustExist)
	if err != nil {
		return nil, err
	}
	if !loaded {
		return o, nil
	}

	merged := defaultOptions()
	for _, opt := range cfg.Options() {
		opt(merged)
	}
	for _, opt := range opts {
		opt(merged)
	}
	if merged.logger != nil {
		merged.logger.Debug("loaded config file", "path", path)
	}
	return merged, nil
}
