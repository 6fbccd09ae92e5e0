// Package config handles repository and global configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/matsen/weft/internal/geom"
)

// Config represents repository configuration stored in .weft/config.json.
// It holds the editing engine's tunables.
type Config struct {
	SnapDistance    float64   `json:"snap_distance"`
	ZoomSensitivity float64   `json:"zoom_sensitivity"`
	MinScale        float64   `json:"min_scale"`
	MaxScale        float64   `json:"max_scale"`
	HistorySize     int       `json:"history_size"`
	DedupeWindowMS  int       `json:"dedupe_window_ms"`
	DedupeLookback  int       `json:"dedupe_lookback"`
	Viewport        geom.Size `json:"viewport"`
	Catalog         string    `json:"catalog,omitempty"` // Path to a node catalog YAML file
}

const (
	WeftDir      = ".weft"
	ConfigFile   = "config.json"
	WorkflowFile = "workflow.json"
	HistoryFile  = "history.jsonl"
	SessionFile  = "session.json"
	CatalogFile  = "catalog.yml"
	CacheDir     = "cache"
	DBFile       = "weft.db"
)

// ErrUnknownKey is returned by Get and Set for a key Config does not have.
var ErrUnknownKey = errors.New("unknown config key")

// Default returns the stock engine settings.
func Default() *Config {
	return &Config{
		SnapDistance:    40,
		ZoomSensitivity: geom.ZoomSensitivity,
		MinScale:        geom.MinScale,
		MaxScale:        geom.MaxScale,
		HistorySize:     50,
		DedupeWindowMS:  100,
		DedupeLookback:  5,
		Viewport:        geom.Size{W: 1280, H: 800},
	}
}

// WeftPath returns the path to the .weft directory from a root path.
func WeftPath(root string) string {
	return filepath.Join(root, WeftDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, WeftDir, ConfigFile)
}

// WorkflowPath returns the path to workflow.json from a root path.
func WorkflowPath(root string) string {
	return filepath.Join(root, WeftDir, WorkflowFile)
}

// HistoryPath returns the path to history.jsonl from a root path.
func HistoryPath(root string) string {
	return filepath.Join(root, WeftDir, HistoryFile)
}

// SessionPath returns the path to session.json from a root path.
func SessionPath(root string) string {
	return filepath.Join(root, WeftDir, SessionFile)
}

// CatalogPath returns the path to the repository's catalog.yml.
func CatalogPath(root string) string {
	return filepath.Join(root, WeftDir, CatalogFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, WeftDir, CacheDir)
}

// DBPath returns the path to weft.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, WeftDir, CacheDir, DBFile)
}

// IsRepository checks if the given path contains a weft repository.
func IsRepository(root string) bool {
	info, err := os.Stat(WeftPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a weft repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a weft repository (no %s directory found)", WeftDir)
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root. Fields
// missing from the file keep their defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	switch {
	case c.SnapDistance <= 0:
		return fmt.Errorf("invalid snap_distance: %v (must be positive)", c.SnapDistance)
	case c.ZoomSensitivity <= 0 || c.ZoomSensitivity >= 1:
		return fmt.Errorf("invalid zoom_sensitivity: %v (must be in (0,1))", c.ZoomSensitivity)
	case c.MinScale <= 0 || c.MaxScale < c.MinScale:
		return fmt.Errorf("invalid scale bounds: [%v, %v]", c.MinScale, c.MaxScale)
	case c.HistorySize <= 0:
		return fmt.Errorf("invalid history_size: %d (must be positive)", c.HistorySize)
	case c.DedupeWindowMS < 0 || c.DedupeLookback < 0:
		return fmt.Errorf("invalid dedupe settings: window=%dms lookback=%d", c.DedupeWindowMS, c.DedupeLookback)
	}
	return nil
}

// ZoomLimits returns the scale bounds and wheel sensitivity.
func (c *Config) ZoomLimits() geom.ZoomLimits {
	return geom.ZoomLimits{Min: c.MinScale, Max: c.MaxScale, Sensitivity: c.ZoomSensitivity}
}

// DedupeWindow returns the history duplicate suppression window.
func (c *Config) DedupeWindow() time.Duration {
	return time.Duration(c.DedupeWindowMS) * time.Millisecond
}

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func floatField(p func(c *Config) *float64) field {
	return field{
		get: func(c *Config) string { return strconv.FormatFloat(*p(c), 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			*p(c) = f
			return nil
		},
	}
}

func intField(p func(c *Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*p(c) = n
			return nil
		},
	}
}

var fields = map[string]field{
	"snap_distance":    floatField(func(c *Config) *float64 { return &c.SnapDistance }),
	"zoom_sensitivity": floatField(func(c *Config) *float64 { return &c.ZoomSensitivity }),
	"min_scale":        floatField(func(c *Config) *float64 { return &c.MinScale }),
	"max_scale":        floatField(func(c *Config) *float64 { return &c.MaxScale }),
	"viewport_width":   floatField(func(c *Config) *float64 { return &c.Viewport.W }),
	"viewport_height":  floatField(func(c *Config) *float64 { return &c.Viewport.H }),
	"history_size":     intField(func(c *Config) *int { return &c.HistorySize }),
	"dedupe_window_ms": intField(func(c *Config) *int { return &c.DedupeWindowMS }),
	"dedupe_lookback":  intField(func(c *Config) *int { return &c.DedupeLookback }),
	"catalog": {
		get: func(c *Config) string { return c.Catalog },
		set: func(c *Config, v string) error { c.Catalog = v; return nil },
	},
}

// Keys lists the settable configuration keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a setting formatted as a string.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return f.get(c), nil
}

// Set parses value into the named setting and validates the result. On
// error c is unchanged.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	next := *c
	if err := f.set(&next, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
