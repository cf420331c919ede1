package triplog

import (
	"fmt"

	"github.com/kilianp07/ridedispatch/core/factory"
)

// Config defines settings for trip log storage and rotation.
type Config struct {
	// Backend selects the store type: "none", "memory", "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB enables rotation of the jsonl backend when positive.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Path == "" {
		switch c.Backend {
		case "jsonl":
			c.Path = "trips.jsonl"
		case "sqlite":
			c.Path = "trips.db"
		}
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "none", "memory":
		return nil
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("triplog: path is required for %s", c.Backend)
		}
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownBackend, c.Backend)
	}
}

// Persistent reports whether the backend keeps records across processes.
func (c Config) Persistent() bool {
	return c.Backend == "jsonl" || c.Backend == "sqlite"
}

var storeRegistry = factory.NewRegistry[Store]()

func init() {
	_ = storeRegistry.Register("memory", func(map[string]any) (Store, error) {
		return NewMemoryStore(), nil
	})
	_ = storeRegistry.Register("jsonl", func(conf map[string]any) (Store, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
		}
		return NewJSONLStore(c.Path)
	})
	_ = storeRegistry.Register("sqlite", func(conf map[string]any) (Store, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}

// Open creates the store described by cfg. The "none" backend returns a nil
// Store and no error.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == "none" {
		return nil, nil
	}
	return storeRegistry.Create(factory.ModuleConfig{
		Type: cfg.Backend,
		Conf: map[string]any{
			"path":         cfg.Path,
			"max_size_mb":  cfg.MaxSizeMB,
			"max_backups":  cfg.MaxBackups,
			"max_age_days": cfg.MaxAgeDays,
		},
	})
}
