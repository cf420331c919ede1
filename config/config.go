package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/ridedispatch/core/dispatch"
	"github.com/kilianp07/ridedispatch/core/metrics"
	"github.com/kilianp07/ridedispatch/core/triplog"
	"github.com/kilianp07/ridedispatch/infra/mqtt"
)

// EnvPrefix prefixes environment overrides. Nested keys are separated by a
// double underscore, e.g. RD_DISPATCH__DEFER_UNMATCHED=true.
const EnvPrefix = "RD_"

type Config struct {
	Dispatch dispatch.Config `json:"dispatch"`
	Metrics  metrics.Config  `json:"metrics"`
	TripLog  triplog.Config  `json:"triplog"`
	MQTT     mqtt.Config     `json:"mqtt"`
	API      APIConfig       `json:"api"`
	Logging  LoggingConfig   `json:"logging"`
}

// Load reads the configuration file at path, applies environment overrides
// and defaults, and validates the result. An empty path loads defaults and
// environment overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	prefix := strings.ToLower(EnvPrefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), prefix)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Dispatch.SetDefaults()
	c.TripLog.SetDefaults()
	c.MQTT.SetDefaults()
	c.API.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	sections := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"dispatch", c.Dispatch},
		{"triplog", c.TripLog},
		{"mqtt", c.MQTT},
		{"api", c.API},
		{"logging", c.Logging},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("config %s: %w", s.name, err)
		}
	}
	return nil
}
