package config

import (
	"github.com/kilianp07/ridedispatch/core/logger"
)

// LoggingConfig defines the application log output.
type LoggingConfig struct {
	// Level is the minimum level written: debug, info, warn, error or disabled.
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level is known.
func (c LoggingConfig) Validate() error {
	_, err := logger.ParseLevel(c.Level)
	return err
}
