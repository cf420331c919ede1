package config

import "fmt"

// APIConfig defines the HTTP API served by the serve command.
type APIConfig struct {
	Addr string `json:"addr"`
	// Token protects the trip log endpoint when set.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	return nil
}
