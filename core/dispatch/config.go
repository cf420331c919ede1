package dispatch

import "fmt"

// DefaultMaxPending bounds the deferred matching queue when unset.
const DefaultMaxPending = 64

// Config defines dispatch-related settings.
type Config struct {
	// DeferUnmatched keeps unmatched requests until a vehicle registers
	// instead of dropping them.
	DeferUnmatched bool `json:"defer_unmatched"`
	// MaxPending caps the deferred queue; the oldest request is dropped
	// when it is full.
	MaxPending int `json:"max_pending"`
	// MaxPickupDistance excludes vehicles farther than this from the
	// pickup. Zero means unlimited.
	MaxPickupDistance float64 `json:"max_pickup_distance"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.MaxPending == 0 {
		c.MaxPending = DefaultMaxPending
	}
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	if c.MaxPending < 0 {
		return fmt.Errorf("dispatch: max_pending must not be negative")
	}
	if c.MaxPickupDistance < 0 {
		return fmt.Errorf("dispatch: max_pickup_distance must not be negative")
	}
	return nil
}
