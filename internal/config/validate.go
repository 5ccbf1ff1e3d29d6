package config

import "fmt"

// Validate checks invariants that are cheap to enforce at load time and
// expensive to debug if wrong (e.g. weights that don't sum sensibly).
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Risk.HitThreshold <= c.Risk.ReviewThreshold {
		return fmt.Errorf("risk.hit_threshold (%v) must exceed risk.review_threshold (%v)",
			c.Risk.HitThreshold, c.Risk.ReviewThreshold)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	return nil
}
