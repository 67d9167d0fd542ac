package repo

import (
	"fmt"
)

// Config holds the capacity ceiling of each entity store.
type Config struct {
	Users     int `toml:"users"`
	Campaigns int `toml:"campaigns"`
	Banners   int `toml:"banners"`
	Targeting int `toml:"targeting"`
	Interests int `toml:"interests"`
	Analytics int `toml:"analytics"`
	AdCopies  int `toml:"ad_copies"`
	Sessions  int `toml:"sessions"`
}

// DefaultConfig returns the stock capacities.
func DefaultConfig() Config {
	return Config{
		Users:     1000,
		Campaigns: 5000,
		Banners:   10000,
		Targeting: 5000,
		Interests: 1000,
		Analytics: 50000,
		AdCopies:  10000,
		Sessions:  1000,
	}
}

// Validate fills unset capacities with defaults and rejects negative ones.
func (c *Config) Validate() error {
	def := DefaultConfig()
	fields := []struct {
		name string
		val  *int
		def  int
	}{
		{"users", &c.Users, def.Users},
		{"campaigns", &c.Campaigns, def.Campaigns},
		{"banners", &c.Banners, def.Banners},
		{"targeting", &c.Targeting, def.Targeting},
		{"interests", &c.Interests, def.Interests},
		{"analytics", &c.Analytics, def.Analytics},
		{"ad_copies", &c.AdCopies, def.AdCopies},
		{"sessions", &c.Sessions, def.Sessions},
	}

	for _, f := range fields {
		if *f.val < 0 {
			return fmt.Errorf("%s capacity cannot be negative", f.name)
		}
		if *f.val == 0 {
			*f.val = f.def
		}
	}
	return nil
}
