package generate

import (
	"fmt"
	"time"

	"github.com/Zereker/adboard/pkg/genkit"
)

// DefaultModel is the OpenRouter model used for every generation.
const DefaultModel = "openai/gpt-3.5-turbo"

// Config holds generation settings. Durations are Go duration strings.
type Config struct {
	Model        string `toml:"model"` // registered genkit model name
	Timeout      string `toml:"timeout"`
	MaxAttempts  int    `toml:"max_attempts"`
	RetryDelay   string `toml:"retry_delay"`
	NameCacheTTL string `toml:"name_cache_ttl"`

	timeout      time.Duration
	retryDelay   time.Duration
	nameCacheTTL time.Duration
}

// Validate fills defaults and parses durations.
func (c *Config) Validate() error {
	if c.Model == "" {
		c.Model = genkit.ModelName(DefaultModel)
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}

	durations := []struct {
		name string
		raw  *string
		def  string
		out  *time.Duration
	}{
		{"timeout", &c.Timeout, "15s", &c.timeout},
		{"retry_delay", &c.RetryDelay, "2s", &c.retryDelay},
		{"name_cache_ttl", &c.NameCacheTTL, "1h", &c.nameCacheTTL},
	}
	for _, d := range durations {
		if *d.raw == "" {
			*d.raw = d.def
		}
		v, err := time.ParseDuration(*d.raw)
		if err != nil {
			return fmt.Errorf("%s is invalid: %w", d.name, err)
		}
		if v < 0 {
			return fmt.Errorf("%s cannot be negative", d.name)
		}
		*d.out = v
	}
	return nil
}
