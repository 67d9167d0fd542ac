package server

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Zereker/adboard/internal/generate"
	"github.com/Zereker/adboard/internal/repo"
	"github.com/Zereker/adboard/internal/service"
	"github.com/Zereker/adboard/pkg/genkit"
	"github.com/Zereker/adboard/pkg/log"
	"github.com/Zereker/adboard/pkg/mq"
	"github.com/Zereker/adboard/pkg/redis"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig           `toml:"server"`
	Log      log.Config             `toml:"log"`
	Models   genkit.Config          `toml:"genkit"`
	Generate generate.Config        `toml:"generate"`
	Store    repo.Config            `toml:"store"`
	Auth     service.AuthConfig     `toml:"auth"`
	Assets   service.AssetsConfig   `toml:"assets"`
	Campaign service.CampaignConfig `toml:"campaign"`
	Redis    redis.Config           `toml:"redis"`
	Kafka    mq.KafkaConfig         `toml:"kafka"`
	Metrics  MetricsConfig          `toml:"metrics"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	Mode         string `toml:"mode"` // http, mcp, or both
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	ReadTimeout  string `toml:"read_timeout"`
	WriteTimeout string `toml:"write_timeout"`
}

// MetricsConfig selects the topic ad-server metrics arrive on.
type MetricsConfig struct {
	Topic string `toml:"topic"`
}

// Validate checks server configuration
func (s *ServerConfig) Validate() error {
	if s.Mode == "" {
		s.Mode = "http" // default mode
	}
	switch s.Mode {
	case "http", "mcp", "both":
		// valid
	default:
		return fmt.Errorf("invalid mode: %s, must be http, mcp, or both", s.Mode)
	}
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port is required and must be between 1 and 65535")
	}
	if s.ReadTimeout == "" {
		s.ReadTimeout = "30s"
	}
	if s.WriteTimeout == "" {
		s.WriteTimeout = "30s"
	}
	if _, err := time.ParseDuration(s.ReadTimeout); err != nil {
		return fmt.Errorf("read_timeout is invalid: %w", err)
	}
	if _, err := time.ParseDuration(s.WriteTimeout); err != nil {
		return fmt.Errorf("write_timeout is invalid: %w", err)
	}
	return nil
}

func (s *ServerConfig) timeouts() (read, write time.Duration) {
	read, _ = time.ParseDuration(s.ReadTimeout)
	write, _ = time.ParseDuration(s.WriteTimeout)
	return read, write
}

// Validate checks all configuration fields
func (c *Config) Validate() error {
	c.Models.OpenRouter.ApplyEnv()

	validators := []struct {
		name string
		fn   func() error
	}{
		{"server", c.Server.Validate},
		{"log", c.Log.Validate},
		{"genkit", c.Models.Validate},
		{"generate", c.Generate.Validate},
		{"store", c.Store.Validate},
		{"auth", c.Auth.Validate},
		{"assets", c.Assets.Validate},
		{"campaign", c.Campaign.Validate},
		{"redis", c.Redis.Validate},
		{"kafka", c.Kafka.Validate},
	}
	for _, v := range validators {
		if err := v.fn(); err != nil {
			return fmt.Errorf("%s: %w", v.name, err)
		}
	}

	return nil
}

// LoadConfig reads and parses the configuration file
func LoadConfig(filename string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
