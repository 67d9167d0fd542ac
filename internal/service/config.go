package service

import (
	"fmt"
	"path/filepath"
	"time"
)

// AuthConfig configures password hashing and sessions.
type AuthConfig struct {
	HashIterations int    `toml:"hash_iterations"`
	SessionTimeout string `toml:"session_timeout"`
	SeedDemoUser   bool   `toml:"seed_demo_user"`

	sessionTimeout time.Duration
}

// Validate fills defaults and parses the session timeout.
func (c *AuthConfig) Validate() error {
	if c.HashIterations == 0 {
		c.HashIterations = DefaultHashIterations
	}
	if c.HashIterations < 1 {
		return fmt.Errorf("hash_iterations must be positive")
	}

	if c.SessionTimeout == "" {
		c.SessionTimeout = "60m"
	}
	d, err := time.ParseDuration(c.SessionTimeout)
	if err != nil {
		return fmt.Errorf("session_timeout is invalid: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("session_timeout must be positive")
	}
	c.sessionTimeout = d
	return nil
}

// AssetsConfig locates uploaded and sample files.
type AssetsConfig struct {
	Dir       string `toml:"dir"`        // filesystem root served under URLPrefix
	URLPrefix string `toml:"url_prefix"` // e.g. /assets
	MaxUpload int    `toml:"max_upload_kb"`
}

// Validate fills defaults.
func (c *AssetsConfig) Validate() error {
	if c.Dir == "" {
		c.Dir = "assets"
	}
	if c.URLPrefix == "" {
		c.URLPrefix = "/assets"
	}
	if c.MaxUpload == 0 {
		c.MaxUpload = MaxBannerSizeKB
	}
	if c.MaxUpload < 0 {
		return fmt.Errorf("max_upload_kb cannot be negative")
	}
	return nil
}

// UploadsDir is where banner uploads are written.
func (c AssetsConfig) UploadsDir() string {
	return filepath.Join(c.Dir, "uploads")
}

// SamplesDir is where sample placeholder files are written.
func (c AssetsConfig) SamplesDir() string {
	return filepath.Join(c.Dir, "samples")
}

// CampaignConfig limits campaign creation.
type CampaignConfig struct {
	MaxPerUser int `toml:"max_per_user"`
}

// Validate fills defaults.
func (c *CampaignConfig) Validate() error {
	if c.MaxPerUser == 0 {
		c.MaxPerUser = 100
	}
	if c.MaxPerUser < 0 {
		return fmt.Errorf("max_per_user cannot be negative")
	}
	return nil
}
