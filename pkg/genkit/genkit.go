package genkit

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/pkg/errors"
)

// ModelConfig holds configuration for a single chat model
type ModelConfig struct {
	Name  string `toml:"name"`  // Display name (e.g., "gpt-3.5")
	Model string `toml:"model"` // Vendor model identifier (e.g., "openai/gpt-3.5-turbo")
}

// Validate validates a model config
func (m *ModelConfig) Validate(index int) error {
	if m.Name == "" {
		return fmt.Errorf("models[%d].name is required", index)
	}
	if m.Model == "" {
		return fmt.Errorf("models[%d].model is required", index)
	}
	return nil
}

// Config holds genkit configuration
type Config struct {
	OpenRouter OpenRouterConfig `toml:"openrouter"`
	PromptDir  string           `toml:"prompt_dir"`
}

// Validate checks genkit configuration
func (c *Config) Validate() error {
	// PromptDir is optional - prompts are defined in Go code
	if err := c.OpenRouter.Validate(); err != nil {
		return fmt.Errorf("openrouter: %w", err)
	}
	return nil
}

// New creates a Genkit instance with every configured vendor registered.
// An OpenRouter config without an API key registers no models; callers are
// expected to check OpenRouterConfig.Enabled before generating.
func New(ctx context.Context, cfg Config) (*genkit.Genkit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid config")
	}

	var plugins []api.Plugin
	if cfg.OpenRouter.Enabled() {
		plugins = append(plugins, NewOpenRouterPlugin(cfg.OpenRouter))
	}

	return NewWithPlugins(ctx, plugins, cfg.PromptDir), nil
}

// NewWithPlugins creates a Genkit instance with custom plugins (for testing or custom setups)
func NewWithPlugins(ctx context.Context, plugins []api.Plugin, promptDir string) *genkit.Genkit {
	opts := []genkit.GenkitOption{genkit.WithPlugins(plugins...)}
	if promptDir != "" {
		opts = append(opts, genkit.WithPromptDir(promptDir))
	}
	return genkit.Init(ctx, opts...)
}

// NewForTest creates a Genkit instance backed by a mock plugin.
// Returns the mock plugin for configuring responses.
func NewForTest(ctx context.Context, cfg MockConfig) (*genkit.Genkit, *MockPlugin) {
	mockPlugin := NewMockPlugin(cfg)
	return NewWithPlugins(ctx, []api.Plugin{mockPlugin}, ""), mockPlugin
}
