package genkit

import (
	"context"
	"fmt"
	"os"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/plugins/compat_oai"
	"github.com/openai/openai-go/option"
)

const (
	// OpenRouterProvider prefixes every registered OpenRouter model name.
	OpenRouterProvider = "openrouter"
	// OpenRouterAPIKeyEnv overrides the configured API key when set.
	OpenRouterAPIKeyEnv = "OPENROUTER_API_KEY"

	defaultOpenRouterURL = "https://openrouter.ai/api/v1"
)

// OpenRouterConfig holds configuration for the OpenRouter vendor
type OpenRouterConfig struct {
	APIKey  string        `toml:"api_key"`
	BaseURL string        `toml:"base_url"`
	Referer string        `toml:"referer"` // sent as HTTP-Referer for OpenRouter rankings
	Title   string        `toml:"title"`   // sent as X-Title
	Models  []ModelConfig `toml:"models"`
}

// ApplyEnv fills the API key from the environment when present.
func (c *OpenRouterConfig) ApplyEnv() {
	if key := os.Getenv(OpenRouterAPIKeyEnv); key != "" {
		c.APIKey = key
	}
}

// Enabled reports whether an API key is configured.
func (c *OpenRouterConfig) Enabled() bool {
	return c.APIKey != ""
}

// Validate checks OpenRouter configuration
func (c *OpenRouterConfig) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = defaultOpenRouterURL
	}
	if !c.Enabled() {
		return nil
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model is required")
	}
	for i := range c.Models {
		if err := c.Models[i].Validate(i); err != nil {
			return err
		}
	}
	return nil
}

// OpenRouterPlugin implements Genkit plugin for OpenRouter's OpenAI compatible API
type OpenRouterPlugin struct {
	compat_oai.OpenAICompatible
	models []ModelConfig
}

// NewOpenRouterPlugin creates a new OpenRouter plugin for Genkit
func NewOpenRouterPlugin(cfg OpenRouterConfig) *OpenRouterPlugin {
	opts := []option.RequestOption{
		option.WithHeader("Content-Type", "application/json"),
	}
	if cfg.Referer != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.Referer))
	}
	if cfg.Title != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.Title))
	}

	return &OpenRouterPlugin{
		OpenAICompatible: compat_oai.OpenAICompatible{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Provider: OpenRouterProvider,
			Opts:     opts,
		},
		models: cfg.Models,
	}
}

// Name returns the plugin name
func (p *OpenRouterPlugin) Name() string {
	return OpenRouterProvider
}

// Init implements api.Plugin interface - registers all OpenRouter models
func (p *OpenRouterPlugin) Init(ctx context.Context) []api.Action {
	// Initialize the base OpenAI compatible client first
	p.OpenAICompatible.Init(ctx)

	actions := make([]api.Action, 0, len(p.models))
	for _, m := range p.models {
		model := p.DefineModel(p.Provider, m.Model, ai.ModelOptions{
			Label: fmt.Sprintf("OpenRouter %s", m.Name),
			Supports: &ai.ModelSupports{
				Multiturn:  true,
				SystemRole: true,
			},
		})
		actions = append(actions, model.(api.Action))
	}

	return actions
}

// ModelName returns the registered name of an OpenRouter model id.
func ModelName(model string) string {
	return OpenRouterProvider + "/" + model
}
