package genkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// ModelResponseFunc produces a mock model response.
type ModelResponseFunc func(ctx context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error)

// MockConfig holds mock plugin configuration
type MockConfig struct {
	Provider string // Provider prefix (default: "mock"). Use "openrouter" to match real model names.
	Models   []ModelConfig
}

// MockPlugin implements a test-only genkit plugin with configurable responses
type MockPlugin struct {
	mu sync.RWMutex

	// provider prefix for model names
	provider string
	// modelResponses maps model id to response function
	modelResponses map[string]ModelResponseFunc
	// calls counts requests per model id
	calls map[string]int

	// models to register
	models []ModelConfig
}

// NewMockPlugin creates a new mock plugin for testing
func NewMockPlugin(cfg MockConfig) *MockPlugin {
	provider := cfg.Provider
	if provider == "" {
		provider = "mock"
	}
	return &MockPlugin{
		provider:       provider,
		models:         cfg.Models,
		modelResponses: make(map[string]ModelResponseFunc),
		calls:          make(map[string]int),
	}
}

// Name returns the plugin name
func (p *MockPlugin) Name() string {
	return "mock"
}

// Init implements api.Plugin interface - registers all mock models
func (p *MockPlugin) Init(ctx context.Context) []api.Action {
	actions := make([]api.Action, 0, len(p.models))
	for _, m := range p.models {
		model := p.defineModel(m)
		actions = append(actions, model.(api.Action))
	}
	return actions
}

// defineModel creates a mock model
func (p *MockPlugin) defineModel(m ModelConfig) ai.Model {
	name := fmt.Sprintf("%s/%s", p.provider, m.Model)
	return ai.NewModel(name, &ai.ModelOptions{
		Label: fmt.Sprintf("Mock %s", m.Name),
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			SystemRole: true,
		},
	}, func(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
		p.mu.Lock()
		p.calls[m.Model]++
		fn, ok := p.modelResponses[m.Model]
		p.mu.Unlock()

		if ok && fn != nil {
			return fn(ctx, req)
		}

		// Default: echo the last user message
		textResponse := ""
		for _, msg := range req.Messages {
			if msg.Role == ai.RoleUser {
				textResponse = msg.Text()
			}
		}

		return textResponseOf(req, textResponse), nil
	})
}

// ModelName returns the registered name of a mock model id.
func (p *MockPlugin) ModelName(model string) string {
	return p.provider + "/" + model
}

// Calls returns how many requests a model has served.
func (p *MockPlugin) Calls(model string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.calls[model]
}

// SetModelResponse sets a custom response function for a model
func (p *MockPlugin) SetModelResponse(model string, fn ModelResponseFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.modelResponses[model] = fn
}

// SetModelTextResponse is a helper to set a fixed text response
func (p *MockPlugin) SetModelTextResponse(model, text string) {
	p.SetModelResponse(model, func(ctx context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error) {
		return textResponseOf(req, text), nil
	})
}

// SetModelJSONResponse is a helper to set a model response that returns structured JSON
func (p *MockPlugin) SetModelJSONResponse(model string, response any) {
	p.SetModelResponse(model, func(ctx context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error) {
		data, err := json.Marshal(response)
		if err != nil {
			return nil, err
		}
		return textResponseOf(req, string(data)), nil
	})
}

// SetModelError makes every request to the model fail with err
func (p *MockPlugin) SetModelError(model string, err error) {
	p.SetModelResponse(model, func(ctx context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error) {
		return nil, err
	})
}

func textResponseOf(req *ai.ModelRequest, text string) *ai.ModelResponse {
	return &ai.ModelResponse{
		Request: req,
		Message: ai.NewModelTextMessage(text),
		Usage: &ai.GenerationUsage{
			InputTokens:  10,
			OutputTokens: 5,
		},
	}
}

// DefaultMockConfig returns a default mock config for testing
func DefaultMockConfig() MockConfig {
	return MockConfig{
		Models: []ModelConfig{
			{Name: "test-llm", Model: "test-llm"},
		},
	}
}
