package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/adboard/internal/repo"
	"github.com/Zereker/adboard/pkg/genkit"
	"github.com/Zereker/adboard/pkg/mq"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(genkit.OpenRouterAPIKeyEnv, "")

	path := writeConfig(t, `
[server]
port = 8080

[log]
path = "logs"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Server.Mode)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "30s", cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, repo.DefaultConfig(), cfg.Store)
	assert.Equal(t, 100, cfg.Campaign.MaxPerUser)
	assert.Equal(t, "/assets", cfg.Assets.URLPrefix)
	assert.Equal(t, mq.DefaultEventsTopic, cfg.Kafka.EventsTopic)
	assert.Equal(t, 3, cfg.Generate.MaxAttempts)
	assert.False(t, cfg.Models.OpenRouter.Enabled())
}

func TestLoadConfig_Sections(t *testing.T) {
	t.Setenv(genkit.OpenRouterAPIKeyEnv, "env-key")

	path := writeConfig(t, `
[server]
mode = "both"
port = 9000
read_timeout = "5s"

[log]
path = "logs"
format = "json"

[genkit.openrouter]
models = [{ name = "gpt-3.5", model = "openai/gpt-3.5-turbo" }]

[store]
campaigns = 10

[campaign]
max_per_user = 3

[kafka]
enabled = true
brokers = ["localhost:9092"]

[metrics]
topic = "metrics-v2"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "both", cfg.Server.Mode)
	assert.Equal(t, "env-key", cfg.Models.OpenRouter.APIKey)
	assert.Len(t, cfg.Models.OpenRouter.Models, 1)
	assert.Equal(t, 10, cfg.Store.Campaigns)
	assert.Equal(t, repo.DefaultConfig().Users, cfg.Store.Users)
	assert.Equal(t, 3, cfg.Campaign.MaxPerUser)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, "metrics-v2", cfg.Metrics.Topic)

	read, write := cfg.Server.timeouts()
	assert.Equal(t, "5s", read.String())
	assert.Equal(t, "30s", write.String())
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Setenv(genkit.OpenRouterAPIKeyEnv, "")

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "bad mode",
			body:    "[server]\nmode = \"grpc\"\nport = 1\n[log]\npath = \"logs\"\n",
			wantErr: "validate config: server: invalid mode: grpc, must be http, mcp, or both",
		},
		{
			name:    "missing port",
			body:    "[log]\npath = \"logs\"\n",
			wantErr: "validate config: server: port is required and must be between 1 and 65535",
		},
		{
			name:    "missing log path",
			body:    "[server]\nport = 1\n",
			wantErr: "validate config: log: path is required",
		},
		{
			name:    "negative store capacity",
			body:    "[server]\nport = 1\n[log]\npath = \"logs\"\n[store]\nusers = -1\n",
			wantErr: "validate config: store: users capacity cannot be negative",
		},
		{
			name:    "kafka without brokers",
			body:    "[server]\nport = 1\n[log]\npath = \"logs\"\n[kafka]\nenabled = true\n",
			wantErr: "validate config: kafka: brokers is required when kafka is enabled",
		},
		{
			name:    "redis without addr",
			body:    "[server]\nport = 1\n[log]\npath = \"logs\"\n[redis]\nenabled = true\n",
			wantErr: "validate config: redis: addr is required when redis is enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorContains(t, err, "read config file")
}
