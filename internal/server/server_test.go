package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/internal/service"
	"github.com/Zereker/adboard/pkg/genkit"
	"github.com/Zereker/adboard/pkg/mq"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	t.Setenv(genkit.OpenRouterAPIKeyEnv, "")

	dir := t.TempDir()
	console := false
	cfg := Config{}
	cfg.Server.Port = 8080
	cfg.Log.Path = filepath.Join(dir, "logs")
	cfg.Log.Console = &console
	cfg.Auth.HashIterations = 1000
	cfg.Auth.SeedDemoUser = true
	cfg.Assets.Dir = filepath.Join(dir, "assets")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewServer_Wiring(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown() })

	require.NotNil(t, srv.queue, "kafka disabled falls back to the in-memory queue")
	assert.Nil(t, srv.producer)
	assert.Nil(t, srv.redis)
	assert.False(t, srv.Generator().Available())

	services := srv.Services()
	assert.Equal(t, 16, services.Stores.Interests.Count())

	user, err := services.Auth.UserByUsername(service.DemoUsername)
	require.NoError(t, err)

	details, err := services.Samples.CreateSampleCampaign(user.ID)
	require.NoError(t, err)

	// campaign events go to the in-memory queue
	_, err = services.Campaigns.UpdateStatus(context.Background(), user.ID, details.Campaign.ID, "active")
	require.NoError(t, err)
	assert.Len(t, srv.queue.Messages(mq.DefaultEventsTopic), 1)

	// metrics published in-process reach analytics
	msg := `{"campaign_id":"` + details.Campaign.ID + `","date":"2024-05-01","impressions":10,"clicks":1,"cost_usd":0.5}`
	require.NoError(t, srv.queue.Publish(context.Background(), srv.consumer.Topic(), []byte(msg)))

	records := services.Stores.Analytics.GetByCampaign(details.Campaign.ID)
	require.Len(t, records, 1)
	assert.Equal(t, domain.Metrics{Impressions: 10, Clicks: 1, CTRPct: 10, CostUSD: 0.5}, records[0].Metrics)
}

func TestServer_HTTPConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.ReadTimeout = "5s"

	s := &Server{config: cfg}
	httpCfg := s.httpConfig()

	assert.Equal(t, "127.0.0.1", httpCfg.Host)
	assert.Equal(t, 8080, httpCfg.Port)
	assert.Equal(t, "5s", httpCfg.ReadTimeout.String())
	assert.Equal(t, cfg.Assets.Dir, httpCfg.AssetsDir)
	assert.Equal(t, "/assets", httpCfg.AssetsPrefix)
}

func TestServer_StartUnknownMode(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown() })

	srv.config.Server.Mode = "grpc"
	srv.consumer = nil
	assert.EqualError(t, srv.Start(), "unknown mode: grpc")
}
