package generate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/internal/repo"
	"github.com/Zereker/adboard/pkg/cache"
	pkggenkit "github.com/Zereker/adboard/pkg/genkit"
)

func TestRetry(t *testing.T) {
	t.Run("fails twice then succeeds", func(t *testing.T) {
		var calls, delays int
		r := Retry{Attempts: 3, Delay: time.Millisecond, OnRetry: func(int) { delays++ }}

		err := r.Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 2, delays)
	})

	t.Run("returns last failure", func(t *testing.T) {
		var calls, delays int
		r := Retry{Attempts: 3, Delay: time.Millisecond, OnRetry: func(int) { delays++ }}

		err := r.Do(context.Background(), func(context.Context) error {
			calls++
			return errors.New("attempt " + string(rune('0'+calls)))
		})

		assert.EqualError(t, err, "attempt 3")
		assert.Equal(t, 3, calls)
		assert.Equal(t, 2, delays)
	})

	t.Run("single attempt never delays", func(t *testing.T) {
		var delays int
		r := Retry{Attempts: 0, Delay: time.Hour, OnRetry: func(int) { delays++ }}

		err := r.Do(context.Background(), func(context.Context) error { return errors.New("x") })
		assert.Error(t, err)
		assert.Zero(t, delays)
	})

	t.Run("cancel aborts delay", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		r := Retry{Attempts: 3, Delay: time.Hour}

		err := r.Do(ctx, func(context.Context) error {
			cancel()
			return errors.New("x")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type fixture struct {
	gen    *Generator
	mock   *pkggenkit.MockPlugin
	stores *repo.Stores
	delays int
}

func newFixture(t *testing.T, withModel bool) *fixture {
	t.Helper()

	f := &fixture{stores: repo.NewStores(repo.DefaultConfig())}

	cfg := Config{RetryDelay: "1ms"}
	if withModel {
		g, mock := pkggenkit.NewForTest(context.Background(), pkggenkit.MockConfig{
			Provider: pkggenkit.OpenRouterProvider,
			Models:   []pkggenkit.ModelConfig{{Name: "gpt-3.5", Model: DefaultModel}},
		})
		f.mock = mock

		gen, err := New(g, cfg, f.stores.AdCopies, cache.NewMemoryCache(100))
		require.NoError(t, err)
		f.gen = gen
	} else {
		gen, err := New(nil, cfg, f.stores.AdCopies, nil)
		require.NoError(t, err)
		f.gen = gen
	}

	f.gen.retry.OnRetry = func(int) { f.delays++ }
	return f
}

func failingThen(failures int, text string) pkggenkit.ModelResponseFunc {
	calls := 0
	return func(ctx context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error) {
		calls++
		if calls <= failures {
			return nil, errors.New("upstream 503")
		}
		return &ai.ModelResponse{Request: req, Message: ai.NewModelTextMessage(text)}, nil
	}
}

var copyRequest = domain.AdCopyRequest{
	ProductName:    "Fitness App",
	TargetAudience: "Health Enthusiasts",
	KeyFeatures:    []string{"Personalized Workouts", "Progress Tracking"},
	Tone:           "Motivational",
}

func TestGenerator_Unavailable(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	assert.False(t, f.gen.Available())
	assert.Equal(t, "Campaign for Fitness App", f.gen.CampaignName(ctx, domain.CampaignNameRequest{
		ProductType:    "Fitness App",
		TargetAudience: "Health Enthusiasts",
	}))

	got := f.gen.AdCopy(ctx, "c1", copyRequest)
	assert.False(t, got.IsAIGenerated)
	assert.Equal(t, "Fitness App - Perfect for Health Enthusiasts", got.Headline)
	assert.Equal(t, FallbackDescription, got.Description)
	assert.Equal(t, FallbackCallToAction, got.CallToAction)
	assert.Equal(t, 0, f.stores.AdCopies.Count(), "default copy is not stored")
	assert.Zero(t, f.delays)
}

func TestGenerator_AdCopyRetriesThenStores(t *testing.T) {
	f := newFixture(t, true)
	f.mock.SetModelResponse(DefaultModel, failingThen(2,
		"```json\n{\"headline\":\"Transform Your Fitness Journey\",\"description\":\"Personalized workouts for all levels.\",\"call_to_action\":\"Download Now\"}\n```"))

	got := f.gen.AdCopy(context.Background(), "c1", copyRequest)

	assert.True(t, got.IsAIGenerated)
	assert.Equal(t, "Transform Your Fitness Journey", got.Headline)
	assert.Equal(t, "Download Now", got.CallToAction)
	assert.Equal(t, 2, f.delays)
	assert.Equal(t, 3, f.mock.Calls(DefaultModel))

	stored := f.stores.AdCopies.GetByCampaign("c1")
	require.Len(t, stored, 1)
	assert.Equal(t, got.ID, stored[0].ID)
}

func TestGenerator_AdCopyAllAttemptsFail(t *testing.T) {
	f := newFixture(t, true)
	f.mock.SetModelError(DefaultModel, errors.New("upstream 500"))

	got := f.gen.AdCopy(context.Background(), "c1", copyRequest)

	assert.False(t, got.IsAIGenerated)
	assert.Equal(t, FallbackHeadline("Fitness App", "Health Enthusiasts"), got.Headline)
	assert.Equal(t, 3, f.mock.Calls(DefaultModel))
	assert.Equal(t, 2, f.delays)
	assert.Zero(t, f.stores.AdCopies.Count())
}

func TestGenerator_AdCopyMissingFieldsDefault(t *testing.T) {
	f := newFixture(t, true)
	f.mock.SetModelJSONResponse(DefaultModel, map[string]string{"headline": "Only a headline"})

	got := f.gen.AdCopy(context.Background(), "c1", domain.AdCopyRequest{
		ProductName:    "Widget",
		TargetAudience: "Makers",
		KeyFeatures:    []string{"fast"},
	})

	assert.True(t, got.IsAIGenerated)
	assert.Equal(t, "Only a headline", got.Headline)
	assert.Equal(t, FallbackDescription, got.Description)
	assert.Equal(t, FallbackCallToAction, got.CallToAction)
}

func TestGenerator_CampaignNameCached(t *testing.T) {
	f := newFixture(t, true)
	f.mock.SetModelTextResponse(DefaultModel, "  \"Fitness Revolution\"\n")

	req := domain.CampaignNameRequest{ProductType: "Fitness App", TargetAudience: "Health Enthusiasts"}
	ctx := context.Background()

	assert.Equal(t, "Fitness Revolution", f.gen.CampaignName(ctx, req))
	assert.Equal(t, "Fitness Revolution", f.gen.CampaignName(ctx, req))
	assert.Equal(t, 1, f.mock.Calls(DefaultModel))

	// a different audience is a different cache entry
	f.gen.CampaignName(ctx, domain.CampaignNameRequest{ProductType: "Fitness App", TargetAudience: "Runners"})
	assert.Equal(t, 2, f.mock.Calls(DefaultModel))
}

func TestGenerator_CampaignNameFallback(t *testing.T) {
	f := newFixture(t, true)
	f.mock.SetModelTextResponse(DefaultModel, "   ")

	got := f.gen.CampaignName(context.Background(), domain.CampaignNameRequest{ProductType: "Shoes", TargetAudience: "Runners"})

	assert.Equal(t, "Campaign for Shoes", got)
	assert.Equal(t, 3, f.mock.Calls(DefaultModel))
}

func TestParseAdCopy(t *testing.T) {
	out, err := parseAdCopy(`Sure! {"headline":"H","description":"D","call_to_action":"C"} Enjoy.`)
	require.NoError(t, err)
	assert.Equal(t, adCopyOutput{Headline: "H", Description: "D", CallToAction: "C"}, out)

	_, err = parseAdCopy("no json here")
	assert.Error(t, err)

	_, err = parseAdCopy("{not json}")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "openrouter/openai/gpt-3.5-turbo", cfg.Model)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 15*time.Second, cfg.timeout)
	assert.Equal(t, 2*time.Second, cfg.retryDelay)
	assert.Equal(t, time.Hour, cfg.nameCacheTTL)

	bad := Config{RetryDelay: "soon"}
	assert.Error(t, bad.Validate())
}
