package generate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/openai/openai-go"
	"github.com/pkg/errors"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/internal/repo"
	"github.com/Zereker/adboard/pkg/cache"
	"github.com/Zereker/adboard/pkg/log"
)

// Fallback copy used whenever generation is unavailable or fails.
const (
	FallbackDescription  = "Check out our amazing product with its great features!"
	FallbackCallToAction = "Learn More"
)

// ErrUnavailable is reported when no model is registered for generation.
var ErrUnavailable = errors.New("text generation is not configured")

// FallbackName returns the default campaign name for a product.
func FallbackName(productType string) string {
	return "Campaign for " + productType
}

// FallbackHeadline returns the default ad headline.
func FallbackHeadline(product, audience string) string {
	return product + " - Perfect for " + audience
}

// Generator produces campaign names and ad copy through a genkit model.
// Remote failures are retried and then replaced by deterministic defaults,
// so callers always receive a usable value.
type Generator struct {
	logger   *slog.Logger
	g        *genkit.Genkit
	cfg      Config
	retry    Retry
	cache    cache.Cache
	adCopies repo.AdCopies
	now      func() time.Time
}

// New creates a generator. A nil genkit instance, or one without the
// configured model registered, makes every call return its default.
func New(g *genkit.Genkit, cfg Config, adCopies repo.AdCopies, c cache.Cache) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid generate config")
	}

	gen := &Generator{
		logger:   log.Logger("generate"),
		g:        g,
		cfg:      cfg,
		cache:    c,
		adCopies: adCopies,
		now:      time.Now,
	}
	gen.retry = Retry{
		Attempts: cfg.MaxAttempts,
		Delay:    cfg.retryDelay,
		OnRetry: func(retry int) {
			gen.logger.Warn("retrying generation", "retry", retry, "max_attempts", cfg.MaxAttempts)
		},
	}

	if !gen.Available() {
		gen.logger.Warn("model not registered, generation will use defaults", "model", cfg.Model)
	}

	return gen, nil
}

// Available reports whether a model is registered for generation.
func (g *Generator) Available() bool {
	return g.g != nil && genkit.LookupModel(g.g, g.cfg.Model) != nil
}

// CampaignName suggests a campaign name, falling back to
// "Campaign for <product>" when the model is unavailable or keeps failing.
// Successful names are cached by input.
func (g *Generator) CampaignName(ctx context.Context, req domain.CampaignNameRequest) string {
	name, err := g.campaignName(ctx, req)
	if err != nil {
		g.logger.Warn("failed to generate campaign name, using default",
			"product_type", req.ProductType,
			"error", err,
		)
		return FallbackName(req.ProductType)
	}
	return name
}

func (g *Generator) campaignName(ctx context.Context, req domain.CampaignNameRequest) (string, error) {
	if !g.Available() {
		return "", ErrUnavailable
	}

	key := cacheKey("name", req.ProductType, req.TargetAudience)
	if g.cache != nil {
		if name, err := g.cache.Get(ctx, key); err == nil {
			return name, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			g.logger.Warn("cache get failed", "error", err)
		}
	}

	var name string
	err := g.retry.Do(ctx, func(ctx context.Context) error {
		text, err := g.generate(ctx, nameSystemPrompt, namePrompt(req.ProductType, req.TargetAudience), 0.8, 50)
		if err != nil {
			return err
		}
		name = cleanName(text)
		if name == "" {
			return errors.New("empty campaign name")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	name = truncate(name, 100)
	if g.cache != nil {
		if err := g.cache.Set(ctx, key, name, g.cfg.nameCacheTTL); err != nil {
			g.logger.Warn("cache set failed", "error", err)
		}
	}
	return name, nil
}

// AdCopy generates ad copy for a campaign. AI copy is stored in the ad copy
// store; the default copy returned on failure is not.
func (g *Generator) AdCopy(ctx context.Context, campaignID string, req domain.AdCopyRequest) domain.AdCopy {
	if strings.TrimSpace(req.Tone) == "" {
		req.Tone = domain.DefaultTone
	}

	result, err := g.adCopy(ctx, campaignID, req)
	if err != nil {
		g.logger.Warn("failed to generate ad copy, using default",
			"campaign_id", campaignID,
			"error", err,
		)
		return domain.AdCopy{
			ID:            domain.NewID(),
			CampaignID:    campaignID,
			Headline:      truncate(FallbackHeadline(req.ProductName, req.TargetAudience), 100),
			Description:   FallbackDescription,
			CallToAction:  FallbackCallToAction,
			GeneratedAt:   g.now().UTC(),
			IsAIGenerated: false,
		}
	}
	return result
}

func (g *Generator) adCopy(ctx context.Context, campaignID string, req domain.AdCopyRequest) (domain.AdCopy, error) {
	if !g.Available() {
		return domain.AdCopy{}, ErrUnavailable
	}

	prompt := adCopyPrompt(req.ProductName, req.TargetAudience, req.KeyFeatures, req.Tone)

	var out adCopyOutput
	err := g.retry.Do(ctx, func(ctx context.Context) error {
		text, err := g.generate(ctx, adCopySystemPrompt, prompt, 0.7, 300)
		if err != nil {
			return err
		}
		out, err = parseAdCopy(text)
		return err
	})
	if err != nil {
		return domain.AdCopy{}, err
	}

	result := domain.AdCopy{
		ID:            domain.NewID(),
		CampaignID:    campaignID,
		Headline:      truncate(strings.TrimSpace(out.Headline), 100),
		Description:   truncate(strings.TrimSpace(out.Description), 500),
		CallToAction:  truncate(strings.TrimSpace(out.CallToAction), 50),
		GeneratedAt:   g.now().UTC(),
		IsAIGenerated: true,
	}
	if result.Headline == "" {
		result.Headline = truncate(FallbackHeadline(req.ProductName, req.TargetAudience), 100)
	}
	if result.Description == "" {
		result.Description = FallbackDescription
	}
	if result.CallToAction == "" {
		result.CallToAction = FallbackCallToAction
	}

	stored, err := g.adCopies.Add(result)
	if err != nil {
		return domain.AdCopy{}, errors.WithMessage(err, "store ad copy")
	}

	g.logger.Info("ad copy generated", "campaign_id", campaignID, "id", stored.ID)
	return stored, nil
}

// generate issues one model call bounded by the configured timeout.
func (g *Generator) generate(ctx context.Context, system, prompt string, temperature float64, maxTokens int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.timeout)
	defer cancel()

	resp, err := genkit.Generate(ctx, g.g,
		ai.WithModelName(g.cfg.Model),
		ai.WithSystem(system),
		ai.WithPrompt(prompt),
		ai.WithConfig(&openai.ChatCompletionNewParams{
			Temperature: openai.Float(temperature),
			MaxTokens:   openai.Int(maxTokens),
		}),
	)
	if err != nil {
		return "", errors.WithMessage(err, "generate")
	}
	if resp == nil {
		return "", errors.New("empty response")
	}

	if resp.Usage != nil {
		g.logger.Debug("llm response",
			"model", g.cfg.Model,
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
		)
	}

	return resp.Text(), nil
}

func cacheKey(kind string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
		h.Write([]byte{0})
	}
	return kind + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}
