package service

import (
	_ "embed"
	"log/slog"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/internal/repo"
	"github.com/Zereker/adboard/pkg/log"
)

//go:embed data/interests.yaml
var interestCatalogue []byte

// Sample campaign defaults.
const (
	SampleCampaignName   = "Sample Marketing Campaign"
	SampleBannerName     = "Sample Ad Banner"
	SampleBannerFile     = "sample_banner.txt"
	SampleBannerContent  = "This is a placeholder for a sample banner image."
	sampleCampaignDays   = 30
	sampleInterestsCount = 3
)

var sampleBudgets = []float64{100, 250, 500, 1000, 2000}

var sampleLocations = []domain.Location{
	{Country: "US", Region: "California", City: "San Francisco"},
	{Country: "US", Region: "New York", City: "New York City"},
}

type catalogue struct {
	Categories []struct {
		Name      string   `yaml:"name"`
		Interests []string `yaml:"interests"`
	} `yaml:"categories"`
}

// LoadInterestCatalogue parses the embedded interest catalogue.
func LoadInterestCatalogue() ([]domain.Interest, error) {
	var c catalogue
	if err := yaml.Unmarshal(interestCatalogue, &c); err != nil {
		return nil, errors.Wrap(err, "failed to parse interest catalogue")
	}

	var out []domain.Interest
	for _, cat := range c.Categories {
		for _, name := range cat.Interests {
			out = append(out, domain.Interest{ID: domain.NewID(), Name: name, Category: cat.Name})
		}
	}
	return out, nil
}

// SampleService seeds interests and creates sample campaigns.
type SampleService struct {
	logger *slog.Logger
	cfg    AssetsConfig
	stores *repo.Stores
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampleService creates the sample data service. A nil rng uses a
// randomly seeded source.
func NewSampleService(cfg AssetsConfig, stores *repo.Stores, rng *rand.Rand) (*SampleService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid assets config")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &SampleService{
		logger: log.Logger("sample"),
		cfg:    cfg,
		stores: stores,
		now:    time.Now,
		rng:    rng,
	}, nil
}

// EnsureInterests seeds the interest catalogue into an empty interest store
// and returns every interest.
func (s *SampleService) EnsureInterests() ([]domain.Interest, error) {
	if s.stores.Interests.Count() > 0 {
		return s.stores.Interests.List(nil), nil
	}

	interests, err := LoadInterestCatalogue()
	if err != nil {
		return nil, err
	}
	for _, i := range interests {
		if _, err := s.stores.Interests.Add(i); err != nil {
			return nil, errors.WithMessage(err, "store interest")
		}
	}

	s.logger.Info("interests seeded", "count", len(interests))
	return s.stores.Interests.List(nil), nil
}

// EnsureSampleBanner writes the placeholder banner file if missing and
// returns its URL.
func (s *SampleService) EnsureSampleBanner() (string, error) {
	dir := s.cfg.SamplesDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create samples directory")
	}

	file := filepath.Join(dir, SampleBannerFile)
	if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(file, []byte(SampleBannerContent), 0o644); err != nil {
			return "", errors.Wrap(err, "failed to write sample banner")
		}
	} else if err != nil {
		return "", errors.Wrap(err, "failed to stat sample banner")
	}

	return path.Join(s.cfg.URLPrefix, "samples", SampleBannerFile), nil
}

// CreateSampleCampaign creates a draft campaign with a sample banner,
// targeting with random interests, a start date 1 to 30 days ahead, an
// optional 30 day end date and a random budget.
func (s *SampleService) CreateSampleCampaign(userID string) (domain.CampaignDetails, error) {
	interests, err := s.EnsureInterests()
	if err != nil {
		return domain.CampaignDetails{}, err
	}
	bannerURL, err := s.EnsureSampleBanner()
	if err != nil {
		return domain.CampaignDetails{}, err
	}

	now := s.now().UTC()

	banner, err := s.stores.Banners.Add(domain.AdBanner{
		ID:        domain.NewID(),
		Name:      SampleBannerName,
		ImageURL:  bannerURL,
		WidthPx:   728,
		HeightPx:  90,
		CreatedAt: now,
		CreatedBy: userID,
	})
	if err != nil {
		return domain.CampaignDetails{}, errors.WithMessage(err, "store sample banner")
	}

	s.mu.Lock()
	picked := s.pickInterests(interests, sampleInterestsCount)
	start := now.AddDate(0, 0, 1+s.rng.IntN(30))
	var end *time.Time
	if s.rng.IntN(2) == 0 {
		e := start.AddDate(0, 0, sampleCampaignDays)
		end = &e
	}
	budget := sampleBudgets[s.rng.IntN(len(sampleBudgets))]
	s.mu.Unlock()

	targeting, err := s.stores.Targeting.Add(domain.AudienceTargeting{
		ID:        domain.NewID(),
		AgeRange:  domain.AgeRange{MinAge: 18, MaxAge: 35},
		Locations: append([]domain.Location(nil), sampleLocations...),
		Interests: picked,
	})
	if err != nil {
		return domain.CampaignDetails{}, errors.WithMessage(err, "store sample targeting")
	}

	campaign, err := s.stores.Campaigns.Add(domain.Campaign{
		ID:          domain.NewID(),
		Name:        SampleCampaignName,
		BannerID:    banner.ID,
		TargetingID: targeting.ID,
		Status:      domain.StatusDraft,
		BudgetUSD:   budget,
		StartDate:   start,
		EndDate:     end,
		CreatedAt:   now,
		CreatedBy:   userID,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.CampaignDetails{}, errors.WithMessage(err, "store sample campaign")
	}

	s.logger.Info("sample campaign created", "campaign_id", campaign.ID, "user_id", userID)
	return domain.CampaignDetails{Campaign: campaign, Banner: &banner, Targeting: &targeting}, nil
}

func (s *SampleService) pickInterests(interests []domain.Interest, n int) []string {
	ids := make([]string, len(interests))
	for i, in := range interests {
		ids[i] = in.ID
	}
	s.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids[:min(n, len(ids))]
}
