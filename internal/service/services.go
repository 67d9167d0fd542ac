package service

import (
	"github.com/pkg/errors"

	"github.com/Zereker/adboard/internal/repo"
	"github.com/Zereker/adboard/pkg/mq"
)

// Config groups the configuration of every service.
type Config struct {
	Auth     AuthConfig
	Assets   AssetsConfig
	Campaign CampaignConfig
}

// Services is the application context handed to the API layers. Every
// service shares the same stores.
type Services struct {
	Stores    *repo.Stores
	Auth      *AuthService
	Campaigns *CampaignService
	Banners   *BannerService
	Analytics *AnalyticsService
	Samples   *SampleService
}

// NewServices builds all services over stores. Campaign events are published
// to topic; a nil publisher disables them.
func NewServices(cfg Config, stores *repo.Stores, publisher mq.Publisher, topic string) (*Services, error) {
	auth, err := NewAuthService(cfg.Auth, stores)
	if err != nil {
		return nil, err
	}

	campaigns, err := NewCampaignService(cfg.Campaign, stores, publisher, topic)
	if err != nil {
		return nil, err
	}

	banners, err := NewBannerService(cfg.Assets, stores)
	if err != nil {
		return nil, err
	}

	samples, err := NewSampleService(cfg.Assets, stores, nil)
	if err != nil {
		return nil, err
	}

	return &Services{
		Stores:    stores,
		Auth:      auth,
		Campaigns: campaigns,
		Banners:   banners,
		Analytics: NewAnalyticsService(stores, nil),
		Samples:   samples,
	}, nil
}

// Seed prepares startup data: the interest catalogue, the demo account when
// enabled, and mock analytics for any existing campaigns.
func (s *Services) Seed(seedDemoUser bool) error {
	if _, err := s.Samples.EnsureInterests(); err != nil {
		return errors.WithMessage(err, "seed interests")
	}
	if seedDemoUser {
		if _, err := s.Auth.EnsureDemoUser(); err != nil {
			return errors.WithMessage(err, "seed demo user")
		}
	}
	if _, err := s.Analytics.GenerateMock(); err != nil {
		return errors.WithMessage(err, "seed analytics")
	}
	return nil
}
