package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/internal/repo"
	"github.com/Zereker/adboard/pkg/log"
	"github.com/Zereker/adboard/pkg/mq"
	"github.com/Zereker/adboard/pkg/store"
)

// CampaignService runs the campaign creation flow and campaign management.
type CampaignService struct {
	logger    *slog.Logger
	cfg       CampaignConfig
	stores    *repo.Stores
	publisher mq.Publisher
	topic     string
	now       func() time.Time

	// mu makes the per-user limit check and the insert atomic
	mu sync.Mutex
}

// NewCampaignService creates the campaign service. Lifecycle events go to
// topic through publisher; a nil publisher disables events.
func NewCampaignService(cfg CampaignConfig, stores *repo.Stores, publisher mq.Publisher, topic string) (*CampaignService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid campaign config")
	}
	return &CampaignService{
		logger:    log.Logger("campaign"),
		cfg:       cfg,
		stores:    stores,
		publisher: publisher,
		topic:     topic,
		now:       time.Now,
	}, nil
}

// Create stores the banner, then the targeting, then the campaign that
// references both. The campaign starts as a draft.
func (s *CampaignService) Create(ctx context.Context, userID string, req domain.CreateCampaignRequest) (domain.CampaignDetails, error) {
	now := s.now().UTC()
	if err := req.Validate(now); err != nil {
		return domain.CampaignDetails{}, err
	}
	details, err := s.insert(userID, req, now)
	if err != nil {
		return domain.CampaignDetails{}, err
	}

	s.logger.Info("campaign created", "campaign_id", details.Campaign.ID, "user_id", userID)
	s.publish(ctx, domain.EventCampaignCreated, details.Campaign)

	return details, nil
}

// insert enforces the per-user limit and stores the three records.
func (s *CampaignService) insert(userID string, req domain.CreateCampaignRequest, now time.Time) (domain.CampaignDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.MaxPerUser > 0 && s.stores.Campaigns.CountByUser(userID) >= s.cfg.MaxPerUser {
		return domain.CampaignDetails{}, errors.WithMessagef(ErrLimitReached, "at most %d campaigns per user", s.cfg.MaxPerUser)
	}

	banner, err := s.stores.Banners.Add(domain.AdBanner{
		ID:        domain.NewID(),
		Name:      req.Banner.Name,
		ImageURL:  req.Banner.ImageURL,
		WidthPx:   req.Banner.WidthPx,
		HeightPx:  req.Banner.HeightPx,
		CreatedAt: now,
		CreatedBy: userID,
	})
	if err != nil {
		return domain.CampaignDetails{}, errors.WithMessage(err, "store banner")
	}

	targeting, err := s.stores.Targeting.Add(domain.AudienceTargeting{
		ID:        domain.NewID(),
		AgeRange:  req.Targeting.AgeRange,
		Locations: req.Targeting.Locations,
		Interests: req.Targeting.Interests,
	})
	if err != nil {
		return domain.CampaignDetails{}, errors.WithMessage(err, "store targeting")
	}

	campaign, err := s.stores.Campaigns.Add(domain.Campaign{
		ID:          domain.NewID(),
		Name:        req.Details.Name,
		BannerID:    banner.ID,
		TargetingID: targeting.ID,
		Status:      domain.StatusDraft,
		BudgetUSD:   req.Details.BudgetUSD,
		StartDate:   req.Details.StartDate,
		EndDate:     req.Details.EndDate,
		CreatedAt:   now,
		CreatedBy:   userID,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.CampaignDetails{}, errors.WithMessage(err, "store campaign")
	}

	return domain.CampaignDetails{Campaign: campaign, Banner: &banner, Targeting: &targeting}, nil
}

// Get returns a campaign owned by userID. Campaigns of other users are
// reported as not found. An empty userID skips the ownership check.
func (s *CampaignService) Get(userID, campaignID string) (domain.Campaign, error) {
	c, ok := s.stores.Campaigns.Get(campaignID)
	if !ok || (userID != "" && c.CreatedBy != userID) {
		return domain.Campaign{}, errors.WithMessagef(ErrNotFound, "campaign %s", campaignID)
	}
	return c, nil
}

// Details returns a campaign with its banner and targeting. References that
// no longer resolve are left nil.
func (s *CampaignService) Details(userID, campaignID string) (domain.CampaignDetails, error) {
	c, err := s.Get(userID, campaignID)
	if err != nil {
		return domain.CampaignDetails{}, err
	}

	details := domain.CampaignDetails{Campaign: c}
	if b, ok := s.stores.Banners.Get(c.BannerID); ok {
		details.Banner = &b
	}
	if t, ok := s.stores.Targeting.Get(c.TargetingID); ok {
		details.Targeting = &t
	}
	return details, nil
}

// UpdateStatus moves a campaign to a new status.
func (s *CampaignService) UpdateStatus(ctx context.Context, userID, campaignID, status string) (domain.Campaign, error) {
	next, ok := domain.ParseCampaignStatus(status)
	if !ok {
		return domain.Campaign{}, &domain.ValidationError{Problems: []string{"unknown status " + status}}
	}
	if _, err := s.Get(userID, campaignID); err != nil {
		return domain.Campaign{}, err
	}

	c, ok, err := s.stores.Campaigns.Update(campaignID, store.Patch{
		"status":     next,
		"updated_at": s.now().UTC(),
	})
	if err != nil {
		return domain.Campaign{}, errors.WithMessage(err, "update campaign")
	}
	if !ok {
		return domain.Campaign{}, errors.WithMessagef(ErrNotFound, "campaign %s", campaignID)
	}

	s.logger.Info("campaign status changed", "campaign_id", campaignID, "status", next)
	s.publish(ctx, domain.EventCampaignStatusChanged, c)
	return c, nil
}

// Delete removes the campaign only. Its banner, targeting, analytics and ad
// copy stay in their stores.
func (s *CampaignService) Delete(ctx context.Context, userID, campaignID string) error {
	c, err := s.Get(userID, campaignID)
	if err != nil {
		return err
	}
	if !s.stores.Campaigns.Delete(campaignID) {
		return errors.WithMessagef(ErrNotFound, "campaign %s", campaignID)
	}

	s.logger.Info("campaign deleted", "campaign_id", campaignID)
	s.publish(ctx, domain.EventCampaignDeleted, c)
	return nil
}

// ListForUser returns a user's campaigns filtered by status and sorted.
// Without a sort order the newest campaigns come first.
func (s *CampaignService) ListForUser(userID string, q domain.ListCampaignsQuery) []domain.Campaign {
	var campaigns []domain.Campaign
	if len(q.Statuses) == 1 {
		campaigns = s.stores.Campaigns.List(store.Filter{"created_by": userID, "status": q.Statuses[0]})
	} else {
		campaigns = s.stores.Campaigns.GetByUser(userID)
		if len(q.Statuses) > 1 {
			campaigns = slices.DeleteFunc(campaigns, func(c domain.Campaign) bool {
				return !slices.Contains(q.Statuses, c.Status)
			})
		}
	}

	sortCampaigns(campaigns, q.Sort)
	return campaigns
}

// ListAll returns every campaign in insertion order.
func (s *CampaignService) ListAll() []domain.Campaign {
	return s.stores.Campaigns.List(nil)
}

func sortCampaigns(campaigns []domain.Campaign, order string) {
	var less func(a, b domain.Campaign) bool
	switch order {
	case domain.SortOldest:
		less = func(a, b domain.Campaign) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case domain.SortBudgetDesc:
		less = func(a, b domain.Campaign) bool { return a.BudgetUSD > b.BudgetUSD }
	case domain.SortBudgetAsc:
		less = func(a, b domain.Campaign) bool { return a.BudgetUSD < b.BudgetUSD }
	default:
		less = func(a, b domain.Campaign) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(campaigns, func(i, j int) bool { return less(campaigns[i], campaigns[j]) })
}

// publish sends a lifecycle event. Failures are logged and never fail the
// operation that triggered them.
func (s *CampaignService) publish(ctx context.Context, eventType string, c domain.Campaign) {
	if s.publisher == nil {
		return
	}

	data, err := json.Marshal(domain.CampaignEvent{
		Type:       eventType,
		CampaignID: c.ID,
		UserID:     c.CreatedBy,
		Status:     c.Status,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to encode event", "type", eventType, "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, s.topic, data); err != nil {
		s.logger.Warn("failed to publish event", "type", eventType, "campaign_id", c.ID, "error", err)
	}
}
