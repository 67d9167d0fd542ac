package service

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/pkg/errors"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/internal/repo"
	"github.com/Zereker/adboard/pkg/log"
	"github.com/Zereker/adboard/pkg/store"
)

// MockHistoryDays is how far back mock analytics reach; today is included.
const MockHistoryDays = 30

// CampaignPerformance is one campaign's summary for a period.
type CampaignPerformance struct {
	CampaignID string                `json:"campaign_id"`
	Name       string                `json:"name"`
	Status     domain.CampaignStatus `json:"status"`
	Metrics    domain.Metrics        `json:"metrics"`
}

// AnalyticsService aggregates daily campaign metrics.
type AnalyticsService struct {
	logger    *slog.Logger
	analytics repo.Analytics
	campaigns repo.Campaigns
	now       func() time.Time

	mu  sync.Mutex // guards rng and read-modify-write merges
	rng *rand.Rand
}

// NewAnalyticsService creates the analytics service. A nil rng uses a
// randomly seeded source.
func NewAnalyticsService(stores *repo.Stores, rng *rand.Rand) *AnalyticsService {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &AnalyticsService{
		logger:    log.Logger("analytics"),
		analytics: stores.Analytics,
		campaigns: stores.Campaigns,
		now:       time.Now,
		rng:       rng,
	}
}

// DefaultRange is the period used when a caller gives none.
func (s *AnalyticsService) DefaultRange() (civil.Date, civil.Date) {
	end := civil.DateOf(s.now().UTC())
	return end.AddDays(-MockHistoryDays), end
}

// Range converts a request range to days, falling back to DefaultRange for
// zero bounds.
func (s *AnalyticsService) Range(r domain.DateRange) (civil.Date, civil.Date) {
	start, end := s.DefaultRange()
	if !r.Start.IsZero() {
		start = civil.DateOf(r.Start.UTC())
	}
	if !r.End.IsZero() {
		end = civil.DateOf(r.End.UTC())
	}
	return start, end
}

// GenerateMock fills the analytics store with synthetic daily metrics for
// every campaign. Nothing is generated when the store already holds data.
// It returns the number of records added.
func (s *AnalyticsService) GenerateMock() (int, error) {
	if s.analytics.Count() > 0 {
		return 0, nil
	}
	campaigns := s.campaigns.List(nil)
	if len(campaigns) == 0 {
		return 0, nil
	}

	start, end := s.DefaultRange()

	s.mu.Lock()
	defer s.mu.Unlock()

	var added int
	for _, c := range campaigns {
		baseImpressions := 500 + s.rng.IntN(1501)
		baseCTR := s.uniform(1.5, 4.5)
		baseCost := s.uniform(50, 200)

		for day := start; !day.After(end); day = day.AddDays(1) {
			dayFactor := 1 + float64(day.DaysSince(start))/30*0.5
			weekendBoost := 1.0
			if wd := day.In(time.UTC).Weekday(); wd == time.Saturday || wd == time.Sunday {
				weekendBoost = 1.2
			}

			impressions := int(float64(baseImpressions) * dayFactor * weekendBoost * s.uniform(0.8, 1.2))
			ctr := baseCTR * s.uniform(0.9, 1.1)
			clicks := int(float64(impressions) * ctr / 100)
			cost := baseCost * dayFactor * s.uniform(0.9, 1.1)

			_, err := s.analytics.Add(domain.CampaignAnalytics{
				ID:         domain.NewID(),
				CampaignID: c.ID,
				Date:       day,
				Metrics: domain.Metrics{
					Impressions: impressions,
					Clicks:      clicks,
					CTRPct:      ctr,
					CostUSD:     round2(cost),
				},
			})
			if err != nil {
				return added, errors.WithMessage(err, "store mock analytics")
			}
			added++
		}
	}

	s.logger.Info("mock analytics generated", "campaigns", len(campaigns), "records", added)
	return added, nil
}

func (s *AnalyticsService) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// CampaignAnalytics returns a campaign's daily records in [start, end],
// ordered by date.
func (s *AnalyticsService) CampaignAnalytics(campaignID string, start, end civil.Date) []domain.CampaignAnalytics {
	records := s.analytics.GetByCampaignAndDateRange(campaignID, start, end)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records
}

// Summary totals a campaign's metrics over [start, end]. CTR is derived from
// the totals; an empty period yields zero metrics.
func (s *AnalyticsService) Summary(campaignID string, start, end civil.Date) domain.Metrics {
	return summarize(s.analytics.GetByCampaignAndDateRange(campaignID, start, end))
}

// AllPerformance summarises every campaign over [start, end].
func (s *AnalyticsService) AllPerformance(start, end civil.Date) []CampaignPerformance {
	return s.performance(s.campaigns.List(nil), start, end)
}

// UserPerformance summarises the campaigns of one user over [start, end].
func (s *AnalyticsService) UserPerformance(userID string, start, end civil.Date) []CampaignPerformance {
	return s.performance(s.campaigns.GetByUser(userID), start, end)
}

func (s *AnalyticsService) performance(campaigns []domain.Campaign, start, end civil.Date) []CampaignPerformance {
	out := make([]CampaignPerformance, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, CampaignPerformance{
			CampaignID: c.ID,
			Name:       c.Name,
			Status:     c.Status,
			Metrics:    s.Summary(c.ID, start, end),
		})
	}
	return out
}

// Merge adds an ad-server measurement to the campaign's daily record,
// creating the record on first sight. CTR is recomputed from the new totals.
func (s *AnalyticsService) Merge(event domain.MetricEvent) (domain.CampaignAnalytics, error) {
	if err := event.Validate(); err != nil {
		return domain.CampaignAnalytics{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	day := civil.DateOf(s.now().UTC())
	if event.Date != "" {
		d, err := civil.ParseDate(event.Date)
		if err != nil {
			return domain.CampaignAnalytics{}, &domain.ValidationError{Problems: []string{"date must be YYYY-MM-DD"}}
		}
		day = d
	}

	existing, ok := s.analytics.GetByCampaignAndDate(event.CampaignID, day)
	if !ok {
		return s.analytics.Add(domain.CampaignAnalytics{
			ID:         domain.NewID(),
			CampaignID: event.CampaignID,
			Date:       day,
			Metrics: withCTR(domain.Metrics{
				Impressions: event.Impressions,
				Clicks:      event.Clicks,
				CostUSD:     round2(event.CostUSD),
			}),
		})
	}

	m := existing.Metrics
	m.Impressions += event.Impressions
	m.Clicks += event.Clicks
	m.CostUSD = round2(m.CostUSD + event.CostUSD)

	updated, ok, err := s.analytics.Update(existing.ID, store.Patch{"metrics": withCTR(m)})
	if err != nil {
		return domain.CampaignAnalytics{}, errors.WithMessage(err, "update analytics")
	}
	if !ok {
		return domain.CampaignAnalytics{}, errors.WithMessagef(ErrNotFound, "analytics %s", existing.ID)
	}
	return updated, nil
}

func summarize(records []domain.CampaignAnalytics) domain.Metrics {
	var m domain.Metrics
	for _, r := range records {
		m.Impressions += r.Metrics.Impressions
		m.Clicks += r.Metrics.Clicks
		m.CostUSD += r.Metrics.CostUSD
	}
	m.CostUSD = round2(m.CostUSD)
	return withCTR(m)
}

func withCTR(m domain.Metrics) domain.Metrics {
	m.CTRPct = 0
	if m.Impressions > 0 {
		m.CTRPct = round2(float64(m.Clicks) / float64(m.Impressions) * 100)
	}
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
