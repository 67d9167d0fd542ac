package repo

import (
	"log/slog"
	"reflect"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/pkg/log"
	"github.com/Zereker/adboard/pkg/store"
)

// Stores is the application's set of entity stores. It is built once at
// startup and handed to every service explicitly.
type Stores struct {
	Users     Users
	Campaigns Campaigns
	Banners   Banners
	Targeting Targeting
	Interests Interests
	Analytics Analytics
	AdCopies  AdCopies
	Sessions  Sessions
}

// NewStores creates every entity store with its indices and capacity.
func NewStores(cfg Config) *Stores {
	logger := log.Logger("repo")

	common := func(name string, max int, indexes ...string) []store.Option {
		return []store.Option{
			store.WithName(name),
			store.WithMaxItems(max),
			store.WithIndexes(indexes...),
			store.WithLogger(logger),
		}
	}

	return &Stores{
		Users:     Users{store.New[domain.User](common("users", cfg.Users, "username", "email")...)},
		Campaigns: Campaigns{store.New[domain.Campaign](common("campaigns", cfg.Campaigns, "created_by", "status")...)},
		Banners:   Banners{store.New[domain.AdBanner](common("banners", cfg.Banners, "created_by")...)},
		Targeting: Targeting{store.New[domain.AudienceTargeting](common("targeting", cfg.Targeting)...)},
		Interests: Interests{store.New[domain.Interest](common("interests", cfg.Interests, "category")...)},
		Analytics: Analytics{store.New[domain.CampaignAnalytics](
			append(common("analytics", cfg.Analytics, "campaign_id", "date"),
				store.WithDecodeHooks(civilDateHook))...,
		)},
		AdCopies: AdCopies{store.New[domain.AdCopy](common("ad_copies", cfg.AdCopies, "campaign_id")...)},
		Sessions: Sessions{store.New[domain.Session](
			append(common("sessions", cfg.Sessions, "user_id"),
				store.WithKeyField("token"))...,
		)},
	}
}

// Clear empties every store.
func (s *Stores) Clear() {
	s.Users.Clear()
	s.Campaigns.Clear()
	s.Banners.Clear()
	s.Targeting.Clear()
	s.Interests.Clear()
	s.Analytics.Clear()
	s.AdCopies.Clear()
	s.Sessions.Clear()
}

// Counts reports the number of records per store.
func (s *Stores) Counts() map[string]int {
	return map[string]int{
		s.Users.Name():     s.Users.Count(),
		s.Campaigns.Name(): s.Campaigns.Count(),
		s.Banners.Name():   s.Banners.Count(),
		s.Targeting.Name(): s.Targeting.Count(),
		s.Interests.Name(): s.Interests.Count(),
		s.Analytics.Name(): s.Analytics.Count(),
		s.AdCopies.Name():  s.AdCopies.Count(),
		s.Sessions.Name():  s.Sessions.Count(),
	}
}

// LogCounts writes the per-store record counts at debug level.
func (s *Stores) LogCounts(logger *slog.Logger) {
	args := make([]any, 0, 16)
	for name, n := range s.Counts() {
		args = append(args, name, n)
	}
	logger.Debug("store counts", args...)
}

// First returns the first record of the index bucket for value.
func First[T store.Record](s *store.Store[T], field string, value any) (T, bool) {
	recs := s.GetByIndex(field, value)
	if len(recs) == 0 {
		var zero T
		return zero, false
	}
	return recs[0], true
}

// civilDateHook handles string/time.Time -> civil.Date
func civilDateHook(_, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(civil.Date{}) {
		return data, nil
	}

	switch v := data.(type) {
	case string:
		return civil.ParseDate(v)
	case time.Time:
		return civil.DateOf(v), nil
	}
	return data, nil
}
