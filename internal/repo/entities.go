package repo

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/pkg/store"
)

// Users indexes accounts by username and email.
type Users struct {
	*store.Store[domain.User]
}

func (u Users) GetByUsername(username string) (domain.User, bool) {
	return First(u.Store, "username", username)
}

func (u Users) GetByEmail(email string) (domain.User, bool) {
	return First(u.Store, "email", email)
}

func (u Users) UsernameExists(username string) bool {
	_, ok := u.GetByUsername(username)
	return ok
}

func (u Users) EmailExists(email string) bool {
	_, ok := u.GetByEmail(email)
	return ok
}

// Campaigns indexes campaigns by creator and status.
type Campaigns struct {
	*store.Store[domain.Campaign]
}

func (c Campaigns) GetByUser(userID string) []domain.Campaign {
	return c.GetByIndex("created_by", userID)
}

func (c Campaigns) GetByStatus(status domain.CampaignStatus) []domain.Campaign {
	return c.GetByIndex("status", status)
}

func (c Campaigns) CountByUser(userID string) int {
	return len(c.GetByUser(userID))
}

func (c Campaigns) CountByStatus(status domain.CampaignStatus) int {
	return len(c.GetByStatus(status))
}

// Banners indexes banners by creator.
type Banners struct {
	*store.Store[domain.AdBanner]
}

func (b Banners) GetByUser(userID string) []domain.AdBanner {
	return b.GetByIndex("created_by", userID)
}

func (b Banners) CountByUser(userID string) int {
	return len(b.GetByUser(userID))
}

// Targeting holds audience targeting without secondary indices.
type Targeting struct {
	*store.Store[domain.AudienceTargeting]
}

// Interests indexes the interest catalogue by category.
type Interests struct {
	*store.Store[domain.Interest]
}

func (i Interests) GetByCategory(category string) []domain.Interest {
	return i.GetByIndex("category", category)
}

// Analytics indexes daily metrics by campaign and date.
type Analytics struct {
	*store.Store[domain.CampaignAnalytics]
}

func (a Analytics) GetByCampaign(campaignID string) []domain.CampaignAnalytics {
	return a.GetByIndex("campaign_id", campaignID)
}

func (a Analytics) GetByDate(date civil.Date) []domain.CampaignAnalytics {
	return a.GetByIndex("date", date)
}

// GetByCampaignAndDateRange returns the campaign's records whose date lies in
// [start, end]. The store has no range query, so the campaign bucket is
// filtered here.
func (a Analytics) GetByCampaignAndDateRange(campaignID string, start, end civil.Date) []domain.CampaignAnalytics {
	var out []domain.CampaignAnalytics
	for _, rec := range a.GetByCampaign(campaignID) {
		if rec.Date.Before(start) || rec.Date.After(end) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// GetByCampaignAndDate returns the single daily record of a campaign.
func (a Analytics) GetByCampaignAndDate(campaignID string, date civil.Date) (domain.CampaignAnalytics, bool) {
	for _, rec := range a.GetByDate(date) {
		if rec.CampaignID == campaignID {
			return rec, true
		}
	}
	return domain.CampaignAnalytics{}, false
}

// AdCopies indexes generated copy by campaign.
type AdCopies struct {
	*store.Store[domain.AdCopy]
}

func (c AdCopies) GetByCampaign(campaignID string) []domain.AdCopy {
	return c.GetByIndex("campaign_id", campaignID)
}

func (c AdCopies) CountByCampaign(campaignID string) int {
	return len(c.GetByCampaign(campaignID))
}

// Sessions indexes login sessions by user.
type Sessions struct {
	*store.Store[domain.Session]
}

func (s Sessions) GetByUser(userID string) []domain.Session {
	return s.GetByIndex("user_id", userID)
}

// PurgeExpired deletes sessions expired at now and returns how many went.
func (s Sessions) PurgeExpired(now time.Time) int {
	n := 0
	for _, sess := range s.List(nil) {
		if sess.Expired(now) && s.Delete(sess.Token) {
			n++
		}
	}
	return n
}
