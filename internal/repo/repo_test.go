package repo

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/pkg/store"
)

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Users: 5}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.Users)
	assert.Equal(t, DefaultConfig().Analytics, cfg.Analytics)

	bad := Config{Sessions: -1}
	assert.EqualError(t, bad.Validate(), "sessions capacity cannot be negative")
}

func TestNewStores(t *testing.T) {
	s := NewStores(DefaultConfig())

	assert.Equal(t, []string{"username", "email"}, s.Users.Indexes())
	assert.Equal(t, []string{"created_by", "status"}, s.Campaigns.Indexes())
	assert.Equal(t, []string{"campaign_id", "date"}, s.Analytics.Indexes())
	assert.Empty(t, s.Targeting.Indexes())
	assert.Equal(t, 50000, s.Analytics.MaxItems())
	assert.Equal(t, 1000, s.Sessions.MaxItems())
}

func TestAnalyticsDatePatch(t *testing.T) {
	s := NewStores(DefaultConfig())

	_, err := s.Analytics.Add(domain.CampaignAnalytics{
		ID:         "a1",
		CampaignID: "c1",
		Date:       civil.Date{Year: 2024, Month: time.May, Day: 1},
	})
	require.NoError(t, err)

	got, ok, err := s.Analytics.Update("a1", store.Patch{"date": "2024-05-02"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.May, Day: 2}, got.Date)

	assert.Empty(t, s.Analytics.GetByIndex("date", civil.Date{Year: 2024, Month: time.May, Day: 1}))
	assert.Len(t, s.Analytics.GetByIndex("date", "2024-05-02"), 1)
}

func TestSessionKeyNeverPatched(t *testing.T) {
	s := NewStores(DefaultConfig())

	_, err := s.Sessions.Add(domain.Session{Token: "tok", UserID: "u1"})
	require.NoError(t, err)

	got, ok, err := s.Sessions.Update("tok", store.Patch{"token": "other", "user_id": "u2"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "u2", got.UserID)
}

func TestFirstAndCounts(t *testing.T) {
	s := NewStores(DefaultConfig())

	_, ok := First(s.Users.Store, "username", "alice")
	assert.False(t, ok)

	_, err := s.Users.Add(domain.NewUser("alice", "alice@example.com", "h"))
	require.NoError(t, err)

	u, ok := First(s.Users.Store, "username", "alice")
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, 1, s.Counts()["users"])

	s.Clear()
	assert.Equal(t, 0, s.Users.Count())
}

func TestUsers(t *testing.T) {
	s := NewStores(DefaultConfig())
	_, err := s.Users.Add(domain.NewUser("alice", "alice@example.com", "h"))
	require.NoError(t, err)

	assert.True(t, s.Users.UsernameExists("alice"))
	assert.True(t, s.Users.EmailExists("alice@example.com"))
	assert.False(t, s.Users.UsernameExists("bob"))

	u, ok := s.Users.GetByEmail("alice@example.com")
	require.True(t, ok)
	assert.Equal(t, "alice", u.Username)
}

func TestCampaigns(t *testing.T) {
	s := NewStores(DefaultConfig())
	for _, c := range []domain.Campaign{
		{ID: "c1", CreatedBy: "u1", Status: domain.StatusActive},
		{ID: "c2", CreatedBy: "u1", Status: domain.StatusDraft},
		{ID: "c3", CreatedBy: "u2", Status: domain.StatusActive},
	} {
		_, err := s.Campaigns.Add(c)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, s.Campaigns.CountByUser("u1"))
	assert.Equal(t, 2, s.Campaigns.CountByStatus(domain.StatusActive))

	_, _, err := s.Campaigns.Update("c2", store.Patch{"status": "active"})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Campaigns.CountByStatus(domain.StatusActive))
	assert.Empty(t, s.Campaigns.GetByStatus(domain.StatusDraft))
}

func TestAnalyticsRange(t *testing.T) {
	s := NewStores(DefaultConfig())
	start := civil.Date{Year: 2024, Month: time.May, Day: 1}
	for i := 0; i < 5; i++ {
		_, err := s.Analytics.Add(domain.CampaignAnalytics{
			ID:         domain.NewID(),
			CampaignID: "c1",
			Date:       start.AddDays(i),
		})
		require.NoError(t, err)
	}
	_, err := s.Analytics.Add(domain.CampaignAnalytics{ID: "other", CampaignID: "c2", Date: start.AddDays(1)})
	require.NoError(t, err)

	got := s.Analytics.GetByCampaignAndDateRange("c1", start.AddDays(1), start.AddDays(3))
	require.Len(t, got, 3)
	assert.Equal(t, start.AddDays(1), got[0].Date)
	assert.Equal(t, start.AddDays(3), got[2].Date)

	rec, ok := s.Analytics.GetByCampaignAndDate("c2", start.AddDays(1))
	require.True(t, ok)
	assert.Equal(t, "other", rec.ID)
	assert.Len(t, s.Analytics.GetByDate(start.AddDays(1)), 2)
}

func TestSessionsPurgeExpired(t *testing.T) {
	s := NewStores(DefaultConfig())
	now := time.Now()

	_, err := s.Sessions.Add(domain.Session{Token: "old", UserID: "u1", ExpiresAt: now.Add(-time.Minute)})
	require.NoError(t, err)
	_, err = s.Sessions.Add(domain.Session{Token: "new", UserID: "u1", ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Sessions.PurgeExpired(now))
	assert.Len(t, s.Sessions.GetByUser("u1"), 1)
}

func TestUsersReturnCopies(t *testing.T) {
	s := NewStores(DefaultConfig())

	last := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	u := domain.User{ID: "u1", Username: "alice", LastLogin: &last}
	_, err := s.Users.Add(u)
	require.NoError(t, err)

	// neither the caller's value nor a fetched copy aliases the stored record
	*u.LastLogin = time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC)
	got, ok := s.Users.Get("u1")
	require.True(t, ok)
	*got.LastLogin = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

	again, _ := s.Users.Get("u1")
	assert.Equal(t, 2024, again.LastLogin.Year())
}

func TestCampaignEndDateCleared(t *testing.T) {
	s := NewStores(DefaultConfig())

	end := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.Campaigns.Add(domain.Campaign{ID: "c1", EndDate: &end})
	require.NoError(t, err)

	got, ok, err := s.Campaigns.Update("c1", store.Patch{"end_date": nil})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, got.EndDate)

	stored, _ := s.Campaigns.Get("c1")
	assert.Nil(t, stored.EndDate)
}
