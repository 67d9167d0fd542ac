package domain

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// ============================================================================
// Campaign status
// ============================================================================

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusScheduled CampaignStatus = "scheduled"
	StatusActive    CampaignStatus = "active"
	StatusPaused    CampaignStatus = "paused"
	StatusCompleted CampaignStatus = "completed"
	StatusRejected  CampaignStatus = "rejected"
)

// CampaignStatuses lists every status in display order.
var CampaignStatuses = []CampaignStatus{
	StatusDraft,
	StatusScheduled,
	StatusActive,
	StatusPaused,
	StatusCompleted,
	StatusRejected,
}

func (s CampaignStatus) String() string {
	return string(s)
}

// Valid reports whether s is a known status.
func (s CampaignStatus) Valid() bool {
	for _, status := range CampaignStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ParseCampaignStatus accepts a status name in any letter case.
func ParseCampaignStatus(s string) (CampaignStatus, bool) {
	status := CampaignStatus(strings.ToLower(strings.TrimSpace(s)))
	return status, status.Valid()
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// ============================================================================
// User
// ============================================================================

// User is a dashboard account. The password hash never leaves the process.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// NewUser creates a user with a generated id.
func NewUser(username, email, passwordHash string) User {
	return User{
		ID:           NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

func (u User) Key() string { return u.ID }

func (u User) Field(name string) (any, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "username":
		return u.Username, true
	case "email":
		return u.Email, true
	}
	return nil, false
}

func (u User) Clone() User {
	if u.LastLogin != nil {
		last := *u.LastLogin
		u.LastLogin = &last
	}
	return u
}

// ============================================================================
// Campaign
// ============================================================================

// Campaign references its banner and targeting by id only.
type Campaign struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	BannerID    string         `json:"banner_id"`
	TargetingID string         `json:"targeting_id"`
	Status      CampaignStatus `json:"status"`
	BudgetUSD   float64        `json:"budget_usd"`
	StartDate   time.Time      `json:"start_date"`
	EndDate     *time.Time     `json:"end_date,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CreatedBy   string         `json:"created_by"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (c Campaign) Key() string { return c.ID }

func (c Campaign) Field(name string) (any, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "name":
		return c.Name, true
	case "banner_id":
		return c.BannerID, true
	case "targeting_id":
		return c.TargetingID, true
	case "status":
		return c.Status, true
	case "budget_usd":
		return c.BudgetUSD, true
	case "created_by":
		return c.CreatedBy, true
	}
	return nil, false
}

func (c Campaign) Clone() Campaign {
	if c.EndDate != nil {
		end := *c.EndDate
		c.EndDate = &end
	}
	return c
}

// ============================================================================
// AdBanner
// ============================================================================

// AdBanner is an uploaded creative.
type AdBanner struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	WidthPx   int       `json:"width_px"`
	HeightPx  int       `json:"height_px"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

func (b AdBanner) Key() string { return b.ID }

func (b AdBanner) Field(name string) (any, bool) {
	switch name {
	case "id":
		return b.ID, true
	case "name":
		return b.Name, true
	case "image_url":
		return b.ImageURL, true
	case "width_px":
		return b.WidthPx, true
	case "height_px":
		return b.HeightPx, true
	case "created_by":
		return b.CreatedBy, true
	}
	return nil, false
}

// ============================================================================
// Targeting
// ============================================================================

// AgeRange bounds the targeted audience age, inclusive.
type AgeRange struct {
	MinAge int `json:"min_age"`
	MaxAge int `json:"max_age"`
}

// Location is a country with optional region and city.
type Location struct {
	Country string `json:"country"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

// String renders "country, region, city" skipping empty parts.
func (l Location) String() string {
	parts := []string{l.Country}
	if l.Region != "" {
		parts = append(parts, l.Region)
	}
	if l.City != "" {
		parts = append(parts, l.City)
	}
	return strings.Join(parts, ", ")
}

// AudienceTargeting holds the audience of one campaign.
type AudienceTargeting struct {
	ID        string     `json:"id"`
	AgeRange  AgeRange   `json:"age_range"`
	Locations []Location `json:"locations"`
	Interests []string   `json:"interests"` // interest ids
}

func (t AudienceTargeting) Key() string { return t.ID }

func (t AudienceTargeting) Field(name string) (any, bool) {
	switch name {
	case "id":
		return t.ID, true
	case "min_age":
		return t.AgeRange.MinAge, true
	case "max_age":
		return t.AgeRange.MaxAge, true
	}
	return nil, false
}

func (t AudienceTargeting) Clone() AudienceTargeting {
	t.Locations = append([]Location(nil), t.Locations...)
	t.Interests = append([]string(nil), t.Interests...)
	return t
}

// Interest is an audience interest, optionally grouped by category.
type Interest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

func (i Interest) Key() string { return i.ID }

// Field does not expose an empty category, so uncategorised interests stay
// out of the category index.
func (i Interest) Field(name string) (any, bool) {
	switch name {
	case "id":
		return i.ID, true
	case "name":
		return i.Name, true
	case "category":
		return i.Category, i.Category != ""
	}
	return nil, false
}

// ============================================================================
// Analytics
// ============================================================================

// Metrics is the performance bundle of one day or one period.
type Metrics struct {
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	CTRPct      float64 `json:"ctr_pct"`
	CostUSD     float64 `json:"cost_usd"`
}

// CampaignAnalytics is one campaign's metrics for one day.
type CampaignAnalytics struct {
	ID         string     `json:"id"`
	CampaignID string     `json:"campaign_id"`
	Date       civil.Date `json:"date"`
	Metrics    Metrics    `json:"metrics"`
}

func (a CampaignAnalytics) Key() string { return a.ID }

func (a CampaignAnalytics) Field(name string) (any, bool) {
	switch name {
	case "id":
		return a.ID, true
	case "campaign_id":
		return a.CampaignID, true
	case "date":
		return a.Date, true
	}
	return nil, false
}

// ============================================================================
// Ad copy
// ============================================================================

// AdCopy is generated or fallback advertising text for a campaign.
type AdCopy struct {
	ID            string    `json:"id"`
	CampaignID    string    `json:"campaign_id"`
	Headline      string    `json:"headline"`
	Description   string    `json:"description"`
	CallToAction  string    `json:"call_to_action"`
	GeneratedAt   time.Time `json:"generated_at"`
	IsAIGenerated bool      `json:"is_ai_generated"`
}

func (c AdCopy) Key() string { return c.ID }

func (c AdCopy) Field(name string) (any, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "campaign_id":
		return c.CampaignID, true
	case "is_ai_generated":
		return c.IsAIGenerated, true
	}
	return nil, false
}

// ============================================================================
// Session
// ============================================================================

// Session is an authenticated login, keyed by its bearer token.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Key() string { return s.Token }

func (s Session) Field(name string) (any, bool) {
	switch name {
	case "token":
		return s.Token, true
	case "user_id":
		return s.UserID, true
	}
	return nil, false
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
