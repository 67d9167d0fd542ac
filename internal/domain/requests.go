package domain

import "time"

// ============================================================================
// Auth
// ============================================================================

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// LoginRequest exchanges credentials for a session token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued session.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// ============================================================================
// Campaign creation (details -> banner -> targeting -> review)
// ============================================================================

// CampaignDetailsInput is the first step of the creation flow.
type CampaignDetailsInput struct {
	Name      string     `json:"name"`
	BudgetUSD float64    `json:"budget_usd"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// BannerInput is the second step; ImageURL comes from a prior upload.
type BannerInput struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
	WidthPx  int    `json:"width_px"`
	HeightPx int    `json:"height_px"`
}

// TargetingInput is the third step.
type TargetingInput struct {
	AgeRange  AgeRange   `json:"age_range"`
	Locations []Location `json:"locations"`
	Interests []string   `json:"interests"`
}

// CreateCampaignRequest is the reviewed submission of all steps.
type CreateCampaignRequest struct {
	Details   CampaignDetailsInput `json:"details"`
	Banner    BannerInput          `json:"banner"`
	Targeting TargetingInput       `json:"targeting"`
}

// CampaignDetails is a campaign with its referenced records resolved.
// Banner and Targeting are nil when the reference dangles.
type CampaignDetails struct {
	Campaign  Campaign           `json:"campaign"`
	Banner    *AdBanner          `json:"banner,omitempty"`
	Targeting *AudienceTargeting `json:"targeting,omitempty"`
}

// UpdateStatusRequest changes a campaign's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Campaign list orderings.
const (
	SortNewest     = "newest"
	SortOldest     = "oldest"
	SortBudgetDesc = "budget_desc"
	SortBudgetAsc  = "budget_asc"
)

// ListCampaignsQuery filters and orders a user's campaigns.
type ListCampaignsQuery struct {
	Statuses []CampaignStatus `json:"statuses,omitempty"`
	Sort     string           `json:"sort,omitempty"`
}

// ============================================================================
// AI generation
// ============================================================================

// DefaultTone is used when an ad copy request names none.
const DefaultTone = "Professional"

// AdCopyRequest describes the product an ad copy is generated for.
type AdCopyRequest struct {
	ProductName    string   `json:"product_name"`
	TargetAudience string   `json:"target_audience"`
	KeyFeatures    []string `json:"key_features"`
	Tone           string   `json:"tone,omitempty"`
}

// CampaignNameRequest describes the product a campaign name is generated for.
type CampaignNameRequest struct {
	ProductType    string `json:"product_type"`
	TargetAudience string `json:"target_audience"`
}

// ============================================================================
// Analytics
// ============================================================================

// DateRange is an inclusive range of days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MetricEvent is one ad-server measurement ingested from the metrics topic.
type MetricEvent struct {
	CampaignID  string  `json:"campaign_id"`
	Date        string  `json:"date"` // YYYY-MM-DD
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	CostUSD     float64 `json:"cost_usd"`
}

// CampaignEvent is published on campaign lifecycle changes.
type CampaignEvent struct {
	Type       string         `json:"type"`
	CampaignID string         `json:"campaign_id"`
	UserID     string         `json:"user_id"`
	Status     CampaignStatus `json:"status"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Campaign event types.
const (
	EventCampaignCreated       = "campaign.created"
	EventCampaignStatusChanged = "campaign.status_changed"
	EventCampaignDeleted       = "campaign.deleted"
)
