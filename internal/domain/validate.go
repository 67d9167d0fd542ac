package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Limits shared by validation and the HTTP layer.
const (
	MinBudgetUSD      = 10.0
	MaxBudgetUSD      = 10000.0
	MinAudienceAge    = 13
	MaxAudienceAge    = 100
	MinPasswordLength = 8
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// ValidationError lists every rejected field of one input.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

type problems []string

func (p *problems) add(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p *problems) length(field, value string, min, max int) {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min || n > max {
		if min == 1 && n == 0 {
			p.add("%s is required", field)
			return
		}
		p.add("%s must be between %d and %d characters", field, min, max)
	}
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Problems: p}
}

// Validate checks a registration form.
func (r RegisterRequest) Validate() error {
	var p problems
	p.length("username", r.Username, 3, 50)
	if !emailPattern.MatchString(r.Email) {
		p.add("email is invalid")
	}
	if len(r.Password) < MinPasswordLength {
		p.add("password must be at least %d characters", MinPasswordLength)
	}
	if r.Password != r.PasswordConfirm {
		p.add("passwords do not match")
	}
	return p.err()
}

// Validate checks a login form.
func (r LoginRequest) Validate() error {
	var p problems
	if r.Username == "" || r.Password == "" {
		p.add("username and password are required")
	}
	return p.err()
}

// Validate checks the details step. Start dates in the past are rejected
// relative to now, at day granularity.
func (d CampaignDetailsInput) Validate(now time.Time) error {
	var p problems
	p.length("name", d.Name, 1, 100)
	if d.BudgetUSD < MinBudgetUSD {
		p.add("minimum budget is $%.0f", MinBudgetUSD)
	}
	if d.BudgetUSD > MaxBudgetUSD {
		p.add("maximum budget is $%.0f", MaxBudgetUSD)
	}
	if d.StartDate.IsZero() {
		p.add("start_date is required")
	} else if startOfDay(d.StartDate).Before(startOfDay(now)) {
		p.add("start_date cannot be in the past")
	}
	if d.EndDate != nil && !d.EndDate.After(d.StartDate) {
		p.add("end date must be after start date")
	}
	return p.err()
}

// Validate checks the banner step.
func (b BannerInput) Validate() error {
	var p problems
	p.length("banner name", b.Name, 1, 100)
	if b.ImageURL == "" {
		p.add("please upload a banner image first")
	}
	if b.WidthPx <= 0 || b.HeightPx <= 0 {
		p.add("banner dimensions must be positive")
	}
	return p.err()
}

// Validate checks the targeting step.
func (t TargetingInput) Validate() error {
	var p problems
	a := t.AgeRange
	if a.MinAge < MinAudienceAge || a.MinAge > MaxAudienceAge || a.MaxAge < MinAudienceAge || a.MaxAge > MaxAudienceAge {
		p.add("ages must be between %d and %d", MinAudienceAge, MaxAudienceAge)
	}
	if a.MinAge > a.MaxAge {
		p.add("min_age cannot exceed max_age")
	}
	if len(t.Locations) == 0 {
		p.add("please add at least one location")
	}
	for i, loc := range t.Locations {
		if strings.TrimSpace(loc.Country) == "" {
			p.add("locations[%d].country is required", i)
		}
	}
	if len(t.Interests) == 0 {
		p.add("please select at least one interest")
	}
	return p.err()
}

// Validate checks every step of a campaign submission.
func (r CreateCampaignRequest) Validate(now time.Time) error {
	var p problems
	for _, err := range []error{
		r.Details.Validate(now),
		r.Banner.Validate(),
		r.Targeting.Validate(),
	} {
		if verr, ok := err.(*ValidationError); ok {
			p = append(p, verr.Problems...)
		}
	}
	return p.err()
}

// Validate checks an ad copy request and fills the default tone.
func (r *AdCopyRequest) Validate() error {
	var p problems
	p.length("product_name", r.ProductName, 1, 200)
	p.length("target_audience", r.TargetAudience, 1, 200)
	if len(r.KeyFeatures) == 0 {
		p.add("at least one key feature is required")
	}
	if strings.TrimSpace(r.Tone) == "" {
		r.Tone = DefaultTone
	}
	return p.err()
}

// Validate checks a campaign name request.
func (r CampaignNameRequest) Validate() error {
	var p problems
	p.length("product_type", r.ProductType, 1, 200)
	p.length("target_audience", r.TargetAudience, 1, 200)
	return p.err()
}

// Validate enforces the stored length limits of generated copy.
func (c AdCopy) Validate() error {
	var p problems
	p.length("headline", c.Headline, 1, 100)
	p.length("description", c.Description, 1, 500)
	p.length("call_to_action", c.CallToAction, 1, 50)
	return p.err()
}

// Validate checks a metric event before it is merged into analytics.
func (e MetricEvent) Validate() error {
	var p problems
	if e.CampaignID == "" {
		p.add("campaign_id is required")
	}
	if e.Impressions < 0 || e.Clicks < 0 || e.CostUSD < 0 {
		p.add("metrics cannot be negative")
	}
	return p.err()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
