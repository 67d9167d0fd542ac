package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/internal/repo"
	"github.com/Zereker/adboard/pkg/log"
)

// MaxBannerSizeKB is the default upload limit.
const MaxBannerSizeKB = 250

// BannerSize is a named standard banner dimension.
type BannerSize struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

func (s BannerSize) String() string {
	return fmt.Sprintf("%dx%d (%s)", s.Width, s.Height, s.Name)
}

// StandardBannerSizes lists the accepted banner dimensions.
var StandardBannerSizes = []BannerSize{
	{728, 90, "Leaderboard"},
	{800, 288, "Leaderboard (x2)"},
	{300, 250, "Medium Rectangle"},
	{160, 600, "Wide Skyscraper"},
	{320, 50, "Mobile Leaderboard"},
	{336, 280, "Large Rectangle"},
}

// allowed image formats as reported by image.DecodeConfig
var bannerFormats = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
}

// ImageCheck is the outcome of validating an uploaded banner image.
type ImageCheck struct {
	Format  string      `json:"format"`
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	SizeKB  float64     `json:"size_kb"`
	Matched *BannerSize `json:"matched_size,omitempty"`
	Closest *BannerSize `json:"closest_size,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
	Custom  bool        `json:"custom"` // only the dimensions are non-standard
}

// Accepted reports whether the image may be stored. Non-standard dimensions
// alone do not reject an image.
func (c ImageCheck) Accepted() bool {
	return len(c.Errors) == 0 || c.Custom
}

// SuggestedName is the banner name offered for the upload.
func (c ImageCheck) SuggestedName() string {
	if c.Custom {
		return fmt.Sprintf("Custom Banner %dx%d", c.Width, c.Height)
	}
	return fmt.Sprintf("Banner %dx%d", c.Width, c.Height)
}

// ValidateImage checks format, file size and dimensions of an image.
func ValidateImage(data []byte, maxKB int) ImageCheck {
	check := ImageCheck{SizeKB: float64(len(data)) / 1024}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		check.Errors = append(check.Errors, "Invalid image file: "+err.Error())
		return check
	}
	check.Format = format
	check.Width = cfg.Width
	check.Height = cfg.Height

	var other int
	if _, ok := bannerFormats[format]; !ok {
		check.Errors = append(check.Errors, fmt.Sprintf("Invalid format: %s. Allowed formats: JPEG, PNG, GIF", strings.ToUpper(format)))
		other++
	}
	if maxKB > 0 && check.SizeKB > float64(maxKB) {
		check.Errors = append(check.Errors, fmt.Sprintf("File size (%.1fKB) exceeds maximum allowed (%dKB)", check.SizeKB, maxKB))
		other++
	}

	if size, ok := standardSize(cfg.Width, cfg.Height); ok {
		check.Matched = &size
	} else {
		closest := closestSize(cfg.Width, cfg.Height)
		check.Closest = &closest
		check.Errors = append(check.Errors, fmt.Sprintf(
			"Image dimensions (%dx%d) don't match standard banner sizes. Closest standard size: %s",
			cfg.Width, cfg.Height, closest))
		check.Custom = other == 0
	}

	return check
}

func standardSize(width, height int) (BannerSize, bool) {
	for _, s := range StandardBannerSizes {
		if s.Width == width && s.Height == height {
			return s, true
		}
	}
	return BannerSize{}, false
}

// closestSize picks the standard size with the smallest Manhattan distance.
func closestSize(width, height int) BannerSize {
	best := StandardBannerSizes[0]
	bestDist := -1
	for _, s := range StandardBannerSizes {
		d := abs(s.Width-width) + abs(s.Height-height)
		if bestDist < 0 || d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Upload is a stored banner image ready to be referenced by a campaign.
type Upload struct {
	ImageURL      string     `json:"image_url"`
	WidthPx       int        `json:"width_px"`
	HeightPx      int        `json:"height_px"`
	SuggestedName string     `json:"suggested_name"`
	Warnings      []string   `json:"warnings,omitempty"`
	Check         ImageCheck `json:"check"`
}

// BannerService validates and stores banner images.
type BannerService struct {
	logger  *slog.Logger
	cfg     AssetsConfig
	banners repo.Banners
	now     func() time.Time
}

// NewBannerService creates the banner service.
func NewBannerService(cfg AssetsConfig, stores *repo.Stores) (*BannerService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid assets config")
	}
	return &BannerService{
		logger:  log.Logger("banner"),
		cfg:     cfg,
		banners: stores.Banners,
		now:     time.Now,
	}, nil
}

// SaveUpload validates an image and writes it to the uploads directory as
// <user>_<uuid><ext>. Rejected images return a *domain.ValidationError.
func (s *BannerService) SaveUpload(userID, filename string, data []byte) (Upload, error) {
	check := ValidateImage(data, s.cfg.MaxUpload)
	if !check.Accepted() {
		return Upload{}, &domain.ValidationError{Problems: check.Errors}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		ext = bannerFormats[check.Format]
	}
	name := fmt.Sprintf("%s_%s%s", userID, uuid.NewString(), ext)

	dir := s.cfg.UploadsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Upload{}, errors.Wrap(err, "failed to create uploads directory")
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return Upload{}, errors.Wrap(err, "failed to write upload")
	}

	s.logger.Info("banner uploaded",
		"user_id", userID,
		"file", name,
		"width", check.Width,
		"height", check.Height,
		"custom", check.Custom,
	)

	upload := Upload{
		ImageURL:      path.Join(s.cfg.URLPrefix, "uploads", name),
		WidthPx:       check.Width,
		HeightPx:      check.Height,
		SuggestedName: check.SuggestedName(),
		Check:         check,
	}
	if check.Custom {
		upload.Warnings = check.Errors
	}
	return upload, nil
}

// Create stores a banner record outside the campaign flow.
func (s *BannerService) Create(userID string, in domain.BannerInput) (domain.AdBanner, error) {
	if err := in.Validate(); err != nil {
		return domain.AdBanner{}, err
	}
	b, err := s.banners.Add(domain.AdBanner{
		ID:        domain.NewID(),
		Name:      in.Name,
		ImageURL:  in.ImageURL,
		WidthPx:   in.WidthPx,
		HeightPx:  in.HeightPx,
		CreatedAt: s.now().UTC(),
		CreatedBy: userID,
	})
	if err != nil {
		return domain.AdBanner{}, errors.WithMessage(err, "store banner")
	}
	return b, nil
}

// ListForUser returns the banners a user created.
func (s *BannerService) ListForUser(userID string) []domain.AdBanner {
	return s.banners.GetByUser(userID)
}
