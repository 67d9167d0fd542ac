package http

import (
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/Zereker/adboard/internal/domain"
)

// maxUploadBody bounds a multipart upload request.
const maxUploadBody = 10 << 20

// ListCampaigns handles GET /api/v1/campaigns?status=active,paused&sort=budget_desc
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request, user domain.User) {
	var q domain.ListCampaignsQuery
	q.Sort = r.URL.Query().Get("sort")

	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status, ok := domain.ParseCampaignStatus(s)
			if !ok {
				h.writeError(w, http.StatusBadRequest, "unknown status: "+s)
				return
			}
			q.Statuses = append(q.Statuses, status)
		}
	}

	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    h.services.Campaigns.ListForUser(user.ID, q),
	})
}

// CreateCampaign handles POST /api/v1/campaigns
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req domain.CreateCampaignRequest
	if !h.decode(w, r, &req) {
		return
	}

	details, err := h.services.Campaigns.Create(r.Context(), user.ID, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, Response{Success: true, Data: details})
}

// GetCampaign handles GET /api/v1/campaigns/{id}
func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request, user domain.User) {
	details, err := h.services.Campaigns.Details(user.ID, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: details})
}

// UpdateCampaignStatus handles PUT /api/v1/campaigns/{id}/status
func (h *Handler) UpdateCampaignStatus(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req domain.UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.services.Campaigns.UpdateStatus(r.Context(), user.ID, r.PathValue("id"), req.Status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: c})
}

// DeleteCampaign handles DELETE /api/v1/campaigns/{id}
func (h *Handler) DeleteCampaign(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := r.PathValue("id")
	if err := h.services.Campaigns.Delete(r.Context(), user.ID, id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]string{"deleted": id},
	})
}

// CreateSampleCampaign handles POST /api/v1/sample-campaign
func (h *Handler) CreateSampleCampaign(w http.ResponseWriter, r *http.Request, user domain.User) {
	details, err := h.services.Samples.CreateSampleCampaign(user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, Response{Success: true, Data: details})
}

// CampaignAnalytics handles GET /api/v1/campaigns/{id}/analytics?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) CampaignAnalytics(w http.ResponseWriter, r *http.Request, user domain.User) {
	c, err := h.services.Campaigns.Get(user.ID, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	start, end, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    h.services.Analytics.CampaignAnalytics(c.ID, start, end),
	})
}

// CampaignSummary handles GET /api/v1/campaigns/{id}/summary
func (h *Handler) CampaignSummary(w http.ResponseWriter, r *http.Request, user domain.User) {
	c, err := h.services.Campaigns.Get(user.ID, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	start, end, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]any{
			"campaign_id": c.ID,
			"start":       start,
			"end":         end,
			"metrics":     h.services.Analytics.Summary(c.ID, start, end),
		},
	})
}

// Performance handles GET /api/v1/analytics/performance
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request, user domain.User) {
	start, end, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    h.services.Analytics.UserPerformance(user.ID, start, end),
	})
}

// dateRange parses start and end query parameters, defaulting to the last
// 30 days.
func (h *Handler) dateRange(w http.ResponseWriter, r *http.Request) (civil.Date, civil.Date, bool) {
	start, end := h.services.Analytics.DefaultRange()

	for name, target := range map[string]*civil.Date{"start": &start, "end": &end} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		d, err := civil.ParseDate(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, name+" must be YYYY-MM-DD")
			return civil.Date{}, civil.Date{}, false
		}
		*target = d
	}

	if end.Before(start) {
		h.writeError(w, http.StatusBadRequest, "end must not be before start")
		return civil.Date{}, civil.Date{}, false
	}
	return start, end, true
}

// GenerateAdCopy handles POST /api/v1/campaigns/{id}/ad-copy
func (h *Handler) GenerateAdCopy(w http.ResponseWriter, r *http.Request, user domain.User) {
	c, err := h.services.Campaigns.Get(user.ID, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	var req domain.AdCopyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    h.generator.AdCopy(r.Context(), c.ID, req),
	})
}

// ListAdCopies handles GET /api/v1/campaigns/{id}/ad-copy
func (h *Handler) ListAdCopies(w http.ResponseWriter, r *http.Request, user domain.User) {
	c, err := h.services.Campaigns.Get(user.ID, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    h.services.Stores.AdCopies.GetByCampaign(c.ID),
	})
}

// GenerateCampaignName handles POST /api/v1/ai/campaign-name
func (h *Handler) GenerateCampaignName(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req domain.CampaignNameRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]string{"name": h.generator.CampaignName(r.Context(), req)},
	})
}

// UploadBanner handles POST /api/v1/banners/upload (multipart field "file")
func (h *Handler) UploadBanner(w http.ResponseWriter, r *http.Request, user domain.User) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	upload, err := h.services.Banners.SaveUpload(user.ID, header.Filename, data)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, Response{Success: true, Data: upload})
}

// ListBanners handles GET /api/v1/banners
func (h *Handler) ListBanners(w http.ResponseWriter, r *http.Request, user domain.User) {
	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    h.services.Banners.ListForUser(user.ID),
	})
}
