package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/internal/service"
	"github.com/Zereker/adboard/pkg/log"
)

// Generator produces AI names and ad copy, falling back to defaults.
type Generator interface {
	CampaignName(ctx context.Context, req domain.CampaignNameRequest) string
	AdCopy(ctx context.Context, campaignID string, req domain.AdCopyRequest) domain.AdCopy
}

// Handler handles HTTP API requests
type Handler struct {
	logger    *slog.Logger
	services  *service.Services
	generator Generator
}

// NewHandler creates a new HTTP handler
func NewHandler(services *service.Services, generator Generator) *Handler {
	return &Handler{
		logger:    log.Logger("http.handler"),
		services:  services,
		generator: generator,
	}
}

// Response represents a standard API response
type Response struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Details []string `json:"details,omitempty"`
}

// RegisterRoutes registers all HTTP routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Auth
	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/v1/auth/me", h.authed(h.Me))

	// Campaigns
	mux.HandleFunc("GET /api/v1/campaigns", h.authed(h.ListCampaigns))
	mux.HandleFunc("POST /api/v1/campaigns", h.authed(h.CreateCampaign))
	mux.HandleFunc("GET /api/v1/campaigns/{id}", h.authed(h.GetCampaign))
	mux.HandleFunc("PUT /api/v1/campaigns/{id}/status", h.authed(h.UpdateCampaignStatus))
	mux.HandleFunc("DELETE /api/v1/campaigns/{id}", h.authed(h.DeleteCampaign))
	mux.HandleFunc("POST /api/v1/sample-campaign", h.authed(h.CreateSampleCampaign))

	// Analytics
	mux.HandleFunc("GET /api/v1/campaigns/{id}/analytics", h.authed(h.CampaignAnalytics))
	mux.HandleFunc("GET /api/v1/campaigns/{id}/summary", h.authed(h.CampaignSummary))
	mux.HandleFunc("GET /api/v1/analytics/performance", h.authed(h.Performance))

	// AI generation
	mux.HandleFunc("POST /api/v1/campaigns/{id}/ad-copy", h.authed(h.GenerateAdCopy))
	mux.HandleFunc("GET /api/v1/campaigns/{id}/ad-copy", h.authed(h.ListAdCopies))
	mux.HandleFunc("POST /api/v1/ai/campaign-name", h.authed(h.GenerateCampaignName))

	// Banners and interests
	mux.HandleFunc("POST /api/v1/banners/upload", h.authed(h.UploadBanner))
	mux.HandleFunc("GET /api/v1/banners", h.authed(h.ListBanners))
	mux.HandleFunc("GET /api/v1/interests", h.Interests)

	// Health check
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user domain.User)

// authed resolves the bearer token before calling next.
func (h *Handler) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			h.writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		user, err := h.services.Auth.Authenticate(token)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		next(w, r, user)
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// Register handles POST /api/v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.services.Auth.Register(req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, Response{Success: true, Data: user})
}

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.services.Auth.Login(req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: resp})
}

// Logout handles POST /api/v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		h.services.Auth.Logout(token)
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true})
}

// Me handles GET /api/v1/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request, user domain.User) {
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: user})
}

// Interests handles GET /api/v1/interests
func (h *Handler) Interests(w http.ResponseWriter, r *http.Request) {
	interests, err := h.services.Samples.EnsureInterests()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		interests = h.services.Stores.Interests.GetByCategory(category)
	}

	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: interests})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]any{
			"status": "healthy",
			"stores": h.services.Stores.Counts(),
		},
	})
}

// decode reads a JSON body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, Response{
		Success: false,
		Error:   message,
	})
}

// writeServiceError maps service errors to status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeJSON(w, http.StatusBadRequest, Response{Error: "validation failed", Details: verr.Problems})
	case errors.Is(err, service.ErrUnauthorized):
		h.writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrLimitReached):
		h.writeError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
