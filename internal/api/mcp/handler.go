package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/internal/service"
)

// Generator produces AI names and ad copy, falling back to defaults.
type Generator interface {
	CampaignName(ctx context.Context, req domain.CampaignNameRequest) string
	AdCopy(ctx context.Context, campaignID string, req domain.AdCopyRequest) domain.AdCopy
}

// Handler handles MCP tool calls
type Handler struct {
	services  *service.Services
	generator Generator
}

// NewHandler creates a new MCP handler
func NewHandler(services *service.Services, generator Generator) *Handler {
	return &Handler{
		services:  services,
		generator: generator,
	}
}

// ToolCallRequest represents an MCP tool call request
type ToolCallRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolCallResponse represents an MCP tool call response
type ToolCallResponse struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock represents a content block in the response
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// HandleToolCall handles an MCP tool call
func (h *Handler) HandleToolCall(ctx context.Context, req ToolCallRequest) ToolCallResponse {
	switch req.Name {
	case "campaign_list":
		return h.handleList(req.Arguments)
	case "campaign_performance":
		return h.handlePerformance(req.Arguments)
	case "campaign_generate_name":
		return h.handleGenerateName(ctx, req.Arguments)
	case "campaign_generate_ad_copy":
		return h.handleGenerateAdCopy(ctx, req.Arguments)
	default:
		return errorResponse(fmt.Sprintf("unknown tool: %s", req.Name))
	}
}

type listArgs struct {
	Username string `json:"username"`
	Status   string `json:"status"`
	Sort     string `json:"sort"`
}

// handleList handles campaign_list tool call
func (h *Handler) handleList(args json.RawMessage) ToolCallResponse {
	var req listArgs
	if err := unmarshalArgs(args, &req); err != nil {
		return errorResponse(fmt.Sprintf("invalid arguments: %v", err))
	}

	var q domain.ListCampaignsQuery
	q.Sort = req.Sort
	if req.Status != "" {
		status, ok := domain.ParseCampaignStatus(req.Status)
		if !ok {
			return errorResponse(fmt.Sprintf("unknown status: %s", req.Status))
		}
		q.Statuses = []domain.CampaignStatus{status}
	}

	var campaigns []domain.Campaign
	if req.Username != "" {
		user, err := h.services.Auth.UserByUsername(req.Username)
		if err != nil {
			return errorResponse(err.Error())
		}
		campaigns = h.services.Campaigns.ListForUser(user.ID, q)
	} else {
		campaigns = h.services.Campaigns.ListAll()
		if len(q.Statuses) > 0 {
			filtered := campaigns[:0]
			for _, c := range campaigns {
				if c.Status == q.Statuses[0] {
					filtered = append(filtered, c)
				}
			}
			campaigns = filtered
		}
	}

	if len(campaigns) == 0 {
		return successResponse("没有找到广告活动")
	}

	parts := []string{fmt.Sprintf("找到 %d 个广告活动:", len(campaigns))}
	for _, c := range campaigns {
		parts = append(parts, fmt.Sprintf("- [%s] %s (%s, $%.2f, 开始 %s)",
			c.ID, truncate(c.Name, 60), c.Status, c.BudgetUSD, c.StartDate.Format("2006-01-02")))
	}
	return successResponse(strings.Join(parts, "\n"))
}

type performanceArgs struct {
	CampaignID string `json:"campaign_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// handlePerformance handles campaign_performance tool call
func (h *Handler) handlePerformance(args json.RawMessage) ToolCallResponse {
	var req performanceArgs
	if err := unmarshalArgs(args, &req); err != nil {
		return errorResponse(fmt.Sprintf("invalid arguments: %v", err))
	}

	start, end := h.services.Analytics.DefaultRange()
	var err error
	if req.Start != "" {
		if start, err = civil.ParseDate(req.Start); err != nil {
			return errorResponse("start must be YYYY-MM-DD")
		}
	}
	if req.End != "" {
		if end, err = civil.ParseDate(req.End); err != nil {
			return errorResponse("end must be YYYY-MM-DD")
		}
	}

	header := fmt.Sprintf("%s 至 %s 的表现:", start, end)

	if req.CampaignID != "" {
		c, err := h.services.Campaigns.Get("", req.CampaignID)
		if err != nil {
			return errorResponse(err.Error())
		}
		m := h.services.Analytics.Summary(c.ID, start, end)
		return successResponse(header + "\n" + formatPerformance(c.Name, m))
	}

	all := h.services.Analytics.AllPerformance(start, end)
	if len(all) == 0 {
		return successResponse("没有找到广告活动")
	}

	parts := []string{header}
	for _, p := range all {
		parts = append(parts, formatPerformance(p.Name, p.Metrics))
	}
	return successResponse(strings.Join(parts, "\n"))
}

func formatPerformance(name string, m domain.Metrics) string {
	return fmt.Sprintf("- %s: 展示 %d, 点击 %d, CTR %.2f%%, 花费 $%.2f",
		truncate(name, 60), m.Impressions, m.Clicks, m.CTRPct, m.CostUSD)
}

// handleGenerateName handles campaign_generate_name tool call
func (h *Handler) handleGenerateName(ctx context.Context, args json.RawMessage) ToolCallResponse {
	var req domain.CampaignNameRequest
	if err := unmarshalArgs(args, &req); err != nil {
		return errorResponse(fmt.Sprintf("invalid arguments: %v", err))
	}
	if err := req.Validate(); err != nil {
		return errorResponse(err.Error())
	}

	return successResponse(h.generator.CampaignName(ctx, req))
}

type adCopyArgs struct {
	CampaignID string `json:"campaign_id"`
	domain.AdCopyRequest
}

// handleGenerateAdCopy handles campaign_generate_ad_copy tool call
func (h *Handler) handleGenerateAdCopy(ctx context.Context, args json.RawMessage) ToolCallResponse {
	var req adCopyArgs
	if err := unmarshalArgs(args, &req); err != nil {
		return errorResponse(fmt.Sprintf("invalid arguments: %v", err))
	}
	if req.CampaignID == "" {
		return errorResponse("campaign_id is required")
	}
	if _, err := h.services.Campaigns.Get("", req.CampaignID); err != nil {
		return errorResponse(err.Error())
	}
	if err := req.AdCopyRequest.Validate(); err != nil {
		return errorResponse(err.Error())
	}

	adCopy := h.generator.AdCopy(ctx, req.CampaignID, req.AdCopyRequest)

	source := "默认文案"
	if adCopy.IsAIGenerated {
		source = "AI 生成"
	}
	return successResponse(fmt.Sprintf("%s:\n标题: %s\n描述: %s\n行动号召: %s",
		source, adCopy.Headline, adCopy.Description, adCopy.CallToAction))
}

// Helper functions

func unmarshalArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	return json.Unmarshal(args, v)
}

func successResponse(text string) ToolCallResponse {
	return ToolCallResponse{
		Content: []ContentBlock{
			{Type: "text", Text: text},
		},
	}
}

func errorResponse(text string) ToolCallResponse {
	return ToolCallResponse{
		Content: []ContentBlock{
			{Type: "text", Text: text},
		},
		IsError: true,
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
