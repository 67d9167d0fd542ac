package mcp

// Tool represents an MCP tool definition
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema defines the JSON schema for tool input
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property defines a property in the schema
type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Default     any                 `json:"default,omitempty"`
}

var statusEnum = []string{"draft", "scheduled", "active", "paused", "completed", "rejected"}

// CampaignTools defines all available MCP tools for campaign operations
var CampaignTools = []Tool{
	{
		Name:        "campaign_list",
		Description: "列出广告活动。可按用户名和状态过滤。",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"username": {
					Type:        "string",
					Description: "创建者用户名，留空列出全部",
				},
				"status": {
					Type:        "string",
					Description: "活动状态",
					Enum:        statusEnum,
				},
				"sort": {
					Type:        "string",
					Description: "排序方式",
					Enum:        []string{"newest", "oldest", "budget_desc", "budget_asc"},
					Default:     "newest",
				},
			},
		},
	},
	{
		Name:        "campaign_performance",
		Description: "汇总广告活动的展示、点击、点击率和花费。指定 campaign_id 时只汇总该活动。",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"campaign_id": {
					Type:        "string",
					Description: "活动 ID，留空汇总全部活动",
				},
				"start": {
					Type:        "string",
					Description: "开始日期 (YYYY-MM-DD)，默认 30 天前",
				},
				"end": {
					Type:        "string",
					Description: "结束日期 (YYYY-MM-DD)，默认今天",
				},
			},
		},
	},
	{
		Name:        "campaign_generate_name",
		Description: "用 AI 生成活动名称。模型不可用时返回默认名称。",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"product_type": {
					Type:        "string",
					Description: "产品类型",
				},
				"target_audience": {
					Type:        "string",
					Description: "目标受众",
				},
			},
			Required: []string{"product_type", "target_audience"},
		},
	},
	{
		Name:        "campaign_generate_ad_copy",
		Description: "为广告活动生成标题、描述和行动号召。AI 生成的文案会保存到活动下。",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"campaign_id": {
					Type:        "string",
					Description: "活动 ID",
				},
				"product_name": {
					Type:        "string",
					Description: "产品名称",
				},
				"target_audience": {
					Type:        "string",
					Description: "目标受众",
				},
				"key_features": {
					Type:        "array",
					Description: "产品卖点",
					Items:       &Property{Type: "string"},
				},
				"tone": {
					Type:        "string",
					Description: "文案语气",
					Default:     "Professional",
				},
			},
			Required: []string{"campaign_id", "product_name", "target_audience", "key_features"},
		},
	},
}
