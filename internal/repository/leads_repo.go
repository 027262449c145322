package repository

import (
	"context"

	"github.com/pulsecrm/pulsecrm/internal/domain"
)

// LeadFilters 线索查询过滤器
type LeadFilters struct {
	Status  string // 可选，精确匹配
	Source  string // 可选，精确匹配
	Search  string // 可选，name/email/phone 模糊匹配（ILIKE）
	SortBy  string // name | status | createdAt（默认 createdAt）
	SortDir string // asc | desc（默认 desc）
}

// LeadStatusCount 按状态聚合
type LeadStatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// LeadSourceCount 按来源聚合
type LeadSourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// LeadStats 线索统计（仪表盘读侧聚合）
type LeadStats struct {
	Total      int               `json:"total"`
	ByStatus   []LeadStatusCount `json:"byStatus"`
	TopSources []LeadSourceCount `json:"topSources"`
	Latest     []*domain.Lead    `json:"latest"`
}

// LeadsRepository 线索Repository接口
type LeadsRepository interface {
	// ListLeads 分页查询，返回 (items, total, error)
	ListLeads(ctx context.Context, tenantID string, filter LeadFilters, page, size int) ([]*domain.Lead, int, error)

	// ExportLeads 不分页的过滤查询（xlsx 导出用）
	ExportLeads(ctx context.Context, tenantID string, filter LeadFilters) ([]*domain.Lead, error)

	GetLead(ctx context.Context, tenantID, leadID string) (*domain.Lead, error)
	CreateLead(ctx context.Context, lead *domain.Lead) error

	// UpdateLead 动态部分更新：key 出现即更新，值为 nil 写 NULL
	UpdateLead(ctx context.Context, tenantID, leadID string, patch map[string]any) error

	DeleteLead(ctx context.Context, tenantID, leadID string) error

	// LeadStats total / byStatus / top5 sources / 5 latest
	LeadStats(ctx context.Context, tenantID string) (*LeadStats, error)
}
