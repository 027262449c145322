package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsecrm/pulsecrm/internal/domain"
	"github.com/pulsecrm/pulsecrm/internal/repository"
)

// LeadService 线索服务接口
type LeadService interface {
	ListLeads(ctx context.Context, tenantID string, req ListLeadsRequest) (*ListLeadsResponse, error)
	GetLead(ctx context.Context, tenantID, leadID string) (*LeadItem, error)
	CreateLead(ctx context.Context, tenantID string, req CreateLeadRequest) (*LeadItem, error)
	UpdateLead(ctx context.Context, tenantID, leadID string, req UpdateLeadRequest) error
	DeleteLead(ctx context.Context, tenantID, leadID string) error
	LeadStats(ctx context.Context, tenantID string) (*LeadStatsResponse, error)

	// ExportLeads 返回当前过滤集的全部线索（xlsx 导出在 HTTP 层生成）
	ExportLeads(ctx context.Context, tenantID string, filter repository.LeadFilters) ([]*domain.Lead, error)
}

type leadService struct {
	leads  repository.LeadsRepository
	logger *zap.Logger
}

func NewLeadService(leads repository.LeadsRepository, logger *zap.Logger) LeadService {
	return &leadService{leads: leads, logger: logger}
}

// LeadItem 线索（前端格式）
type LeadItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        *string   `json:"email"`
	Phone        *string   `json:"phone"`
	Status       string    `json:"status"`
	Source       *string   `json:"source"`
	OwnerUserID  *string   `json:"ownerUserId"`
	CreatedAtUtc time.Time `json:"createdAtUtc"`
	UpdatedAtUtc time.Time `json:"updatedAtUtc"`
}

func toLeadItem(l *domain.Lead) LeadItem {
	return LeadItem{
		ID:           l.LeadID,
		Name:         l.Name,
		Email:        l.Email,
		Phone:        l.Phone,
		Status:       l.Status,
		Source:       l.Source,
		OwnerUserID:  l.OwnerUserID,
		CreatedAtUtc: l.CreatedAt,
		UpdatedAtUtc: l.UpdatedAt,
	}
}

// ListLeadsRequest 列表请求（分页 + 过滤 + 排序）
type ListLeadsRequest struct {
	Page     int
	PageSize int
	Status   string
	Source   string
	Search   string
	SortBy   string
	SortDir  string
}

// ListLeadsResponse 列表响应
type ListLeadsResponse struct {
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	Items    []LeadItem `json:"items"`
}

// CreateLeadRequest 创建线索请求
type CreateLeadRequest struct {
	Name        string  `json:"name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Status      *string `json:"status"`
	Source      *string `json:"source"`
	OwnerUserID *string `json:"ownerUserId"`
}

// UpdateLeadRequest 部分更新请求：nil = 不动，空串 = 清空（name 除外）
type UpdateLeadRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Status      *string `json:"status"`
	Source      *string `json:"source"`
	OwnerUserID *string `json:"ownerUserId"`
}

// LeadStatsResponse 线索统计响应
type LeadStatsResponse struct {
	Total      int                          `json:"total"`
	ByStatus   []repository.LeadStatusCount `json:"byStatus"`
	TopSources []repository.LeadSourceCount `json:"topSources"`
	Latest     []LeadItem                   `json:"latest"`
}

func (s *leadService) ListLeads(ctx context.Context, tenantID string, req ListLeadsRequest) (*ListLeadsResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	filter := repository.LeadFilters{
		Status:  strings.TrimSpace(req.Status),
		Source:  strings.TrimSpace(req.Source),
		Search:  strings.TrimSpace(req.Search),
		SortBy:  req.SortBy,
		SortDir: req.SortDir,
	}

	leads, total, err := s.leads.ListLeads(ctx, tenantID, filter, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	items := make([]LeadItem, 0, len(leads))
	for _, l := range leads {
		items = append(items, toLeadItem(l))
	}
	return &ListLeadsResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

func (s *leadService) GetLead(ctx context.Context, tenantID, leadID string) (*LeadItem, error) {
	l, err := s.leads.GetLead(ctx, tenantID, leadID)
	if err != nil {
		return nil, err
	}
	item := toLeadItem(l)
	return &item, nil
}

func (s *leadService) CreateLead(ctx context.Context, tenantID string, req CreateLeadRequest) (*LeadItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", domain.ErrInvalidArgument)
	}

	status := "New"
	if req.Status != nil {
		if st := strings.TrimSpace(*req.Status); st != "" {
			if !domain.LeadStatuses[st] {
				return nil, fmt.Errorf("invalid status %q: %w", st, domain.ErrInvalidArgument)
			}
			status = st
		}
	}

	lead := &domain.Lead{
		LeadID:   uuid.NewString(),
		TenantID: tenantID,
		Name:     name,
		Status:   status,
	}
	lead.Email = trimmedOrNil(req.Email)
	lead.Phone = trimmedOrNil(req.Phone)
	lead.Source = trimmedOrNil(req.Source)
	if req.OwnerUserID != nil && *req.OwnerUserID != "" {
		if _, err := uuid.Parse(*req.OwnerUserID); err != nil {
			return nil, fmt.Errorf("ownerUserId must be a uuid: %w", domain.ErrInvalidArgument)
		}
		lead.OwnerUserID = req.OwnerUserID
	}

	if err := s.leads.CreateLead(ctx, lead); err != nil {
		return nil, err
	}

	s.logger.Info("lead created",
		zap.String("tenant_id", tenantID),
		zap.String("lead_id", lead.LeadID),
	)

	created, err := s.leads.GetLead(ctx, tenantID, lead.LeadID)
	if err != nil {
		return nil, err
	}
	item := toLeadItem(created)
	return &item, nil
}

func (s *leadService) UpdateLead(ctx context.Context, tenantID, leadID string, req UpdateLeadRequest) error {
	if _, err := s.leads.GetLead(ctx, tenantID, leadID); err != nil {
		return err
	}

	patch := map[string]any{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return fmt.Errorf("name cannot be empty: %w", domain.ErrInvalidArgument)
		}
		patch["name"] = name
	}
	if req.Email != nil {
		patch["email"] = nullableString(*req.Email)
	}
	if req.Phone != nil {
		patch["phone"] = nullableString(*req.Phone)
	}
	if req.Source != nil {
		patch["source"] = nullableString(*req.Source)
	}
	if req.Status != nil {
		st := strings.TrimSpace(*req.Status)
		if !domain.LeadStatuses[st] {
			return fmt.Errorf("invalid status %q: %w", st, domain.ErrInvalidArgument)
		}
		patch["status"] = st
	}
	if req.OwnerUserID != nil {
		if *req.OwnerUserID == "" {
			patch["owner_user_id"] = nil
		} else {
			if _, err := uuid.Parse(*req.OwnerUserID); err != nil {
				return fmt.Errorf("ownerUserId must be a uuid: %w", domain.ErrInvalidArgument)
			}
			patch["owner_user_id"] = *req.OwnerUserID
		}
	}

	return s.leads.UpdateLead(ctx, tenantID, leadID, patch)
}

func (s *leadService) DeleteLead(ctx context.Context, tenantID, leadID string) error {
	return s.leads.DeleteLead(ctx, tenantID, leadID)
}

func (s *leadService) LeadStats(ctx context.Context, tenantID string) (*LeadStatsResponse, error) {
	stats, err := s.leads.LeadStats(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	latest := make([]LeadItem, 0, len(stats.Latest))
	for _, l := range stats.Latest {
		latest = append(latest, toLeadItem(l))
	}
	return &LeadStatsResponse{
		Total:      stats.Total,
		ByStatus:   stats.ByStatus,
		TopSources: stats.TopSources,
		Latest:     latest,
	}, nil
}

func (s *leadService) ExportLeads(ctx context.Context, tenantID string, filter repository.LeadFilters) ([]*domain.Lead, error) {
	return s.leads.ExportLeads(ctx, tenantID, filter)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

// nullableString 空白串写 NULL，否则写 trim 后的值
func nullableString(v string) any {
	t := strings.TrimSpace(v)
	if t == "" {
		return nil
	}
	return t
}
