package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pulsecrm/pulsecrm/internal/domain"
	"github.com/pulsecrm/pulsecrm/internal/repository"
)

// DealService 商机服务接口。MoveDeal 是整个系统的核心：
// 阶段移动校验、派生状态重算、审计追加。
type DealService interface {
	ListDeals(ctx context.Context, tenantID, stageID string) ([]DealItem, error)
	CreateDeal(ctx context.Context, tenantID string, req CreateDealRequest) (*DealItem, error)
	UpdateDeal(ctx context.Context, tenantID, dealID string, req UpdateDealRequest) error
	MoveDeal(ctx context.Context, tenantID, dealID, toStageID, actorID string) error
	DeleteDeal(ctx context.Context, tenantID, dealID string) error
	ListHistory(ctx context.Context, tenantID, dealID string) ([]HistoryItem, error)
	DealStats(ctx context.Context, tenantID string) ([]repository.DealStatusTotal, error)
}

type dealService struct {
	deals   repository.DealsRepository
	stages  repository.StagesRepository
	history repository.HistoryRepository
	logger  *zap.Logger
}

func NewDealService(
	deals repository.DealsRepository,
	stages repository.StagesRepository,
	history repository.HistoryRepository,
	logger *zap.Logger,
) DealService {
	return &dealService{
		deals:   deals,
		stages:  stages,
		history: history,
		logger:  logger,
	}
}

// DealItem 商机（前端格式）
type DealItem struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Company      *string          `json:"company"`
	Amount       *decimal.Decimal `json:"amount"`
	Status       string           `json:"status"`
	StageID      string           `json:"stageId"`
	CreatedAtUtc time.Time        `json:"createdAtUtc"`
	UpdatedAtUtc time.Time        `json:"updatedAtUtc"`
}

func toDealItem(d *domain.Deal) DealItem {
	item := DealItem{
		ID:           d.DealID,
		Title:        d.Title,
		Company:      d.Company,
		Status:       string(d.Status),
		StageID:      d.StageID,
		CreatedAtUtc: d.CreatedAt,
		UpdatedAtUtc: d.UpdatedAt,
	}
	if d.Amount.Valid {
		amount := d.Amount.Decimal
		item.Amount = &amount
	}
	return item
}

// HistoryItem 移动审计记录（前端格式）
type HistoryItem struct {
	ID            string    `json:"id"`
	FromStageID   string    `json:"fromStageId"`
	ToStageID     string    `json:"toStageId"`
	MovedByUserID string    `json:"movedByUserId"`
	MovedAtUtc    time.Time `json:"movedAtUtc"`
}

// CreateDealRequest 创建商机请求
type CreateDealRequest struct {
	StageID string           `json:"stageId"`
	Title   string           `json:"title"`
	Company *string          `json:"company"`
	Amount  *decimal.Decimal `json:"amount"`
}

// UpdateDealRequest 部分更新请求。三态语义靠 json.RawMessage：
// 字段缺席 = 不动，显式 null = 清空，有值 = 设置。
type UpdateDealRequest struct {
	Title   *string         `json:"title"`
	Company *string         `json:"company"`
	Amount  json.RawMessage `json:"amount"`
}

func (s *dealService) ListDeals(ctx context.Context, tenantID, stageID string) ([]DealItem, error) {
	if stageID != "" {
		if _, err := uuid.Parse(stageID); err != nil {
			return nil, fmt.Errorf("stageId must be a uuid: %w", domain.ErrInvalidArgument)
		}
	}
	deals, err := s.deals.ListDeals(ctx, tenantID, stageID)
	if err != nil {
		return nil, err
	}
	items := make([]DealItem, 0, len(deals))
	for _, d := range deals {
		items = append(items, toDealItem(d))
	}
	return items, nil
}

func (s *dealService) CreateDeal(ctx context.Context, tenantID string, req CreateDealRequest) (*DealItem, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrInvalidArgument)
	}

	// 目标阶段必须属于本租户；查不到就是无效目标
	stage, err := s.stages.GetStage(ctx, tenantID, req.StageID)
	if err != nil {
		return nil, err
	}

	deal := &domain.Deal{
		DealID:   uuid.NewString(),
		TenantID: tenantID,
		StageID:  stage.StageID,
		Title:    title,
		Status:   domain.StatusForKind(stage.Kind),
	}
	if req.Company != nil {
		if company := strings.TrimSpace(*req.Company); company != "" {
			deal.Company = &company
		}
	}
	if req.Amount != nil {
		deal.Amount = decimal.NullDecimal{Decimal: *req.Amount, Valid: true}
	}

	if err := s.deals.CreateDeal(ctx, deal); err != nil {
		return nil, err
	}

	s.logger.Info("deal created",
		zap.String("tenant_id", tenantID),
		zap.String("deal_id", deal.DealID),
		zap.String("stage_id", stage.StageID),
	)

	created, err := s.deals.GetDeal(ctx, tenantID, deal.DealID)
	if err != nil {
		return nil, err
	}
	item := toDealItem(created)
	return &item, nil
}

func (s *dealService) UpdateDeal(ctx context.Context, tenantID, dealID string, req UpdateDealRequest) error {
	// 先确认 deal 存在（租户内），保证 404 语义
	if _, err := s.deals.GetDeal(ctx, tenantID, dealID); err != nil {
		return err
	}

	patch := map[string]any{}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return fmt.Errorf("title cannot be empty: %w", domain.ErrInvalidArgument)
		}
		patch["title"] = title
	}

	if req.Company != nil {
		if company := strings.TrimSpace(*req.Company); company == "" {
			patch["company"] = nil
		} else {
			patch["company"] = company
		}
	}

	if amount, set, err := parseAmountPatch(req.Amount); err != nil {
		return err
	} else if set {
		if amount == nil {
			patch["amount"] = nil
		} else {
			patch["amount"] = *amount
		}
	}

	return s.deals.UpdateDealFields(ctx, tenantID, dealID, patch)
}

// parseAmountPatch 解析三态 amount：缺席 / null / 数字。
// 其它任何 JSON 形态（字符串、布尔、对象）都是 InvalidArgument。
func parseAmountPatch(raw json.RawMessage) (*decimal.Decimal, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, true, nil
	}
	c := trimmed[0]
	if c != '-' && (c < '0' || c > '9') {
		return nil, false, fmt.Errorf("amount must be a number or null: %w", domain.ErrInvalidArgument)
	}
	d, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		return nil, false, fmt.Errorf("amount must be a number or null: %w", domain.ErrInvalidArgument)
	}
	return &d, true, nil
}

// MoveDeal 阶段移动引擎：
//  1. 租户内加载 deal（NotFound）；
//  2. 租户内加载目标阶段（InvalidTarget，同时挡住跨租户移动）；
//  3. 目标即当前阶段 → 幂等空操作，不写任何东西；
//  4. 由目标阶段 kind 重算派生状态；
//  5. 带版本号的原子写入：UPDATE deal + INSERT history 同一事务，
//     版本不匹配返回 Conflict。
func (s *dealService) MoveDeal(ctx context.Context, tenantID, dealID, toStageID, actorID string) error {
	deal, err := s.deals.GetDeal(ctx, tenantID, dealID)
	if err != nil {
		return err
	}

	stage, err := s.stages.GetStage(ctx, tenantID, toStageID)
	if err != nil {
		return err
	}

	if stage.StageID == deal.StageID {
		return nil
	}

	mover := actorID
	if _, err := uuid.Parse(mover); err != nil {
		// 不可判定的操作者记为系统哨兵，绝不借用其它实体的 id 顶替
		s.logger.Warn("deal move without a valid actor id, recording system sentinel",
			zap.String("tenant_id", tenantID),
			zap.String("deal_id", dealID),
		)
		mover = domain.SystemUserID
	}

	move := repository.DealMove{
		TenantID:      tenantID,
		DealID:        deal.DealID,
		FromStageID:   deal.StageID,
		ToStageID:     stage.StageID,
		Status:        domain.StatusForKind(stage.Kind),
		MovedByUserID: mover,
		HistoryID:     uuid.NewString(),
		RowVersion:    deal.RowVersion,
	}
	if err := s.deals.MoveDeal(ctx, move); err != nil {
		return err
	}

	s.logger.Info("deal moved",
		zap.String("tenant_id", tenantID),
		zap.String("deal_id", deal.DealID),
		zap.String("from_stage_id", move.FromStageID),
		zap.String("to_stage_id", move.ToStageID),
		zap.String("status", string(move.Status)),
	)
	return nil
}

func (s *dealService) DeleteDeal(ctx context.Context, tenantID, dealID string) error {
	return s.deals.DeleteDeal(ctx, tenantID, dealID)
}

func (s *dealService) ListHistory(ctx context.Context, tenantID, dealID string) ([]HistoryItem, error) {
	// deal 必须存在且属于本租户，否则 history 查询会把 404 变成空列表
	if _, err := s.deals.GetDeal(ctx, tenantID, dealID); err != nil {
		return nil, err
	}

	entries, err := s.history.ListHistory(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}
	items := make([]HistoryItem, 0, len(entries))
	for _, h := range entries {
		items = append(items, HistoryItem{
			ID:            h.HistoryID,
			FromStageID:   h.FromStageID,
			ToStageID:     h.ToStageID,
			MovedByUserID: h.MovedByUserID,
			MovedAtUtc:    h.MovedAt,
		})
	}
	return items, nil
}

func (s *dealService) DealStats(ctx context.Context, tenantID string) ([]repository.DealStatusTotal, error) {
	return s.deals.DealStats(ctx, tenantID)
}
