package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/pulsecrm/pulsecrm/internal/domain"
)

// DealMove 一次阶段移动的全部写入参数。
// RowVersion 是调用方读到的版本号，UPDATE 带 CAS 条件：版本已变则整个
// 移动失败（domain.ErrConflict），deal 和 history 都不落库。
type DealMove struct {
	TenantID      string
	DealID        string
	FromStageID   string
	ToStageID     string
	Status        domain.DealStatus
	MovedByUserID string
	HistoryID     string
	RowVersion    int64
}

// DealStatusTotal 按状态聚合的商机统计
type DealStatusTotal struct {
	Status string          `json:"status"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"` // 有金额的 deal 求和，NULL 不计入
}

// DealsRepository 商机Repository接口
// 历史表的唯一写入口是 MoveDeal：deal 更新和 history 追加同一事务提交，
// 保证 "每行 history 对应一次真实校验过的移动"。
type DealsRepository interface {
	// ListDeals 租户内列表，stageID 非空时按当前阶段过滤，updated_at 降序
	ListDeals(ctx context.Context, tenantID, stageID string) ([]*domain.Deal, error)

	GetDeal(ctx context.Context, tenantID, dealID string) (*domain.Deal, error)
	CreateDeal(ctx context.Context, deal *domain.Deal) error

	// UpdateDealFields 动态部分更新（title/company/amount）。
	// 不触碰 stage/status/history，总是刷新 updated_at。
	UpdateDealFields(ctx context.Context, tenantID, dealID string, patch map[string]any) error

	// MoveDeal 原子移动：UPDATE deals（CAS row_version）+ INSERT history，
	// 两者要么都提交要么都回滚。版本不匹配返回 domain.ErrConflict。
	MoveDeal(ctx context.Context, m DealMove) error

	DeleteDeal(ctx context.Context, tenantID, dealID string) error

	// DealStats 按状态统计数量与金额合计
	DealStats(ctx context.Context, tenantID string) ([]DealStatusTotal, error)
}
