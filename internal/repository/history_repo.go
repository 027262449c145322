package repository

import (
	"context"

	"github.com/pulsecrm/pulsecrm/internal/domain"
)

// HistoryRepository 阶段移动审计记录的只读接口。
// 没有写方法：唯一的写路径在 DealsRepository.MoveDeal 的事务里。
type HistoryRepository interface {
	// ListHistory 按 moved_at 升序返回某个 deal 的全部移动记录
	ListHistory(ctx context.Context, tenantID, dealID string) ([]*domain.DealStageHistory, error)
}
