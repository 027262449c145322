package repository

import (
	"context"

	"github.com/pulsecrm/pulsecrm/internal/domain"
)

// StagesRepository 管道阶段Repository接口
// 本范围内阶段不可变：没有更新/删除操作，只有播种和读取。
type StagesRepository interface {
	// ListStages 按 stage_order 升序返回租户的全部阶段
	ListStages(ctx context.Context, tenantID string) ([]*domain.PipelineStage, error)

	// GetStage 租户内按 stage_id 取阶段；不存在时返回 domain.ErrInvalidTarget
	// （查不到即意味着目标阶段无效，包括属于其它租户的阶段）
	GetStage(ctx context.Context, tenantID, stageID string) (*domain.PipelineStage, error)

	// SeedDefaultStages 单事务插入默认阶段。
	// ON CONFLICT (tenant_id, stage_order) DO NOTHING：两个并发的首次
	// 请求同时播种时收敛为一套，不会出现重复阶段集。
	SeedDefaultStages(ctx context.Context, stages []*domain.PipelineStage) error
}
