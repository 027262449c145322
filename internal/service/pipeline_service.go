package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsecrm/pulsecrm/internal/domain"
	"github.com/pulsecrm/pulsecrm/internal/repository"
)

// PipelineService 管道阶段服务接口
type PipelineService interface {
	// GetStages 返回租户的阶段列表（升序）。首次调用时懒播种六个默认阶段。
	GetStages(ctx context.Context, tenantID string) ([]StageItem, error)
}

type pipelineService struct {
	stages repository.StagesRepository
	logger *zap.Logger
}

func NewPipelineService(stages repository.StagesRepository, logger *zap.Logger) PipelineService {
	return &pipelineService{stages: stages, logger: logger}
}

// StageItem 阶段（前端格式）
type StageItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
	Kind  string `json:"kind"`
}

func (s *pipelineService) GetStages(ctx context.Context, tenantID string) ([]StageItem, error) {
	stages, err := s.stages.ListStages(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if len(stages) == 0 {
		seeds := make([]*domain.PipelineStage, 0, 6)
		for _, def := range domain.DefaultStages() {
			seeds = append(seeds, &domain.PipelineStage{
				StageID:    uuid.NewString(),
				TenantID:   tenantID,
				StageName:  def.Name,
				StageOrder: def.Order,
				Kind:       domain.KindForStageName(def.Name),
			})
		}
		if err := s.stages.SeedDefaultStages(ctx, seeds); err != nil {
			return nil, err
		}
		s.logger.Info("seeded default pipeline stages", zap.String("tenant_id", tenantID))

		// 重新读取：并发播种时 ON CONFLICT 丢弃了一部分插入，
		// 以数据库里的最终阶段集为准
		stages, err = s.stages.ListStages(ctx, tenantID)
		if err != nil {
			return nil, err
		}
	}

	items := make([]StageItem, 0, len(stages))
	for _, st := range stages {
		items = append(items, StageItem{
			ID:    st.StageID,
			Name:  st.StageName,
			Order: st.StageOrder,
			Kind:  string(st.Kind),
		})
	}
	return items, nil
}
