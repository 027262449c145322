package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulsecrm/pulsecrm/internal/domain"
)

// PostgresStagesRepository 管道阶段Repository实现
type PostgresStagesRepository struct {
	db *sql.DB
}

func NewPostgresStagesRepository(db *sql.DB) *PostgresStagesRepository {
	return &PostgresStagesRepository{db: db}
}

var _ StagesRepository = (*PostgresStagesRepository)(nil)

const stageColumns = `
	stage_id::text,
	tenant_id::text,
	stage_name,
	stage_order,
	kind,
	created_at
`

func (r *PostgresStagesRepository) ListStages(ctx context.Context, tenantID string) ([]*domain.PipelineStage, error) {
	query := "SELECT " + stageColumns + `
		FROM pipeline_stages
		WHERE tenant_id = $1::uuid
		ORDER BY stage_order ASC
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	defer rows.Close()

	stages := make([]*domain.PipelineStage, 0)
	for rows.Next() {
		var s domain.PipelineStage
		if err := rows.Scan(
			&s.StageID,
			&s.TenantID,
			&s.StageName,
			&s.StageOrder,
			&s.Kind,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		stages = append(stages, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stages: %w", err)
	}
	return stages, nil
}

func (r *PostgresStagesRepository) GetStage(ctx context.Context, tenantID, stageID string) (*domain.PipelineStage, error) {
	query := "SELECT " + stageColumns + `
		FROM pipeline_stages
		WHERE tenant_id = $1::uuid AND stage_id = $2::uuid
	`
	var s domain.PipelineStage
	err := r.db.QueryRowContext(ctx, query, tenantID, stageID).Scan(
		&s.StageID,
		&s.TenantID,
		&s.StageName,
		&s.StageOrder,
		&s.Kind,
		&s.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("stage %s: %w", stageID, domain.ErrInvalidTarget)
		}
		return nil, fmt.Errorf("failed to get stage: %w", err)
	}
	return &s, nil
}

func (r *PostgresStagesRepository) SeedDefaultStages(ctx context.Context, stages []*domain.PipelineStage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, s := range stages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pipeline_stages (stage_id, tenant_id, stage_name, stage_order, kind)
			 VALUES ($1::uuid, $2::uuid, $3, $4, $5)
			 ON CONFLICT (tenant_id, stage_order) DO NOTHING`,
			s.StageID, s.TenantID, s.StageName, s.StageOrder, s.Kind,
		); err != nil {
			return fmt.Errorf("failed to seed stage %q: %w", s.StageName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return nil
}
