package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulsecrm/pulsecrm/internal/domain"
)

// PostgresHistoryRepository 审计账本的只读实现
type PostgresHistoryRepository struct {
	db *sql.DB
}

func NewPostgresHistoryRepository(db *sql.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

var _ HistoryRepository = (*PostgresHistoryRepository)(nil)

func (r *PostgresHistoryRepository) ListHistory(ctx context.Context, tenantID, dealID string) ([]*domain.DealStageHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT
			history_id::text,
			tenant_id::text,
			deal_id::text,
			from_stage_id::text,
			to_stage_id::text,
			moved_by_user_id::text,
			moved_at
		 FROM deal_stage_history
		 WHERE tenant_id = $1::uuid AND deal_id = $2::uuid
		 ORDER BY moved_at ASC`,
		tenantID, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage history: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.DealStageHistory, 0)
	for rows.Next() {
		var h domain.DealStageHistory
		if err := rows.Scan(
			&h.HistoryID,
			&h.TenantID,
			&h.DealID,
			&h.FromStageID,
			&h.ToStageID,
			&h.MovedByUserID,
			&h.MovedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return entries, nil
}
