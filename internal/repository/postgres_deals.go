package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pulsecrm/pulsecrm/internal/domain"
)

// PostgresDealsRepository 商机Repository实现
type PostgresDealsRepository struct {
	db *sql.DB
}

func NewPostgresDealsRepository(db *sql.DB) *PostgresDealsRepository {
	return &PostgresDealsRepository{db: db}
}

var _ DealsRepository = (*PostgresDealsRepository)(nil)

const dealColumns = `
	deal_id::text,
	tenant_id::text,
	stage_id::text,
	title,
	company,
	amount,
	status,
	row_version,
	created_at,
	updated_at
`

func scanDealRow(scan func(dest ...any) error) (*domain.Deal, error) {
	var d domain.Deal
	var company sql.NullString
	err := scan(
		&d.DealID,
		&d.TenantID,
		&d.StageID,
		&d.Title,
		&company,
		&d.Amount,
		&d.Status,
		&d.RowVersion,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if company.Valid {
		d.Company = &company.String
	}
	return &d, nil
}

func (r *PostgresDealsRepository) ListDeals(ctx context.Context, tenantID, stageID string) ([]*domain.Deal, error) {
	query := "SELECT " + dealColumns + " FROM deals WHERE tenant_id = $1::uuid"
	args := []any{tenantID}
	if stageID != "" {
		query += " AND stage_id = $2::uuid"
		args = append(args, stageID)
	}
	query += " ORDER BY updated_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	deals := make([]*domain.Deal, 0)
	for rows.Next() {
		d, err := scanDealRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deals: %w", err)
	}
	return deals, nil
}

func (r *PostgresDealsRepository) GetDeal(ctx context.Context, tenantID, dealID string) (*domain.Deal, error) {
	query := "SELECT " + dealColumns + " FROM deals WHERE tenant_id = $1::uuid AND deal_id = $2::uuid"
	d, err := scanDealRow(r.db.QueryRowContext(ctx, query, tenantID, dealID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("deal %s: %w", dealID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	return d, nil
}

func (r *PostgresDealsRepository) CreateDeal(ctx context.Context, deal *domain.Deal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO deals (deal_id, tenant_id, stage_id, title, company, amount, status)
		 VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7)`,
		deal.DealID, deal.TenantID, deal.StageID,
		deal.Title, deal.Company, deal.Amount, deal.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}
	return nil
}

func (r *PostgresDealsRepository) UpdateDealFields(ctx context.Context, tenantID, dealID string, patch map[string]any) error {
	set := []string{}
	args := []any{tenantID, dealID}
	argN := 3
	add := func(col string, v any) {
		set = append(set, fmt.Sprintf("%s = $%d", col, argN))
		args = append(args, v)
		argN++
	}
	for _, col := range []string{"title", "company", "amount"} {
		if v, ok := patch[col]; ok {
			add(col, v)
		}
	}
	// 空 patch 也要刷新 updated_at（与字段更新成功的语义一致）
	set = append(set, "updated_at = now()")

	q := "UPDATE deals SET " + strings.Join(set, ", ") +
		" WHERE tenant_id = $1::uuid AND deal_id = $2::uuid"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to update deal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deal %s: %w", dealID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresDealsRepository) MoveDeal(ctx context.Context, m DealMove) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin move transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE deals
		 SET stage_id = $3::uuid, status = $4, row_version = row_version + 1, updated_at = now()
		 WHERE tenant_id = $1::uuid AND deal_id = $2::uuid AND row_version = $5`,
		m.TenantID, m.DealID, m.ToStageID, m.Status, m.RowVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update deal stage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// deal 被并发修改（或已删除）：让调用方重试而不是静默覆盖
		return fmt.Errorf("deal %s version %d: %w", m.DealID, m.RowVersion, domain.ErrConflict)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO deal_stage_history
		   (history_id, tenant_id, deal_id, from_stage_id, to_stage_id, moved_by_user_id)
		 VALUES ($1::uuid, $2::uuid, $3::uuid, $4::uuid, $5::uuid, $6::uuid)`,
		m.HistoryID, m.TenantID, m.DealID, m.FromStageID, m.ToStageID, m.MovedByUserID,
	); err != nil {
		return fmt.Errorf("failed to append stage history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit move transaction: %w", err)
	}
	return nil
}

func (r *PostgresDealsRepository) DeleteDeal(ctx context.Context, tenantID, dealID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM deals WHERE tenant_id = $1::uuid AND deal_id = $2::uuid`,
		tenantID, dealID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deal %s: %w", dealID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresDealsRepository) DealStats(ctx context.Context, tenantID string) ([]DealStatusTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(amount), 0)
		 FROM deals
		 WHERE tenant_id = $1::uuid
		 GROUP BY status
		 ORDER BY status`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate deals: %w", err)
	}
	defer rows.Close()

	totals := make([]DealStatusTotal, 0)
	for rows.Next() {
		var t DealStatusTotal
		if err := rows.Scan(&t.Status, &t.Count, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan deal total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deal totals: %w", err)
	}
	return totals, nil
}
