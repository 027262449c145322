package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pulsecrm/pulsecrm/internal/domain"
)

// PostgresLeadsRepository 线索Repository实现
type PostgresLeadsRepository struct {
	db *sql.DB
}

func NewPostgresLeadsRepository(db *sql.DB) *PostgresLeadsRepository {
	return &PostgresLeadsRepository{db: db}
}

var _ LeadsRepository = (*PostgresLeadsRepository)(nil)

const leadColumns = `
	lead_id::text,
	tenant_id::text,
	owner_user_id::text,
	name,
	email,
	phone,
	status,
	source,
	created_at,
	updated_at
`

func scanLeadRow(scan func(dest ...any) error) (*domain.Lead, error) {
	var l domain.Lead
	var ownerID, email, phone, source sql.NullString
	err := scan(
		&l.LeadID,
		&l.TenantID,
		&ownerID,
		&l.Name,
		&email,
		&phone,
		&l.Status,
		&source,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if ownerID.Valid {
		l.OwnerUserID = &ownerID.String
	}
	if email.Valid {
		l.Email = &email.String
	}
	if phone.Valid {
		l.Phone = &phone.String
	}
	if source.Valid {
		l.Source = &source.String
	}
	return &l, nil
}

// buildLeadWhere 构建租户 + 过滤条件，返回 WHERE 子句和参数表。
func buildLeadWhere(tenantID string, filter LeadFilters) (string, []any) {
	where := []string{"tenant_id = $1::uuid"}
	args := []any{tenantID}
	argN := 2

	if s := strings.TrimSpace(filter.Status); s != "" {
		where = append(where, fmt.Sprintf("status = $%d", argN))
		args = append(args, s)
		argN++
	}
	if s := strings.TrimSpace(filter.Source); s != "" {
		where = append(where, fmt.Sprintf("source = $%d", argN))
		args = append(args, s)
		argN++
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + s + "%"
		where = append(where, fmt.Sprintf(
			"(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", argN, argN, argN))
		args = append(args, pattern)
		argN++
	}

	return strings.Join(where, " AND "), args
}

// leadOrderBy 排序白名单，防止拼接任意列名。
func leadOrderBy(filter LeadFilters) string {
	dir := "DESC"
	if strings.EqualFold(filter.SortDir, "asc") {
		dir = "ASC"
	}
	switch strings.ToLower(strings.TrimSpace(filter.SortBy)) {
	case "name":
		return "name " + dir
	case "status":
		return "status " + dir
	default:
		return "created_at " + dir
	}
}

func (r *PostgresLeadsRepository) ListLeads(ctx context.Context, tenantID string, filter LeadFilters, page, size int) ([]*domain.Lead, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	whereClause, args := buildLeadWhere(tenantID, filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM leads WHERE " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM leads WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		leadColumns, whereClause, leadOrderBy(filter), len(args)+1, len(args)+2)
	args = append(args, size, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]*domain.Lead, 0)
	for rows.Next() {
		l, err := scanLeadRow(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate leads: %w", err)
	}

	return leads, total, nil
}

func (r *PostgresLeadsRepository) ExportLeads(ctx context.Context, tenantID string, filter LeadFilters) ([]*domain.Lead, error) {
	whereClause, args := buildLeadWhere(tenantID, filter)
	query := fmt.Sprintf(
		"SELECT %s FROM leads WHERE %s ORDER BY %s",
		leadColumns, whereClause, leadOrderBy(filter))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to export leads: %w", err)
	}
	defer rows.Close()

	leads := make([]*domain.Lead, 0)
	for rows.Next() {
		l, err := scanLeadRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
	}
	return leads, nil
}

func (r *PostgresLeadsRepository) GetLead(ctx context.Context, tenantID, leadID string) (*domain.Lead, error) {
	query := "SELECT " + leadColumns + " FROM leads WHERE tenant_id = $1::uuid AND lead_id = $2::uuid"
	l, err := scanLeadRow(r.db.QueryRowContext(ctx, query, tenantID, leadID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("lead %s: %w", leadID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return l, nil
}

func (r *PostgresLeadsRepository) CreateLead(ctx context.Context, lead *domain.Lead) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO leads (lead_id, tenant_id, owner_user_id, name, email, phone, status, source)
		 VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8)`,
		lead.LeadID, lead.TenantID, lead.OwnerUserID,
		lead.Name, lead.Email, lead.Phone, lead.Status, lead.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

func (r *PostgresLeadsRepository) UpdateLead(ctx context.Context, tenantID, leadID string, patch map[string]any) error {
	set := []string{}
	args := []any{tenantID, leadID}
	argN := 3
	add := func(col string, v any) {
		set = append(set, fmt.Sprintf("%s = $%d", col, argN))
		args = append(args, v)
		argN++
	}
	for _, col := range []string{"name", "email", "phone", "status", "source", "owner_user_id"} {
		if v, ok := patch[col]; ok {
			add(col, v)
		}
	}
	set = append(set, "updated_at = now()")

	q := "UPDATE leads SET " + strings.Join(set, ", ") +
		" WHERE tenant_id = $1::uuid AND lead_id = $2::uuid"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lead %s: %w", leadID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresLeadsRepository) DeleteLead(ctx context.Context, tenantID, leadID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM leads WHERE tenant_id = $1::uuid AND lead_id = $2::uuid`,
		tenantID, leadID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lead %s: %w", leadID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresLeadsRepository) LeadStats(ctx context.Context, tenantID string) (*LeadStats, error) {
	stats := &LeadStats{
		ByStatus:   []LeadStatusCount{},
		TopSources: []LeadSourceCount{},
		Latest:     []*domain.Lead{},
	}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads WHERE tenant_id = $1::uuid`, tenantID,
	).Scan(&stats.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) AS count
		 FROM leads
		 WHERE tenant_id = $1::uuid
		 GROUP BY status
		 ORDER BY count DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to group leads by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c LeadStatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus = append(stats.ByStatus, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status counts: %w", err)
	}

	srcRows, err := r.db.QueryContext(ctx,
		`SELECT source, COUNT(*) AS count
		 FROM leads
		 WHERE tenant_id = $1::uuid AND source IS NOT NULL AND source <> ''
		 GROUP BY source
		 ORDER BY count DESC
		 LIMIT 5`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to group leads by source: %w", err)
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var c LeadSourceCount
		if err := srcRows.Scan(&c.Source, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan source count: %w", err)
		}
		stats.TopSources = append(stats.TopSources, c)
	}
	if err := srcRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source counts: %w", err)
	}

	latestRows, err := r.db.QueryContext(ctx,
		"SELECT "+leadColumns+` FROM leads
		 WHERE tenant_id = $1::uuid
		 ORDER BY created_at DESC
		 LIMIT 5`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest leads: %w", err)
	}
	defer latestRows.Close()
	for latestRows.Next() {
		l, err := scanLeadRow(latestRows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan latest lead: %w", err)
		}
		stats.Latest = append(stats.Latest, l)
	}
	if err := latestRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate latest leads: %w", err)
	}

	return stats, nil
}
