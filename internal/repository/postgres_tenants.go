package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulsecrm/pulsecrm/internal/domain"
)

// PostgresTenantsRepository 租户Repository实现
type PostgresTenantsRepository struct {
	db *sql.DB
}

func NewPostgresTenantsRepository(db *sql.DB) *PostgresTenantsRepository {
	return &PostgresTenantsRepository{db: db}
}

// 确保实现了接口
var _ TenantsRepository = (*PostgresTenantsRepository)(nil)

func (r *PostgresTenantsRepository) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required: %w", domain.ErrInvalidArgument)
	}

	query := `
		SELECT tenant_id::text, tenant_name, created_at
		FROM tenants
		WHERE tenant_id = $1::uuid
	`

	var tenant domain.Tenant
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(
		&tenant.TenantID,
		&tenant.TenantName,
		&tenant.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrTenantNotFound)
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &tenant, nil
}

func (r *PostgresTenantsRepository) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE tenant_id = $1::uuid)`,
		tenantID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check tenant existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresTenantsRepository) AnyTenant(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tenants)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for tenants: %w", err)
	}
	return exists, nil
}

func (r *PostgresTenantsRepository) CreateTenant(ctx context.Context, tenant *domain.Tenant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (tenant_id, tenant_name) VALUES ($1::uuid, $2)`,
		tenant.TenantID, tenant.TenantName,
	)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}
