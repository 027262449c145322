package repository

import (
	"context"

	"github.com/pulsecrm/pulsecrm/internal/domain"
)

// TenantsRepository 租户Repository接口
// 使用强类型领域模型，不使用map[string]any
type TenantsRepository interface {
	// GetTenant 根据tenant_id获取租户信息
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)

	// TenantExists 租户存在性检查（中间件每个请求都会调用）
	TenantExists(ctx context.Context, tenantID string) (bool, error)

	// AnyTenant 是否已有任意租户（/setup/seed 的一次性保护）
	AnyTenant(ctx context.Context) (bool, error)

	// CreateTenant 创建新租户
	CreateTenant(ctx context.Context, tenant *domain.Tenant) error
}
