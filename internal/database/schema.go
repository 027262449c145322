package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements 启动时执行的建表语句。全部幂等（IF NOT EXISTS），
// 重启不会破坏已有数据。
//
// 注意两个关键约束：
//   - pipeline_stages UNIQUE (tenant_id, stage_order)：两个并发的
//     "首次读取" 同时播种默认阶段时，靠它 + ON CONFLICT DO NOTHING 收敛；
//   - deals.stage_id ON DELETE RESTRICT：没有阶段的 deal 没有意义，
//     阶段删除必须被拒绝而不是级联。
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		tenant_id   uuid PRIMARY KEY,
		tenant_name varchar(200) NOT NULL,
		created_at  timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		user_id       uuid PRIMARY KEY,
		tenant_id     uuid NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
		name          varchar(200) NOT NULL,
		email         varchar(200) NOT NULL,
		password_hash text NOT NULL,
		role          varchar(50) NOT NULL DEFAULT 'Admin',
		is_active     boolean NOT NULL DEFAULT true,
		created_at    timestamptz NOT NULL DEFAULT now(),
		UNIQUE (tenant_id, email)
	)`,

	`CREATE TABLE IF NOT EXISTS leads (
		lead_id       uuid PRIMARY KEY,
		tenant_id     uuid NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
		owner_user_id uuid,
		name          varchar(200) NOT NULL,
		email         varchar(200),
		phone         varchar(50),
		status        varchar(50) NOT NULL DEFAULT 'New',
		source        varchar(100),
		created_at    timestamptz NOT NULL DEFAULT now(),
		updated_at    timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_leads_tenant_created
		ON leads (tenant_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS pipeline_stages (
		stage_id    uuid PRIMARY KEY,
		tenant_id   uuid NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
		stage_name  varchar(100) NOT NULL,
		stage_order integer NOT NULL,
		kind        varchar(20) NOT NULL DEFAULT 'standard'
		            CHECK (kind IN ('standard','won','lost')),
		created_at  timestamptz NOT NULL DEFAULT now(),
		UNIQUE (tenant_id, stage_order)
	)`,

	`CREATE TABLE IF NOT EXISTS deals (
		deal_id     uuid PRIMARY KEY,
		tenant_id   uuid NOT NULL REFERENCES tenants(tenant_id) ON DELETE CASCADE,
		stage_id    uuid NOT NULL REFERENCES pipeline_stages(stage_id) ON DELETE RESTRICT,
		title       varchar(200) NOT NULL,
		company     varchar(200),
		amount      numeric(14,2),
		status      varchar(10) NOT NULL DEFAULT 'Open'
		            CHECK (status IN ('Open','Won','Lost')),
		row_version bigint NOT NULL DEFAULT 1,
		created_at  timestamptz NOT NULL DEFAULT now(),
		updated_at  timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_deals_tenant_updated
		ON deals (tenant_id, updated_at DESC)`,

	`CREATE TABLE IF NOT EXISTS deal_stage_history (
		history_id       uuid PRIMARY KEY,
		tenant_id        uuid NOT NULL,
		deal_id          uuid NOT NULL REFERENCES deals(deal_id) ON DELETE CASCADE,
		from_stage_id    uuid NOT NULL,
		to_stage_id      uuid NOT NULL,
		moved_by_user_id uuid NOT NULL,
		moved_at         timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_history_tenant_deal
		ON deal_stage_history (tenant_id, deal_id, moved_at)`,
}

// Bootstrap 应用内建 schema。与 cmd/apply-migration 不冲突：
// 后者用于增量迁移文件，这里只保证首次启动可用。
func Bootstrap(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i+1, err)
		}
	}
	return nil
}
