package domain

import "time"

// Lead 线索领域模型（对应 leads 表）
// 线索状态是普通字段，与 Deal 的派生 status 不同，可以直接更新。
type Lead struct {
	LeadID      string    `db:"lead_id"`   // UUID, PRIMARY KEY
	TenantID    string    `db:"tenant_id"` // UUID, NOT NULL
	OwnerUserID *string   `db:"owner_user_id"`
	Name        string    `db:"name"`
	Email       *string   `db:"email"`
	Phone       *string   `db:"phone"`
	Status      string    `db:"status"` // New / Contacted / Qualified / Lost
	Source      *string   `db:"source"` // 来源：Instagram、Referral、Site...
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// LeadStatuses 允许的线索状态集合
var LeadStatuses = map[string]bool{
	"New":       true,
	"Contacted": true,
	"Qualified": true,
	"Lost":      true,
}
