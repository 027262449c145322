package domain

import "time"

// SystemUserID is the sentinel actor recorded on a mutation that cannot be
// attributed to a real user. It is never a valid users.user_id, so the audit
// trail always distinguishes system actions from user actions.
const SystemUserID = "00000000-0000-0000-0000-000000000000"

// User 用户领域模型（对应 users 表）
// Email is unique within a tenant, not globally.
type User struct {
	UserID       string    `db:"user_id"`   // UUID, PRIMARY KEY
	TenantID     string    `db:"tenant_id"` // UUID, NOT NULL
	Name         string    `db:"name"`
	Email        string    `db:"email"` // stored lowercased
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"` // DEFAULT 'Admin'
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
}
