package domain

import "time"

// Tenant is the isolation boundary. Every other entity carries a tenant_id
// and every query is scoped by it.
type Tenant struct {
	TenantID   string    `db:"tenant_id"`   // UUID, PRIMARY KEY
	TenantName string    `db:"tenant_name"` // VARCHAR(200), NOT NULL
	CreatedAt  time.Time `db:"created_at"`
}
