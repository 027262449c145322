package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DealStatus 商机派生状态。永远由当前阶段计算得出，客户端不能直接设置。
type DealStatus string

const (
	DealStatusOpen DealStatus = "Open"
	DealStatusWon  DealStatus = "Won"
	DealStatusLost DealStatus = "Lost"
)

// StatusForKind 由阶段 kind 计算派生状态。全函数：非 won/lost 的
// 一切阶段（包括自定义阶段）都得到 Open。
func StatusForKind(k StageKind) DealStatus {
	switch k {
	case StageKindWon:
		return DealStatusWon
	case StageKindLost:
		return DealStatusLost
	default:
		return DealStatusOpen
	}
}

// Deal 商机领域模型（对应 deals 表）
// Amount 可空：无金额和零金额是两个不同的状态。
// RowVersion 用于移动操作的乐观并发控制（CAS）。
type Deal struct {
	DealID     string              `db:"deal_id"`   // UUID, PRIMARY KEY
	TenantID   string              `db:"tenant_id"` // UUID, NOT NULL
	StageID    string              `db:"stage_id"`  // UUID, NOT NULL, FK RESTRICT
	Title      string              `db:"title"`
	Company    *string             `db:"company"`
	Amount     decimal.NullDecimal `db:"amount"` // NUMERIC(14,2), nullable
	Status     DealStatus          `db:"status"`
	RowVersion int64               `db:"row_version"`
	CreatedAt  time.Time           `db:"created_at"`
	UpdatedAt  time.Time           `db:"updated_at"`
}
