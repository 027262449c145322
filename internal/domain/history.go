package domain

import "time"

// DealStageHistory 阶段移动审计记录（对应 deal_stage_history 表）
// 只追加：每次成功的移动恰好写入一行，除随 deal 级联删除外永不更新或删除。
// 写入路径只有移动引擎一个，与 deal 的阶段变更在同一事务内提交。
type DealStageHistory struct {
	HistoryID     string    `db:"history_id"` // UUID, PRIMARY KEY
	TenantID      string    `db:"tenant_id"`
	DealID        string    `db:"deal_id"`
	FromStageID   string    `db:"from_stage_id"`
	ToStageID     string    `db:"to_stage_id"`
	MovedByUserID string    `db:"moved_by_user_id"` // 真实用户或 SystemUserID 哨兵
	MovedAt       time.Time `db:"moved_at"`
}
