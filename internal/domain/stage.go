package domain

import (
	"strings"
	"time"
)

// StageKind 阶段类型标签。Deal 的派生 status 由当前阶段的 kind 决定，
// 而不是在移动时重新解析阶段名，这样租户改名 "Won" 阶段不会破坏语义。
type StageKind string

const (
	StageKindStandard StageKind = "standard"
	StageKindWon      StageKind = "won"
	StageKindLost     StageKind = "lost"
)

// PipelineStage 销售管道阶段（对应 pipeline_stages 表）
// 同一租户内 stage_order 唯一（UNIQUE 约束兼做懒初始化的防重入保护）。
type PipelineStage struct {
	StageID    string    `db:"stage_id"`  // UUID, PRIMARY KEY
	TenantID   string    `db:"tenant_id"` // UUID, NOT NULL
	StageName  string    `db:"stage_name"`
	StageOrder int       `db:"stage_order"` // 看板列的左右顺序，不要求连续
	Kind       StageKind `db:"kind"`
	CreatedAt  time.Time `db:"created_at"`
}

// KindForStageName 根据阶段名推导 kind：trim + 小写后恰好等于
// "won"/"lost" 才映射，其它任何名字都是 standard。
// 仅在建阶段（含默认阶段播种）时调用一次，之后 kind 跟随阶段本身。
func KindForStageName(name string) StageKind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "won":
		return StageKindWon
	case "lost":
		return StageKindLost
	default:
		return StageKindStandard
	}
}

// DefaultStageSeed 新租户首次读取阶段列表时播种的默认阶段。
type DefaultStageSeed struct {
	Name  string
	Order int
}

// DefaultStages 默认的六个阶段，order 1..6。
func DefaultStages() []DefaultStageSeed {
	return []DefaultStageSeed{
		{Name: "New", Order: 1},
		{Name: "Contacted", Order: 2},
		{Name: "Qualified", Order: 3},
		{Name: "Proposal", Order: 4},
		{Name: "Won", Order: 5},
		{Name: "Lost", Order: 6},
	}
}
