package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindForStageName(t *testing.T) {
	cases := []struct {
		name string
		want StageKind
	}{
		{"Won", StageKindWon},
		{"  won  ", StageKindWon},
		{"WON", StageKindWon},
		{"Lost", StageKindLost},
		{"lost", StageKindLost},
		{"New", StageKindStandard},
		{"Closed Won", StageKindStandard}, // 只有恰好 "won"/"lost" 才映射
		{"Wonder", StageKindStandard},
		{"", StageKindStandard},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, KindForStageName(tc.name), "name=%q", tc.name)
	}
}

func TestStatusForKind_TotalFunction(t *testing.T) {
	assert.Equal(t, DealStatusWon, StatusForKind(StageKindWon))
	assert.Equal(t, DealStatusLost, StatusForKind(StageKindLost))
	assert.Equal(t, DealStatusOpen, StatusForKind(StageKindStandard))
	// 未知 kind 也收敛到 Open
	assert.Equal(t, DealStatusOpen, StatusForKind(StageKind("custom")))
}

func TestDefaultStages(t *testing.T) {
	stages := DefaultStages()
	assert.Len(t, stages, 6)
	for i, s := range stages {
		assert.Equal(t, i+1, s.Order)
	}
	assert.Equal(t, "New", stages[0].Name)
	assert.Equal(t, "Won", stages[4].Name)
	assert.Equal(t, "Lost", stages[5].Name)
}
