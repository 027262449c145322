//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"

	"github.com/google/uuid"

	"github.com/pulsecrm/pulsecrm/internal/config"
	"github.com/pulsecrm/pulsecrm/internal/database"
	"github.com/pulsecrm/pulsecrm/internal/domain"
)

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// 获取测试数据库连接
func getTestDB(t *testing.T) *sql.DB {
	cfg := &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "pulsecrm_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}
	if err := database.Bootstrap(context.Background(), db); err != nil {
		t.Skipf("Skipping integration test: cannot bootstrap schema: %v", err)
		return nil
	}
	return db
}

// 清理测试数据（级联删除 users/leads/stages/deals/history）
func cleanupTenant(t *testing.T, db *sql.DB, tenantID string) {
	db.Exec(`DELETE FROM tenants WHERE tenant_id = $1::uuid`, tenantID)
}

func TestMoveDeal_Integration(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	tenants := NewPostgresTenantsRepository(db)
	stagesRepo := NewPostgresStagesRepository(db)
	dealsRepo := NewPostgresDealsRepository(db)
	historyRepo := NewPostgresHistoryRepository(db)

	tenantID := uuid.New().String()
	require := func(err error) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require(tenants.CreateTenant(ctx, &domain.Tenant{TenantID: tenantID, TenantName: "IT Tenant"}))
	defer cleanupTenant(t, db, tenantID)

	seeds := []*domain.PipelineStage{}
	for _, def := range domain.DefaultStages() {
		seeds = append(seeds, &domain.PipelineStage{
			StageID:    uuid.New().String(),
			TenantID:   tenantID,
			StageName:  def.Name,
			StageOrder: def.Order,
			Kind:       domain.KindForStageName(def.Name),
		})
	}
	require(stagesRepo.SeedDefaultStages(ctx, seeds))

	// 重复播种不产生重复行
	dupes := []*domain.PipelineStage{}
	for _, s := range seeds {
		dupes = append(dupes, &domain.PipelineStage{
			StageID:    uuid.New().String(),
			TenantID:   tenantID,
			StageName:  s.StageName,
			StageOrder: s.StageOrder,
			Kind:       s.Kind,
		})
	}
	require(stagesRepo.SeedDefaultStages(ctx, dupes))
	stages, err := stagesRepo.ListStages(ctx, tenantID)
	require(err)
	if len(stages) != 6 {
		t.Fatalf("expected 6 stages after duplicate seed, got %d", len(stages))
	}

	deal := &domain.Deal{
		DealID:   uuid.New().String(),
		TenantID: tenantID,
		StageID:  stages[0].StageID,
		Title:    "Integration deal",
		Status:   domain.DealStatusOpen,
	}
	require(dealsRepo.CreateDeal(ctx, deal))
	loaded, err := dealsRepo.GetDeal(ctx, tenantID, deal.DealID)
	require(err)

	wonStage := stages[4]
	move := DealMove{
		TenantID:      tenantID,
		DealID:        deal.DealID,
		FromStageID:   loaded.StageID,
		ToStageID:     wonStage.StageID,
		Status:        domain.DealStatusWon,
		MovedByUserID: domain.SystemUserID,
		HistoryID:     uuid.New().String(),
		RowVersion:    loaded.RowVersion,
	}
	require(dealsRepo.MoveDeal(ctx, move))

	// 第二次携带旧版本号必须 Conflict
	move.HistoryID = uuid.New().String()
	if err := dealsRepo.MoveDeal(ctx, move); err == nil {
		t.Fatal("expected conflict on stale row version")
	}

	moved, err := dealsRepo.GetDeal(ctx, tenantID, deal.DealID)
	require(err)
	if moved.Status != domain.DealStatusWon || moved.StageID != wonStage.StageID {
		t.Fatalf("deal not moved: status=%s stage=%s", moved.Status, moved.StageID)
	}
	if moved.RowVersion != loaded.RowVersion+1 {
		t.Fatalf("row version not bumped: %d", moved.RowVersion)
	}

	history, err := historyRepo.ListHistory(ctx, tenantID, deal.DealID)
	require(err)
	if len(history) != 1 {
		t.Fatalf("expected exactly 1 history row, got %d", len(history))
	}
	if history[0].ToStageID != wonStage.StageID {
		t.Fatalf("history row mismatch: %+v", history[0])
	}
}
