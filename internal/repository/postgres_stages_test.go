package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsecrm/pulsecrm/internal/domain"
)

func setupMockStagesDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStagesRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresStagesRepository(db)
}

func TestListStages_OrderedAscending(t *testing.T) {
	db, mock, repo := setupMockStagesDB(t)
	defer db.Close()

	tenantID := uuid.New().String()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"stage_id", "tenant_id", "stage_name", "stage_order", "kind", "created_at",
	}).
		AddRow(uuid.New().String(), tenantID, "New", 1, "standard", now).
		AddRow(uuid.New().String(), tenantID, "Won", 5, "won", now).
		AddRow(uuid.New().String(), tenantID, "Lost", 6, "lost", now)

	mock.ExpectQuery(`SELECT`).
		WithArgs(tenantID).
		WillReturnRows(rows)

	stages, err := repo.ListStages(context.Background(), tenantID)

	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, "New", stages[0].StageName)
	assert.Equal(t, domain.StageKindStandard, stages[0].Kind)
	assert.Equal(t, domain.StageKindWon, stages[1].Kind)
	assert.Equal(t, domain.StageKindLost, stages[2].Kind)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStage_MissingIsInvalidTarget(t *testing.T) {
	db, mock, repo := setupMockStagesDB(t)
	defer db.Close()

	tenantID := uuid.New().String()
	stageID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(tenantID, stageID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetStage(context.Background(), tenantID, stageID)

	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedDefaultStages_SingleTransaction(t *testing.T) {
	db, mock, repo := setupMockStagesDB(t)
	defer db.Close()

	tenantID := uuid.New().String()
	seeds := make([]*domain.PipelineStage, 0, 6)
	for _, def := range domain.DefaultStages() {
		seeds = append(seeds, &domain.PipelineStage{
			StageID:    uuid.New().String(),
			TenantID:   tenantID,
			StageName:  def.Name,
			StageOrder: def.Order,
			Kind:       domain.KindForStageName(def.Name),
		})
	}

	mock.ExpectBegin()
	for _, s := range seeds {
		mock.ExpectExec(`INSERT INTO pipeline_stages`).
			WithArgs(s.StageID, s.TenantID, s.StageName, s.StageOrder, s.Kind).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	err := repo.SeedDefaultStages(context.Background(), seeds)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
