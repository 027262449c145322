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

func setupMockDealsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresDealsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresDealsRepository(db)
}

func TestGetDeal_Success(t *testing.T) {
	db, mock, repo := setupMockDealsDB(t)
	defer db.Close()

	ctx := context.Background()
	tenantID := uuid.New().String()
	dealID := uuid.New().String()
	stageID := uuid.New().String()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"deal_id", "tenant_id", "stage_id", "title", "company",
		"amount", "status", "row_version", "created_at", "updated_at",
	}).AddRow(
		dealID, tenantID, stageID, "Acme renewal", "Acme Corp",
		"1500.00", "Open", int64(1), now, now,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(tenantID, dealID).
		WillReturnRows(rows)

	deal, err := repo.GetDeal(ctx, tenantID, dealID)

	require.NoError(t, err)
	assert.Equal(t, dealID, deal.DealID)
	assert.Equal(t, stageID, deal.StageID)
	assert.Equal(t, "Acme renewal", deal.Title)
	require.NotNil(t, deal.Company)
	assert.Equal(t, "Acme Corp", *deal.Company)
	assert.True(t, deal.Amount.Valid)
	assert.Equal(t, "1500", deal.Amount.Decimal.String())
	assert.Equal(t, domain.DealStatusOpen, deal.Status)
	assert.Equal(t, int64(1), deal.RowVersion)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDeal_NotFound(t *testing.T) {
	db, mock, repo := setupMockDealsDB(t)
	defer db.Close()

	tenantID := uuid.New().String()
	dealID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(tenantID, dealID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetDeal(context.Background(), tenantID, dealID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveDeal_Success(t *testing.T) {
	db, mock, repo := setupMockDealsDB(t)
	defer db.Close()

	m := DealMove{
		TenantID:      uuid.New().String(),
		DealID:        uuid.New().String(),
		FromStageID:   uuid.New().String(),
		ToStageID:     uuid.New().String(),
		Status:        domain.DealStatusWon,
		MovedByUserID: uuid.New().String(),
		HistoryID:     uuid.New().String(),
		RowVersion:    3,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE deals`).
		WithArgs(m.TenantID, m.DealID, m.ToStageID, m.Status, m.RowVersion).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO deal_stage_history`).
		WithArgs(m.HistoryID, m.TenantID, m.DealID, m.FromStageID, m.ToStageID, m.MovedByUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.MoveDeal(context.Background(), m)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveDeal_VersionConflict(t *testing.T) {
	db, mock, repo := setupMockDealsDB(t)
	defer db.Close()

	m := DealMove{
		TenantID:      uuid.New().String(),
		DealID:        uuid.New().String(),
		FromStageID:   uuid.New().String(),
		ToStageID:     uuid.New().String(),
		Status:        domain.DealStatusOpen,
		MovedByUserID: uuid.New().String(),
		HistoryID:     uuid.New().String(),
		RowVersion:    1,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE deals`).
		WithArgs(m.TenantID, m.DealID, m.ToStageID, m.Status, m.RowVersion).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.MoveDeal(context.Background(), m)

	// 版本不匹配：不追加历史，不提交
	assert.ErrorIs(t, err, domain.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDealFields_EmptyPatchStillTouchesTimestamp(t *testing.T) {
	db, mock, repo := setupMockDealsDB(t)
	defer db.Close()

	tenantID := uuid.New().String()
	dealID := uuid.New().String()

	mock.ExpectExec(`UPDATE deals SET updated_at = now\(\)`).
		WithArgs(tenantID, dealID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateDealFields(context.Background(), tenantID, dealID, map[string]any{})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDealFields_NotFound(t *testing.T) {
	db, mock, repo := setupMockDealsDB(t)
	defer db.Close()

	tenantID := uuid.New().String()
	dealID := uuid.New().String()

	mock.ExpectExec(`UPDATE deals`).
		WithArgs(tenantID, dealID, "New title").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateDealFields(context.Background(), tenantID, dealID, map[string]any{"title": "New title"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDealStats(t *testing.T) {
	db, mock, repo := setupMockDealsDB(t)
	defer db.Close()

	tenantID := uuid.New().String()

	rows := sqlmock.NewRows([]string{"status", "count", "coalesce"}).
		AddRow("Open", 4, "1200.50").
		AddRow("Won", 2, "9000.00")

	mock.ExpectQuery(`SELECT status, COUNT`).
		WithArgs(tenantID).
		WillReturnRows(rows)

	totals, err := repo.DealStats(context.Background(), tenantID)

	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "Open", totals[0].Status)
	assert.Equal(t, 4, totals[0].Count)
	assert.Equal(t, "1200.5", totals[0].Amount.String())
	assert.Equal(t, "Won", totals[1].Status)

	require.NoError(t, mock.ExpectationsWereMet())
}
