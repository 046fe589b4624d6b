package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labsched/scheduler/internal/models"
)

func newRunMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRunRepositoryCreateAssignsIDAndDefaults(t *testing.T) {
	db, mock, cleanup := newRunMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectExec("INSERT INTO runs").
		WithArgs(sqlmock.AnyArg(), models.RunStatusOptimal, 4.5, 1.2, sqlmock.AnyArg(), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	run := &models.Run{Status: models.RunStatusOptimal, Objective: 4.5, WallSeconds: 1.2}
	err := repo.Create(context.Background(), run)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, types.JSONText(`{}`), run.Report)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRunMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectExec("UPDATE runs").
		WithArgs(models.RunStatusRunning, 0.0, 0.0, sqlmock.AnyArg(), "", "run-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Update(context.Background(), &models.Run{ID: "run-1", Status: models.RunStatusRunning})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryUpdateMissingReturnsError(t *testing.T) {
	db, mock, cleanup := newRunMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectExec("UPDATE runs").
		WithArgs(models.RunStatusFailed, 0.0, 0.0, sqlmock.AnyArg(), "boom", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Run{ID: "missing", Status: models.RunStatusFailed, Error: "boom"})
	require.Error(t, err)
}

func TestRunRepositoryList(t *testing.T) {
	db, mock, cleanup := newRunMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "status", "objective", "wall_seconds", "report", "error", "created_at"}).
		AddRow("run-1", "OPTIMAL", 4.5, 1.2, `{}`, "", now)
	mock.ExpectQuery("SELECT id, status, objective, wall_seconds, report, error, created_at FROM runs").
		WillReturnRows(rows)

	runs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
}

func TestRunRepositoryDeleteNoRows(t *testing.T) {
	db, mock, cleanup := newRunMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectExec("DELETE FROM runs").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.Error(t, err)
}
