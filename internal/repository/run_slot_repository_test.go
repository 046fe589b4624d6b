package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labsched/scheduler/internal/models"
)

func TestRunSlotRepositoryInsertBatch(t *testing.T) {
	db, mock, cleanup := newRunMock(t)
	defer cleanup()
	repo := NewRunSlotRepository(db)

	mock.ExpectExec("INSERT INTO run_slots").
		WithArgs(sqlmock.AnyArg(), "run-1", "cls-a", "sch-1", "wks-1", 1, "trn-1", 0, "Mon", "m1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.InsertBatch(context.Background(), []models.RunSlot{{
		RunID: "run-1", ClassID: "cls-a", SchoolID: "sch-1", WorkshopID: "wks-1",
		Ordinal: 1, TrainerID: "trn-1", Week: 0, Weekday: "Mon", Band: "m1",
	}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunSlotRepositoryInsertBatchEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newRunMock(t)
	defer cleanup()
	repo := NewRunSlotRepository(db)

	err := repo.InsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunSlotRepositoryListByRun(t *testing.T) {
	db, mock, cleanup := newRunMock(t)
	defer cleanup()
	repo := NewRunSlotRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "run_id", "class_id", "school_id", "workshop_id", "ordinal",
		"trainer_id", "week", "weekday", "band", "co_taught_with", "created_at",
	}).AddRow("slot-1", "run-1", "cls-a", "sch-1", "wks-1", 1, "trn-1", 0, "Mon", "m1", nil, now)
	mock.ExpectQuery("SELECT id, run_id, class_id, school_id, workshop_id, ordinal, trainer_id, week, weekday, band, co_taught_with, created_at").
		WithArgs("run-1").
		WillReturnRows(rows)

	slots, err := repo.ListByRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "slot-1", slots[0].ID)
}
