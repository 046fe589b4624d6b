package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/labsched/scheduler/internal/models"
)

// RunSlotRepository manages the calendar records a Run produced.
type RunSlotRepository struct {
	db *sqlx.DB
}

// NewRunSlotRepository builds repository.
func NewRunSlotRepository(db *sqlx.DB) *RunSlotRepository {
	return &RunSlotRepository{db: db}
}

// InsertBatch stores every slot belonging to one Run.
func (r *RunSlotRepository) InsertBatch(ctx context.Context, slots []models.RunSlot) error {
	if len(slots) == 0 {
		return nil
	}
	now := time.Now().UTC()

	const query = `
INSERT INTO run_slots (id, run_id, class_id, school_id, workshop_id, ordinal, trainer_id, week, weekday, band, co_taught_with, created_at)
VALUES (:id, :run_id, :class_id, :school_id, :workshop_id, :ordinal, :trainer_id, :week, :weekday, :band, :co_taught_with, :created_at)`

	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, r.db, query, slot); err != nil {
			return fmt.Errorf("insert run slot: %w", err)
		}
	}
	return nil
}

// ListByRun returns every slot for a run, ordered by week/weekday/band.
func (r *RunSlotRepository) ListByRun(ctx context.Context, runID string) ([]models.RunSlot, error) {
	const query = `SELECT id, run_id, class_id, school_id, workshop_id, ordinal, trainer_id, week, weekday, band, co_taught_with, created_at
FROM run_slots WHERE run_id = $1 ORDER BY week ASC, weekday ASC, band ASC`
	var slots []models.RunSlot
	if err := r.db.SelectContext(ctx, &slots, query, runID); err != nil {
		return nil, fmt.Errorf("list run slots: %w", err)
	}
	return slots, nil
}
