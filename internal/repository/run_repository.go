package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/labsched/scheduler/internal/models"
)

// RunRepository persists scheduling core invocations.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository constructs repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new Run record; callers create it QUEUED and move it
// on with Update.
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	if run == nil {
		return fmt.Errorf("run payload is nil")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if len(run.Report) == 0 {
		run.Report = types.JSONText(`{}`)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO runs (id, status, objective, wall_seconds, report, error, created_at)
VALUES (:id, :status, :objective, :wall_seconds, :report, :error, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Update persists a run's current status, solve figures and report in
// place — the worker calls this as a run moves QUEUED -> RUNNING ->
// terminal, so FindByID/List always reflect the latest known state.
func (r *RunRepository) Update(ctx context.Context, run *models.Run) error {
	if run == nil {
		return fmt.Errorf("run payload is nil")
	}
	if len(run.Report) == 0 {
		run.Report = types.JSONText(`{}`)
	}

	const query = `
UPDATE runs SET status = :status, objective = :objective, wall_seconds = :wall_seconds,
	report = :report, error = :error WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.db, query, run)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("run rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns every persisted run, most recent first.
func (r *RunRepository) List(ctx context.Context) ([]models.Run, error) {
	const query = `SELECT id, status, objective, wall_seconds, report, error, created_at FROM runs ORDER BY created_at DESC`
	var runs []models.Run
	if err := r.db.SelectContext(ctx, &runs, query); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// FindByID loads a run by its identifier.
func (r *RunRepository) FindByID(ctx context.Context, id string) (*models.Run, error) {
	const query = `SELECT id, status, objective, wall_seconds, report, error, created_at FROM runs WHERE id = $1`
	var run models.Run
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// Delete removes a stored run row; its run_slots rows are not deleted by
// this statement.
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM runs WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("run rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
