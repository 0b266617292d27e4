package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/learning-intel-api/internal/models"
)

const predictionRunSchema = `CREATE TABLE IF NOT EXISTS prediction_runs (
    id UUID PRIMARY KEY,
    course_id TEXT NOT NULL,
    total_students INTEGER NOT NULL,
    high_risk_count INTEGER NOT NULL,
    high_risk_students JSONB NOT NULL DEFAULT '[]'::jsonb,
    average_completion_probability DOUBLE PRECISION,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_prediction_runs_course_created ON prediction_runs (course_id, created_at DESC)`

const predictionRunColumns = "id, course_id, total_students, high_risk_count, high_risk_students, average_completion_probability, created_at"

// PredictionRunRepository persists per-course prediction run summaries.
type PredictionRunRepository struct {
	db *sqlx.DB
}

// NewPredictionRunRepository constructs a PredictionRunRepository.
func NewPredictionRunRepository(db *sqlx.DB) *PredictionRunRepository {
	return &PredictionRunRepository{db: db}
}

// Migrate creates the prediction_runs table when missing.
func (r *PredictionRunRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, predictionRunSchema); err != nil {
		return fmt.Errorf("migrate prediction_runs: %w", err)
	}
	return nil
}

// Create inserts a run, assigning ID and CreatedAt when unset.
func (r *PredictionRunRepository) Create(ctx context.Context, run *models.PredictionRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.HighRiskStudents == nil {
		run.HighRiskStudents = models.StudentIDList{}
	}
	query := `INSERT INTO prediction_runs (` + predictionRunColumns + `)
        VALUES (:id, :course_id, :total_students, :high_risk_count, :high_risk_students, :average_completion_probability, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("insert prediction run: %w", err)
	}
	return nil
}

// LatestByCourse returns the newest run for the course, or nil when none exists.
func (r *PredictionRunRepository) LatestByCourse(ctx context.Context, courseID string) (*models.PredictionRun, error) {
	var run models.PredictionRun
	query := `SELECT ` + predictionRunColumns + ` FROM prediction_runs WHERE course_id = $1 ORDER BY created_at DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &run, query, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest prediction run: %w", err)
	}
	return &run, nil
}

// ListByCourse returns up to limit runs for the course, newest first.
func (r *PredictionRunRepository) ListByCourse(ctx context.Context, courseID string, limit int) ([]models.PredictionRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []models.PredictionRun
	query := `SELECT ` + predictionRunColumns + ` FROM prediction_runs WHERE course_id = $1 ORDER BY created_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &runs, query, courseID, limit); err != nil {
		return nil, fmt.Errorf("list prediction runs: %w", err)
	}
	return runs, nil
}
