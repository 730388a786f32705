package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/certtrack-api/internal/models"
)

// StudyRecordRepository persists (plan, course, subject) requirement triples.
type StudyRecordRepository struct {
	db *sqlx.DB
}

// NewStudyRecordRepository constructs the repository.
func NewStudyRecordRepository(db *sqlx.DB) *StudyRecordRepository {
	return &StudyRecordRepository{db: db}
}

// ListByPlan returns a plan's study records in insertion order with course
// and subject names joined in. Encounter order here drives the presentation
// order of eligibility rows downstream.
func (r *StudyRecordRepository) ListByPlan(ctx context.Context, planID string) ([]models.StudyRecord, error) {
	const query = `SELECT sr.id, sr.plan_id, sr.course_id, sr.subject_id,
	       c.name AS course_name, s.name AS subject_name, sr.created_at
	FROM study_records sr
	JOIN courses c ON c.id = sr.course_id
	JOIN subjects s ON s.id = sr.subject_id
	WHERE sr.plan_id = $1
	ORDER BY sr.created_at, sr.id`
	var records []models.StudyRecord
	if err := r.db.SelectContext(ctx, &records, query, planID); err != nil {
		return nil, fmt.Errorf("list study records: %w", err)
	}
	return records, nil
}

// Create inserts a study record.
func (r *StudyRecordRepository) Create(ctx context.Context, record *models.StudyRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO study_records (id, plan_id, course_id, subject_id, created_at)
	VALUES (:id, :plan_id, :course_id, :subject_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create study record: %w", err)
	}
	return nil
}

// Delete removes a study record.
func (r *StudyRecordRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM study_records WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete study record: %w", err)
	}
	return nil
}
