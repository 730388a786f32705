package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/certtrack-api/internal/models"
)

// EnrollmentRepository reads trainee enrollment and completion history.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CompletedSubjects returns one row per passed assignation, following
// assignation links through classes to subjects. Retakes of the same subject
// yield multiple rows and are returned as stored.
func (r *EnrollmentRepository) CompletedSubjects(ctx context.Context, traineeID string) ([]models.SubjectCompletion, error) {
	const query = `SELECT s.id AS subject_id, s.name AS subject_name, ta.completion_date
	FROM trainee_assignations ta
	JOIN class_trainee_assignations cta ON cta.trainee_assignation_id = ta.id
	JOIN classes c ON c.id = cta.class_id
	JOIN subjects s ON s.id = c.subject_id
	WHERE ta.trainee_id = $1 AND ta.overall_grade_status = $2
	ORDER BY ta.created_at`
	var completions []models.SubjectCompletion
	if err := r.db.SelectContext(ctx, &completions, query, traineeID, models.GradeStatusPass); err != nil {
		return nil, fmt.Errorf("list completed subjects: %w", err)
	}
	return completions, nil
}

// ActivePlans returns the plans a trainee is actively enrolled in, preserving
// enrollment insertion order.
func (r *EnrollmentRepository) ActivePlans(ctx context.Context, traineeID string) ([]models.Plan, error) {
	const query = `SELECT p.id, p.name, p.description, p.status, p.aproved_user_id, p.approved_at, p.created_at, p.updated_at
	FROM trainee_plan_enrollments e
	JOIN plans p ON p.id = e.plan_id
	WHERE e.trainee_id = $1 AND e.is_active = TRUE
	ORDER BY e.created_at`
	var plans []models.Plan
	if err := r.db.SelectContext(ctx, &plans, query, traineeID); err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	return plans, nil
}

// Enroll activates a trainee on a plan.
func (r *EnrollmentRepository) Enroll(ctx context.Context, enrollment *models.TraineePlanEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	enrollment.IsActive = true
	const query = `INSERT INTO trainee_plan_enrollments (id, trainee_id, plan_id, is_active, created_at)
	VALUES (:id, :trainee_id, :plan_id, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Deactivate marks an enrollment inactive without removing its history.
func (r *EnrollmentRepository) Deactivate(ctx context.Context, enrollmentID string) error {
	const query = `UPDATE trainee_plan_enrollments SET is_active = FALSE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, enrollmentID)
	if err != nil {
		return fmt.Errorf("deactivate enrollment: %w", err)
	}
	return requireRowAffected(result, "enrollment")
}
