package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/certtrack-api/internal/models"
)

// MatrixRepository persists course-subject-specialty mappings.
type MatrixRepository struct {
	db *sqlx.DB
}

// NewMatrixRepository constructs the repository.
func NewMatrixRepository(db *sqlx.DB) *MatrixRepository {
	return &MatrixRepository{db: db}
}

const matrixColumns = `specialty_id, subject_id, course_id, approved_by_user_id, approved_at, created_at`

// FindByKey fetches a matrix entry by its composite key.
func (r *MatrixRepository) FindByKey(ctx context.Context, specialtyID, subjectID, courseID string) (*models.CourseSubjectSpecialty, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_subject_specialties
	WHERE specialty_id = $1 AND subject_id = $2 AND course_id = $3`, matrixColumns)
	var matrix models.CourseSubjectSpecialty
	if err := r.db.GetContext(ctx, &matrix, query, specialtyID, subjectID, courseID); err != nil {
		return nil, err
	}
	return &matrix, nil
}

// FindByEntityKey resolves a matrix entry from the legacy delimiterless
// concatenation of its three key columns. Matching against the stored columns
// sidesteps the ambiguity of splitting the string by position.
func (r *MatrixRepository) FindByEntityKey(ctx context.Context, entityKey string) (*models.CourseSubjectSpecialty, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_subject_specialties
	WHERE specialty_id || subject_id || course_id = $1`, matrixColumns)
	var matrix models.CourseSubjectSpecialty
	if err := r.db.GetContext(ctx, &matrix, query, entityKey); err != nil {
		return nil, err
	}
	return &matrix, nil
}

// ListBySpecialty returns all matrix entries for a specialty.
func (r *MatrixRepository) ListBySpecialty(ctx context.Context, specialtyID string) ([]models.CourseSubjectSpecialty, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_subject_specialties
	WHERE specialty_id = $1 ORDER BY created_at`, matrixColumns)
	var matrices []models.CourseSubjectSpecialty
	if err := r.db.SelectContext(ctx, &matrices, query, specialtyID); err != nil {
		return nil, fmt.Errorf("list matrices: %w", err)
	}
	return matrices, nil
}

// Create inserts a matrix entry in its unapproved state.
func (r *MatrixRepository) Create(ctx context.Context, matrix *models.CourseSubjectSpecialty) error {
	if matrix.CreatedAt.IsZero() {
		matrix.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_subject_specialties
	(specialty_id, subject_id, course_id, approved_by_user_id, approved_at, created_at)
	VALUES (:specialty_id, :subject_id, :course_id, :approved_by_user_id, :approved_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, matrix); err != nil {
		return fmt.Errorf("create matrix: %w", err)
	}
	return nil
}

// Delete removes a matrix entry.
func (r *MatrixRepository) Delete(ctx context.Context, specialtyID, subjectID, courseID string) error {
	const query = `DELETE FROM course_subject_specialties
	WHERE specialty_id = $1 AND subject_id = $2 AND course_id = $3`
	if _, err := r.db.ExecContext(ctx, query, specialtyID, subjectID, courseID); err != nil {
		return fmt.Errorf("delete matrix: %w", err)
	}
	return nil
}

// SetDecision records the outcome for a matrix entry. Approval stamps the
// approver and timestamp; rejection clears both, since the matrix has no
// status enum and rejection means "never approved".
func (r *MatrixRepository) SetDecision(ctx context.Context, specialtyID, subjectID, courseID string, approved bool, approverID string, decidedAt time.Time) error {
	var (
		result sql.Result
		err    error
	)
	if approved {
		const query = `UPDATE course_subject_specialties
		SET approved_by_user_id = $1, approved_at = $2
		WHERE specialty_id = $3 AND subject_id = $4 AND course_id = $5`
		result, err = r.db.ExecContext(ctx, query, approverID, decidedAt, specialtyID, subjectID, courseID)
	} else {
		const query = `UPDATE course_subject_specialties
		SET approved_by_user_id = NULL, approved_at = NULL
		WHERE specialty_id = $1 AND subject_id = $2 AND course_id = $3`
		result, err = r.db.ExecContext(ctx, query, specialtyID, subjectID, courseID)
	}
	if err != nil {
		return fmt.Errorf("set matrix decision: %w", err)
	}
	return requireRowAffected(result, "matrix")
}
