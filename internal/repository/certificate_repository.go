package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/certtrack-api/internal/models"
)

// CertificateRepository persists the three certificate catalogs.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// ListByPlan returns plan certificates attached to a plan, oldest first.
func (r *CertificateRepository) ListByPlan(ctx context.Context, planID string) ([]models.PlanCertificate, error) {
	const query = `SELECT id, plan_id, name, description, created_at
	FROM plan_certificates WHERE plan_id = $1 ORDER BY created_at`
	var certs []models.PlanCertificate
	if err := r.db.SelectContext(ctx, &certs, query, planID); err != nil {
		return nil, fmt.Errorf("list plan certificates: %w", err)
	}
	return certs, nil
}

// ListByCourse returns course certificates attached to a course, oldest first.
func (r *CertificateRepository) ListByCourse(ctx context.Context, courseID string) ([]models.CourseCertificate, error) {
	const query = `SELECT id, course_id, name, description, created_at
	FROM course_certificates WHERE course_id = $1 ORDER BY created_at`
	var certs []models.CourseCertificate
	if err := r.db.SelectContext(ctx, &certs, query, courseID); err != nil {
		return nil, fmt.Errorf("list course certificates: %w", err)
	}
	return certs, nil
}

// ListBySubject returns subject certificates attached to a subject, oldest
// first.
func (r *CertificateRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.SubjectCertificate, error) {
	const query = `SELECT id, subject_id, name, description, created_at
	FROM subject_certificates WHERE subject_id = $1 ORDER BY created_at`
	var certs []models.SubjectCertificate
	if err := r.db.SelectContext(ctx, &certs, query, subjectID); err != nil {
		return nil, fmt.Errorf("list subject certificates: %w", err)
	}
	return certs, nil
}

// CreatePlanCertificate inserts a plan certificate.
func (r *CertificateRepository) CreatePlanCertificate(ctx context.Context, cert *models.PlanCertificate) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO plan_certificates (id, plan_id, name, description, created_at)
	VALUES (:id, :plan_id, :name, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cert); err != nil {
		return fmt.Errorf("create plan certificate: %w", err)
	}
	return nil
}

// CreateCourseCertificate inserts a course certificate.
func (r *CertificateRepository) CreateCourseCertificate(ctx context.Context, cert *models.CourseCertificate) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_certificates (id, course_id, name, description, created_at)
	VALUES (:id, :course_id, :name, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cert); err != nil {
		return fmt.Errorf("create course certificate: %w", err)
	}
	return nil
}

// CreateSubjectCertificate inserts a subject certificate.
func (r *CertificateRepository) CreateSubjectCertificate(ctx context.Context, cert *models.SubjectCertificate) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO subject_certificates (id, subject_id, name, description, created_at)
	VALUES (:id, :subject_id, :name, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cert); err != nil {
		return fmt.Errorf("create subject certificate: %w", err)
	}
	return nil
}

// DeletePlanCertificate removes a plan certificate.
func (r *CertificateRepository) DeletePlanCertificate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM plan_certificates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete plan certificate: %w", err)
	}
	return nil
}

// DeleteCourseCertificate removes a course certificate.
func (r *CertificateRepository) DeleteCourseCertificate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM course_certificates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course certificate: %w", err)
	}
	return nil
}

// DeleteSubjectCertificate removes a subject certificate.
func (r *CertificateRepository) DeleteSubjectCertificate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subject_certificates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject certificate: %w", err)
	}
	return nil
}
