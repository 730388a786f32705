package models

import "time"

// CertificateType distinguishes the three certificate scopes.
type CertificateType string

const (
	CertificateTypePlan    CertificateType = "PlanCertificate"
	CertificateTypeCourse  CertificateType = "CourseCertificate"
	CertificateTypeSubject CertificateType = "SubjectCertificate"
)

// PlanCertificate is awarded for completing every subject required by a plan.
type PlanCertificate struct {
	ID          string    `db:"id" json:"id"`
	PlanID      string    `db:"plan_id" json:"plan_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CourseCertificate is awarded for completing every subject a plan requires
// within one course.
type CourseCertificate struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SubjectCertificate is awarded for completing a single subject.
type SubjectCertificate struct {
	ID          string    `db:"id" json:"id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
