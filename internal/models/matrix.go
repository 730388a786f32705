package models

import "time"

// CourseSubjectSpecialty (the "matrix") declares that a subject, taught within
// a course, is relevant to a specialty. It carries no status enum; presence of
// ApprovedAt is the approval flag, and rejection clears it.
type CourseSubjectSpecialty struct {
	SpecialtyID      string     `db:"specialty_id" json:"specialty_id"`
	SubjectID        string     `db:"subject_id" json:"subject_id"`
	CourseID         string     `db:"course_id" json:"course_id"`
	ApprovedByUserID *string    `db:"approved_by_user_id" json:"approved_by_user_id,omitempty"`
	ApprovedAt       *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// Approved reports whether the matrix entry has been approved.
func (m *CourseSubjectSpecialty) Approved() bool {
	return m.ApprovedAt != nil
}

// EntityKey renders the legacy delimiterless concatenation used as the
// matrix's entity id inside request entities. The encoding is ambiguous when
// component ids vary in length, so it is only ever resolved by matching the
// concatenation of the stored key columns, never by substring position.
func (m *CourseSubjectSpecialty) EntityKey() string {
	return m.SpecialtyID + m.SubjectID + m.CourseID
}

// Specialty is a trainee career track that matrix entries reference.
type Specialty struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
