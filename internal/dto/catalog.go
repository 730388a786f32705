package dto

// CreatePlanRequest creates a training plan; it starts life in Pending status.
type CreatePlanRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// UpdatePlanRequest replaces a plan's descriptive fields.
type UpdatePlanRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateCourseRequest creates a course; it starts life in Pending status.
type CreateCourseRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// UpdateCourseRequest replaces a course's descriptive fields.
type UpdateCourseRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateSubjectRequest creates a subject; it starts life in Pending status.
type CreateSubjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// UpdateSubjectRequest replaces a subject's descriptive fields.
type UpdateSubjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateMatrixRequest creates an unapproved matrix entry.
type CreateMatrixRequest struct {
	SpecialtyID string `json:"specialty_id" validate:"required"`
	SubjectID   string `json:"subject_id" validate:"required"`
	CourseID    string `json:"course_id" validate:"required"`
}

// DecisionRequest is the direct admin approve/reject payload used by the
// single-entity decision endpoints.
type DecisionRequest struct {
	Approved bool `json:"approved"`
}

// CreatePlanCertificateRequest defines a plan-scoped certificate.
type CreatePlanCertificateRequest struct {
	PlanID      string `json:"plan_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateCourseCertificateRequest defines a course-scoped certificate.
type CreateCourseCertificateRequest struct {
	CourseID    string `json:"course_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateSubjectCertificateRequest defines a subject-scoped certificate.
type CreateSubjectCertificateRequest struct {
	SubjectID   string `json:"subject_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}
