package models

// CertificateEligibilityResult is one derived row per (scope, certificate)
// pair describing whether a trainee currently qualifies for the certificate.
// Course/subject fields are empty when the scope does not apply. Never
// persisted.
type CertificateEligibilityResult struct {
	CertificateID       string          `json:"certificate_id"`
	CertificateName     string          `json:"certificate_name"`
	CertificateType     CertificateType `json:"certificate_type"`
	PlanID              string          `json:"plan_id"`
	PlanName            string          `json:"plan_name"`
	CourseID            string          `json:"course_id,omitempty"`
	CourseName          string          `json:"course_name,omitempty"`
	SubjectID           string          `json:"subject_id,omitempty"`
	SubjectName         string          `json:"subject_name,omitempty"`
	IsEligible          bool            `json:"is_eligible"`
	MissingRequirements []string        `json:"missing_requirements"`
}
