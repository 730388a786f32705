package models

import "time"

// OverallGradeStatus summarizes a trainee's final result for a class.
type OverallGradeStatus string

const (
	GradeStatusPass    OverallGradeStatus = "Pass"
	GradeStatusFail    OverallGradeStatus = "Fail"
	GradeStatusPending OverallGradeStatus = "Pending"
)

// TraineePlanEnrollment links a trainee to a plan they study under.
type TraineePlanEnrollment struct {
	ID        string    `db:"id" json:"id"`
	TraineeID string    `db:"trainee_id" json:"trainee_id"`
	PlanID    string    `db:"plan_id" json:"plan_id"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TraineeAssignation is a trainee's graded participation record.
type TraineeAssignation struct {
	ID                 string             `db:"id" json:"id"`
	TraineeID          string             `db:"trainee_id" json:"trainee_id"`
	OverallGradeStatus OverallGradeStatus `db:"overall_grade_status" json:"overall_grade_status"`
	CompletionDate     *time.Time         `db:"completion_date" json:"completion_date,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
}

// ClassTraineeAssignation links a graded assignation to the class it was
// earned in.
type ClassTraineeAssignation struct {
	TraineeAssignationID string `db:"trainee_assignation_id" json:"trainee_assignation_id"`
	ClassID              string `db:"class_id" json:"class_id"`
}

// Class is a scheduled delivery of a subject.
type Class struct {
	ID        string     `db:"id" json:"id"`
	SubjectID string     `db:"subject_id" json:"subject_id"`
	Name      string     `db:"name" json:"name"`
	StartDate *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// StudyRecord declares that a subject is required within a course under a
// plan. Name columns are joined in by the repository for presentation.
type StudyRecord struct {
	ID          string    `db:"id" json:"id"`
	PlanID      string    `db:"plan_id" json:"plan_id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	CourseName  string    `db:"course_name" json:"course_name"`
	SubjectName string    `db:"subject_name" json:"subject_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SubjectCompletion is a derived row describing one passed subject. Retakes
// produce multiple rows for the same subject; they are kept as-is.
type SubjectCompletion struct {
	SubjectID      string     `db:"subject_id" json:"subject_id"`
	SubjectName    string     `db:"subject_name" json:"subject_name"`
	CompletionDate *time.Time `db:"completion_date" json:"completion_date,omitempty"`
}
