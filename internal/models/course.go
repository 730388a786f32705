package models

import "time"

// CourseStatus tracks a course's approval lifecycle.
type CourseStatus string

const (
	CourseStatusPending  CourseStatus = "Pending"
	CourseStatusApproved CourseStatus = "Approved"
	CourseStatusRejected CourseStatus = "Rejected"
)

// Course is a unit of training delivered within one or more plans.
type Course struct {
	ID             string       `db:"id" json:"id"`
	Name           string       `db:"name" json:"name"`
	Description    string       `db:"description" json:"description"`
	Status         CourseStatus `db:"status" json:"status"`
	ApprovedUserID *string      `db:"aproved_user_id" json:"aproved_user_id,omitempty"`
	ApprovedAt     *time.Time   `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseFilter constrains course listing queries.
type CourseFilter struct {
	Status   *CourseStatus
	Search   string
	Page     int
	PageSize int
}
