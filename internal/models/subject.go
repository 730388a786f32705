package models

import "time"

// SubjectStatus tracks a subject's approval lifecycle.
type SubjectStatus string

const (
	SubjectStatusPending  SubjectStatus = "Pending"
	SubjectStatusApproved SubjectStatus = "Approved"
	SubjectStatusRejected SubjectStatus = "Rejected"
)

// Subject is an examinable topic taught within classes.
type Subject struct {
	ID             string        `db:"id" json:"id"`
	Name           string        `db:"name" json:"name"`
	Description    string        `db:"description" json:"description"`
	Status         SubjectStatus `db:"status" json:"status"`
	ApprovedUserID *string       `db:"aproved_user_id" json:"aproved_user_id,omitempty"`
	ApprovedAt     *time.Time    `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// SubjectFilter constrains subject listing queries.
type SubjectFilter struct {
	Status   *SubjectStatus
	Search   string
	Page     int
	PageSize int
}
