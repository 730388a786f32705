package models

import "time"

// PlanStatus tracks a training plan's approval lifecycle. The lower-case
// finished value is kept exactly as the legacy system serialized it.
type PlanStatus string

const (
	PlanStatusPending  PlanStatus = "Pending"
	PlanStatusApproved PlanStatus = "Approved"
	PlanStatusRejected PlanStatus = "Rejected"
	PlanStatusFinished PlanStatus = "finished"
)

// Plan is a training curriculum spanning courses and subjects. The
// aproved_user_id column spelling is preserved from the legacy schema.
type Plan struct {
	ID             string     `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Description    string     `db:"description" json:"description"`
	Status         PlanStatus `db:"status" json:"status"`
	ApprovedUserID *string    `db:"aproved_user_id" json:"aproved_user_id,omitempty"`
	ApprovedAt     *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// PlanFilter constrains plan listing queries.
type PlanFilter struct {
	Status   *PlanStatus
	Search   string
	Page     int
	PageSize int
}
