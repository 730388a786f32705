package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RequestType identifies which entity a change request targets and whether it
// covers a creation or a modification. Values are persisted and exchanged with
// clients verbatim, including the legacy lower-case subject variants.
type RequestType string

const (
	RequestTypeNewCourse     RequestType = "NewCourse"
	RequestTypeModifyCourse  RequestType = "ModifyCourse"
	RequestTypeNewSubject    RequestType = "newSubject"
	RequestTypeModifySubject RequestType = "modifySubject"
	RequestTypeNewPlan       RequestType = "NewPlan"
	RequestTypeModifyPlan    RequestType = "ModifyPlan"
	RequestTypeNewMatrix     RequestType = "NewMatrix"
	RequestTypeRemoveMatrix  RequestType = "RemoveMatrix"
)

// KnownRequestTypes lists every accepted request type.
var KnownRequestTypes = []RequestType{
	RequestTypeNewCourse,
	RequestTypeModifyCourse,
	RequestTypeNewSubject,
	RequestTypeModifySubject,
	RequestTypeNewPlan,
	RequestTypeModifyPlan,
	RequestTypeNewMatrix,
	RequestTypeRemoveMatrix,
}

// RequestStatus captures the lifecycle of a request entity. Pending is the
// only non-terminal state; Approved and Rejected never transition again.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "Pending"
	RequestStatusApproved RequestStatus = "Approved"
	RequestStatusRejected RequestStatus = "Rejected"
)

// Request is the approval envelope owned by the workflow engine. Its status
// lives on the child RequestEntity rows; approval metadata on the request
// itself records who closed it and when.
type Request struct {
	RequestID        string     `db:"request_id" json:"request_id"`
	RequestUserID    string     `db:"request_user_id" json:"request_user_id"`
	Description      string     `db:"description" json:"description"`
	Notes            string     `db:"notes" json:"notes"`
	ApprovedByUserID *string    `db:"approved_by_user_id" json:"approved_by_user_id,omitempty"`
	ApprovedDate     *time.Time `db:"approved_date" json:"approved_date,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Reviewed reports whether the request has reached a terminal state.
func (r *Request) Reviewed() bool {
	return r.ApprovedDate != nil
}

// RequestEntity joins a request to the concrete domain object it targets,
// keyed by (request_id, entity_id).
type RequestEntity struct {
	RequestID     string        `db:"request_id" json:"request_id"`
	EntityID      string        `db:"entity_id" json:"entity_id"`
	RequestType   RequestType   `db:"request_type" json:"request_type"`
	RequestStatus RequestStatus `db:"request_status" json:"request_status"`
}

// RequestDetail is the request joined with its entities and the submitter's
// display name, returned to callers.
type RequestDetail struct {
	Request
	Entities        []RequestEntity `json:"entities"`
	RequestUserName string          `json:"request_user_name"`
}

// RequestFilter constrains listing queries.
type RequestFilter struct {
	Status      []RequestStatus
	Type        RequestType
	EntityID    string
	RequestedBy string
	Limit       int
	Offset      int
}

const (
	requestIDPrefix = "REQ"
	requestIDDigits = 6
)

// FirstRequestID is assigned when no prior request exists.
const FirstRequestID = "REQ000001"

// NextRequestID derives the successor of the given request id, preserving the
// REQ-prefixed zero-padded format. An empty lastID yields FirstRequestID.
func NextRequestID(lastID string) (string, error) {
	if lastID == "" {
		return FirstRequestID, nil
	}
	suffix := strings.TrimPrefix(lastID, requestIDPrefix)
	seq, err := strconv.Atoi(suffix)
	if err != nil {
		return "", fmt.Errorf("malformed request id %q: %w", lastID, err)
	}
	return fmt.Sprintf("%s%0*d", requestIDPrefix, requestIDDigits, seq+1), nil
}
