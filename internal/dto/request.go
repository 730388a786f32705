package dto

import "github.com/noah-isme/certtrack-api/internal/models"

// CreateRequestRequest is the payload for opening a change request against an
// approval-bearing entity.
type CreateRequestRequest struct {
	EntityID    string             `json:"entity_id" validate:"required"`
	RequestType models.RequestType `json:"request_type" validate:"required"`
	Description string             `json:"description" validate:"required"`
	Notes       string             `json:"notes"`
}

// RequestQuery mirrors supported listing filters.
type RequestQuery struct {
	Status      []models.RequestStatus
	Type        models.RequestType
	EntityID    string
	RequestedBy string
}
