package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/certtrack-api/internal/dto"
	"github.com/noah-isme/certtrack-api/internal/models"
	appErrors "github.com/noah-isme/certtrack-api/pkg/errors"
	"github.com/noah-isme/certtrack-api/pkg/response"
)

type eligibilityService interface {
	GetEligibleCertificates(ctx context.Context, traineeID string) ([]models.CertificateEligibilityResult, error)
}

type enrollmentService interface {
	Completions(ctx context.Context, traineeID string) ([]models.SubjectCompletion, error)
	ActivePlans(ctx context.Context, traineeID string) ([]models.Plan, error)
	Enroll(ctx context.Context, traineeID, planID string) (*models.TraineePlanEnrollment, error)
	Withdraw(ctx context.Context, enrollmentID string) error
}

// TraineeHandler exposes the trainee-facing eligibility and history surface.
// Routes are guarded with SELF access so trainees only see their own data.
type TraineeHandler struct {
	eligibility eligibilityService
	enrollments enrollmentService
}

// NewTraineeHandler constructs the handler.
func NewTraineeHandler(eligibility eligibilityService, enrollments enrollmentService) *TraineeHandler {
	return &TraineeHandler{eligibility: eligibility, enrollments: enrollments}
}

// Certificates godoc
// @Summary Evaluate certificate eligibility for a trainee
// @Tags Trainees
// @Produce json
// @Param id path string true "Trainee ID"
// @Success 200 {object} response.Envelope
// @Router /trainees/{id}/certificates [get]
func (h *TraineeHandler) Certificates(c *gin.Context) {
	traineeID := c.Param("id")
	results, err := h.eligibility.GetEligibleCertificates(c.Request.Context(), traineeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.EligibilityResponse{TraineeID: traineeID, Certificates: results}, nil)
}

// Completions godoc
// @Summary List a trainee's passed subjects
// @Tags Trainees
// @Produce json
// @Param id path string true "Trainee ID"
// @Success 200 {object} response.Envelope
// @Router /trainees/{id}/completions [get]
func (h *TraineeHandler) Completions(c *gin.Context) {
	traineeID := c.Param("id")
	completions, err := h.enrollments.Completions(c.Request.Context(), traineeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.CompletionResponse{TraineeID: traineeID, Completions: completions}, nil)
}

// ActivePlans godoc
// @Summary List a trainee's active plan enrollments
// @Tags Trainees
// @Produce json
// @Param id path string true "Trainee ID"
// @Success 200 {object} response.Envelope
// @Router /trainees/{id}/plans [get]
func (h *TraineeHandler) ActivePlans(c *gin.Context) {
	plans, err := h.enrollments.ActivePlans(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

// Enroll godoc
// @Summary Enroll a trainee under a plan
// @Tags Trainees
// @Accept json
// @Produce json
// @Param id path string true "Trainee ID"
// @Success 201 {object} response.Envelope
// @Router /trainees/{id}/plans [post]
func (h *TraineeHandler) Enroll(c *gin.Context) {
	var payload struct {
		PlanID string `json:"plan_id"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), c.Param("id"), payload.PlanID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Withdraw godoc
// @Summary Deactivate an enrollment
// @Tags Trainees
// @Produce json
// @Param id path string true "Trainee ID"
// @Param enrollmentId path string true "Enrollment ID"
// @Success 204
// @Router /trainees/{id}/plans/{enrollmentId} [delete]
func (h *TraineeHandler) Withdraw(c *gin.Context) {
	if err := h.enrollments.Withdraw(c.Request.Context(), c.Param("enrollmentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
