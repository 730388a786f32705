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

type matrixService interface {
	Get(ctx context.Context, specialtyID, subjectID, courseID string) (*models.CourseSubjectSpecialty, error)
	ListBySpecialty(ctx context.Context, specialtyID string) ([]models.CourseSubjectSpecialty, error)
	Create(ctx context.Context, req dto.CreateMatrixRequest) (*models.CourseSubjectSpecialty, error)
	Delete(ctx context.Context, specialtyID, subjectID, courseID string) error
	Decide(ctx context.Context, specialtyID, subjectID, courseID string, approved bool, approverID string) (*models.CourseSubjectSpecialty, error)
}

// MatrixHandler exposes the course-subject-specialty matrix. Entries are
// addressed by their three key columns rather than a surrogate id.
type MatrixHandler struct {
	service matrixService
}

// NewMatrixHandler constructs the handler.
func NewMatrixHandler(svc matrixService) *MatrixHandler {
	return &MatrixHandler{service: svc}
}

// ListBySpecialty godoc
// @Summary List matrix entries for a specialty
// @Tags Matrix
// @Produce json
// @Param specialtyId path string true "Specialty ID"
// @Success 200 {object} response.Envelope
// @Router /specialties/{specialtyId}/matrix [get]
func (h *MatrixHandler) ListBySpecialty(c *gin.Context) {
	entries, err := h.service.ListBySpecialty(c.Request.Context(), c.Param("specialtyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Get godoc
// @Summary Get one matrix entry
// @Tags Matrix
// @Produce json
// @Param specialtyId path string true "Specialty ID"
// @Param subjectId path string true "Subject ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /specialties/{specialtyId}/matrix/{subjectId}/{courseId} [get]
func (h *MatrixHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("specialtyId"), c.Param("subjectId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Create godoc
// @Summary Create a matrix entry
// @Tags Matrix
// @Accept json
// @Produce json
// @Param payload body dto.CreateMatrixRequest true "Matrix entry"
// @Success 201 {object} response.Envelope
// @Router /matrix [post]
func (h *MatrixHandler) Create(c *gin.Context) {
	var req dto.CreateMatrixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid matrix payload"))
		return
	}
	entry, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Delete godoc
// @Summary Delete a matrix entry
// @Tags Matrix
// @Param specialtyId path string true "Specialty ID"
// @Param subjectId path string true "Subject ID"
// @Param courseId path string true "Course ID"
// @Success 204
// @Router /specialties/{specialtyId}/matrix/{subjectId}/{courseId} [delete]
func (h *MatrixHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("specialtyId"), c.Param("subjectId"), c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Decide godoc
// @Summary Directly approve or reject a matrix entry
// @Tags Matrix
// @Accept json
// @Produce json
// @Param specialtyId path string true "Specialty ID"
// @Param subjectId path string true "Subject ID"
// @Param courseId path string true "Course ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /specialties/{specialtyId}/matrix/{subjectId}/{courseId}/decision [post]
func (h *MatrixHandler) Decide(c *gin.Context) {
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entry, err := h.service.Decide(c.Request.Context(), c.Param("specialtyId"), c.Param("subjectId"), c.Param("courseId"), req.Approved, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
