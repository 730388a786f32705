package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/certtrack-api/internal/dto"
	"github.com/noah-isme/certtrack-api/internal/models"
	"github.com/noah-isme/certtrack-api/internal/service"
	appErrors "github.com/noah-isme/certtrack-api/pkg/errors"
	"github.com/noah-isme/certtrack-api/pkg/response"
)

type certificateService interface {
	CreatePlanCertificate(ctx context.Context, req dto.CreatePlanCertificateRequest) (*models.PlanCertificate, error)
	CreateCourseCertificate(ctx context.Context, req dto.CreateCourseCertificateRequest) (*models.CourseCertificate, error)
	CreateSubjectCertificate(ctx context.Context, req dto.CreateSubjectCertificateRequest) (*models.SubjectCertificate, error)
	ListByPlan(ctx context.Context, planID string) ([]models.PlanCertificate, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.CourseCertificate, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.SubjectCertificate, error)
	DeletePlanCertificate(ctx context.Context, id string) error
	DeleteCourseCertificate(ctx context.Context, id string) error
	DeleteSubjectCertificate(ctx context.Context, id string) error
	IssueArtifact(ctx context.Context, traineeID string, req dto.DownloadCertificateRequest) (*dto.CertificateArtifactResponse, error)
	ResolveArtifact(traineeID, token string) (string, error)
}

// CertificateHandler exposes the certificate catalogs and artifact downloads.
type CertificateHandler struct {
	service certificateService
	metrics *service.MetricsService
}

// NewCertificateHandler constructs the handler.
func NewCertificateHandler(svc certificateService, metrics *service.MetricsService) *CertificateHandler {
	return &CertificateHandler{service: svc, metrics: metrics}
}

// CreatePlanCertificate godoc
// @Summary Define a plan certificate
// @Tags Certificates
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /certificates/plans [post]
func (h *CertificateHandler) CreatePlanCertificate(c *gin.Context) {
	var req dto.CreatePlanCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid certificate payload"))
		return
	}
	cert, err := h.service.CreatePlanCertificate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cert)
}

// CreateCourseCertificate godoc
// @Summary Define a course certificate
// @Tags Certificates
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /certificates/courses [post]
func (h *CertificateHandler) CreateCourseCertificate(c *gin.Context) {
	var req dto.CreateCourseCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid certificate payload"))
		return
	}
	cert, err := h.service.CreateCourseCertificate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cert)
}

// CreateSubjectCertificate godoc
// @Summary Define a subject certificate
// @Tags Certificates
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /certificates/subjects [post]
func (h *CertificateHandler) CreateSubjectCertificate(c *gin.Context) {
	var req dto.CreateSubjectCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid certificate payload"))
		return
	}
	cert, err := h.service.CreateSubjectCertificate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cert)
}

// ListByPlan godoc
// @Summary List a plan's certificates
// @Tags Certificates
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{id}/certificates [get]
func (h *CertificateHandler) ListByPlan(c *gin.Context) {
	certs, err := h.service.ListByPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certs, nil)
}

// ListByCourse godoc
// @Summary List a course's certificates
// @Tags Certificates
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/certificates [get]
func (h *CertificateHandler) ListByCourse(c *gin.Context) {
	certs, err := h.service.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certs, nil)
}

// ListBySubject godoc
// @Summary List a subject's certificates
// @Tags Certificates
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/certificates [get]
func (h *CertificateHandler) ListBySubject(c *gin.Context) {
	certs, err := h.service.ListBySubject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certs, nil)
}

// DeletePlanCertificate godoc
// @Summary Remove a plan certificate definition
// @Tags Certificates
// @Param id path string true "Certificate ID"
// @Success 204
// @Router /certificates/plans/{id} [delete]
func (h *CertificateHandler) DeletePlanCertificate(c *gin.Context) {
	if err := h.service.DeletePlanCertificate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteCourseCertificate godoc
// @Summary Remove a course certificate definition
// @Tags Certificates
// @Param id path string true "Certificate ID"
// @Success 204
// @Router /certificates/courses/{id} [delete]
func (h *CertificateHandler) DeleteCourseCertificate(c *gin.Context) {
	if err := h.service.DeleteCourseCertificate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteSubjectCertificate godoc
// @Summary Remove a subject certificate definition
// @Tags Certificates
// @Param id path string true "Certificate ID"
// @Success 204
// @Router /certificates/subjects/{id} [delete]
func (h *CertificateHandler) DeleteSubjectCertificate(c *gin.Context) {
	if err := h.service.DeleteSubjectCertificate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Download godoc
// @Summary Render a certificate PDF for an eligible trainee
// @Tags Certificates
// @Accept json
// @Produce json
// @Param id path string true "Trainee ID"
// @Param payload body dto.DownloadCertificateRequest true "Certificate reference"
// @Success 200 {object} response.Envelope
// @Router /trainees/{id}/certificates/download [post]
func (h *CertificateHandler) Download(c *gin.Context) {
	var req dto.DownloadCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid download payload"))
		return
	}
	artifact, err := h.service.IssueArtifact(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordArtifactRendered()
	response.JSON(c, http.StatusOK, artifact, nil)
}

// Fetch godoc
// @Summary Stream a previously issued certificate artifact
// @Tags Certificates
// @Produce application/pdf
// @Param id path string true "Trainee ID"
// @Param token query string true "Signed download token"
// @Success 200
// @Router /trainees/{id}/certificates/artifact [get]
func (h *CertificateHandler) Fetch(c *gin.Context) {
	path, err := h.service.ResolveArtifact(c.Param("id"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, "certificate.pdf")
}
