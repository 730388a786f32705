package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certtrack-api/internal/dto"
	"github.com/noah-isme/certtrack-api/internal/models"
	appErrors "github.com/noah-isme/certtrack-api/pkg/errors"
)

type certificateServiceMock struct {
	planCerts  []models.PlanCertificate
	artifact   *dto.CertificateArtifactResponse
	issueErr   error
	issuedFor  string
	created    *models.PlanCertificate
	deletedIDs []string
}

func (m *certificateServiceMock) CreatePlanCertificate(ctx context.Context, req dto.CreatePlanCertificateRequest) (*models.PlanCertificate, error) {
	return m.created, nil
}

func (m *certificateServiceMock) CreateCourseCertificate(ctx context.Context, req dto.CreateCourseCertificateRequest) (*models.CourseCertificate, error) {
	return nil, appErrors.ErrInternal
}

func (m *certificateServiceMock) CreateSubjectCertificate(ctx context.Context, req dto.CreateSubjectCertificateRequest) (*models.SubjectCertificate, error) {
	return nil, appErrors.ErrInternal
}

func (m *certificateServiceMock) ListByPlan(ctx context.Context, planID string) ([]models.PlanCertificate, error) {
	return m.planCerts, nil
}

func (m *certificateServiceMock) ListByCourse(ctx context.Context, courseID string) ([]models.CourseCertificate, error) {
	return nil, nil
}

func (m *certificateServiceMock) ListBySubject(ctx context.Context, subjectID string) ([]models.SubjectCertificate, error) {
	return nil, nil
}

func (m *certificateServiceMock) DeletePlanCertificate(ctx context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func (m *certificateServiceMock) DeleteCourseCertificate(ctx context.Context, id string) error {
	return nil
}

func (m *certificateServiceMock) DeleteSubjectCertificate(ctx context.Context, id string) error {
	return nil
}

func (m *certificateServiceMock) IssueArtifact(ctx context.Context, traineeID string, req dto.DownloadCertificateRequest) (*dto.CertificateArtifactResponse, error) {
	m.issuedFor = traineeID
	if m.issueErr != nil {
		return nil, m.issueErr
	}
	return m.artifact, nil
}

func (m *certificateServiceMock) ResolveArtifact(traineeID, token string) (string, error) {
	if token != "good-token" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	return "/tmp/artifact.pdf", nil
}

func TestCertificateHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &certificateServiceMock{artifact: &dto.CertificateArtifactResponse{
		DownloadToken: "token-1",
		ExpiresAt:     time.Now().Add(time.Hour),
	}}
	handler := NewCertificateHandler(mock, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.DownloadCertificateRequest{CertificateID: "cert-hyd", CertificateType: models.CertificateTypeSubject})
	req, _ := http.NewRequest(http.MethodPost, "/trainees/trainee-1/certificates/download", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "trainee-1"}}

	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trainee-1", mock.issuedFor)
	assert.Contains(t, w.Body.String(), "token-1")
}

func TestCertificateHandlerDownloadNotEligible(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &certificateServiceMock{issueErr: appErrors.ErrNotEligible}
	handler := NewCertificateHandler(mock, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.DownloadCertificateRequest{CertificateID: "cert-plan", CertificateType: models.CertificateTypePlan})
	req, _ := http.NewRequest(http.MethodPost, "/trainees/trainee-1/certificates/download", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "trainee-1"}}

	handler.Download(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCertificateHandlerListByPlan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &certificateServiceMock{planCerts: []models.PlanCertificate{{ID: "cert-plan", PlanID: "plan-1"}}}
	handler := NewCertificateHandler(mock, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/plans/plan-1/certificates", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "plan-1"}}

	handler.ListByPlan(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cert-plan")
}

func TestCertificateHandlerDeletePlanCertificate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &certificateServiceMock{}
	handler := NewCertificateHandler(mock, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/certificates/plans/cert-plan", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "cert-plan"}}

	handler.DeletePlanCertificate(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"cert-plan"}, mock.deletedIDs)
}
