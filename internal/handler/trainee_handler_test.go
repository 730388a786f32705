package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certtrack-api/internal/models"
	appErrors "github.com/noah-isme/certtrack-api/pkg/errors"
)

type eligibilityServiceMock struct {
	results []models.CertificateEligibilityResult
	err     error
	askedID string
}

func (m *eligibilityServiceMock) GetEligibleCertificates(ctx context.Context, traineeID string) ([]models.CertificateEligibilityResult, error) {
	m.askedID = traineeID
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type enrollmentServiceMock struct {
	completions []models.SubjectCompletion
	plans       []models.Plan
	enrollment  *models.TraineePlanEnrollment
	enrollErr   error
	withdrawn   string
}

func (m *enrollmentServiceMock) Completions(ctx context.Context, traineeID string) ([]models.SubjectCompletion, error) {
	return m.completions, nil
}

func (m *enrollmentServiceMock) ActivePlans(ctx context.Context, traineeID string) ([]models.Plan, error) {
	return m.plans, nil
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, traineeID, planID string) (*models.TraineePlanEnrollment, error) {
	if m.enrollErr != nil {
		return nil, m.enrollErr
	}
	return m.enrollment, nil
}

func (m *enrollmentServiceMock) Withdraw(ctx context.Context, enrollmentID string) error {
	m.withdrawn = enrollmentID
	return nil
}

func TestTraineeHandlerCertificates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	eligibility := &eligibilityServiceMock{results: []models.CertificateEligibilityResult{
		{CertificateID: "cert-plan", IsEligible: true, MissingRequirements: []string{}},
		{CertificateID: "cert-hyd", IsEligible: false, MissingRequirements: []string{"Subject: Pneumatics"}},
	}}
	handler := NewTraineeHandler(eligibility, &enrollmentServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/trainees/trainee-1/certificates", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "trainee-1"}}

	handler.Certificates(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trainee-1", eligibility.askedID)
	assert.Contains(t, w.Body.String(), "cert-plan")
	assert.Contains(t, w.Body.String(), "Subject: Pneumatics")
}

func TestTraineeHandlerCertificatesError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTraineeHandler(&eligibilityServiceMock{err: appErrors.ErrInternal}, &enrollmentServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/trainees/trainee-1/certificates", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "trainee-1"}}

	handler.Certificates(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTraineeHandlerEnroll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	enrollments := &enrollmentServiceMock{enrollment: &models.TraineePlanEnrollment{ID: "enr-1", TraineeID: "trainee-1", PlanID: "plan-1"}}
	handler := NewTraineeHandler(&eligibilityServiceMock{}, enrollments)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(map[string]string{"plan_id": "plan-1"})
	req, _ := http.NewRequest(http.MethodPost, "/trainees/trainee-1/plans", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "trainee-1"}}

	handler.Enroll(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "enr-1")
}

func TestTraineeHandlerWithdraw(t *testing.T) {
	gin.SetMode(gin.TestMode)
	enrollments := &enrollmentServiceMock{}
	handler := NewTraineeHandler(&eligibilityServiceMock{}, enrollments)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/trainees/trainee-1/plans/enr-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "trainee-1"}, {Key: "enrollmentId", Value: "enr-1"}}

	handler.Withdraw(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "enr-1", enrollments.withdrawn)
}
