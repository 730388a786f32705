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

	"github.com/noah-isme/certtrack-api/internal/dto"
	"github.com/noah-isme/certtrack-api/internal/middleware"
	"github.com/noah-isme/certtrack-api/internal/models"
	appErrors "github.com/noah-isme/certtrack-api/pkg/errors"
)

type requestServiceMock struct {
	createResp  *models.RequestDetail
	createErr   error
	listResp    []models.Request
	listQuery   dto.RequestQuery
	detail      *models.RequestDetail
	reviewErr   error
	approvedBy  string
	rejectedBy  string
	createdBy   string
	requestedID string
}

func (m *requestServiceMock) Create(ctx context.Context, req dto.CreateRequestRequest, userID string) (*models.RequestDetail, error) {
	m.createdBy = userID
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createResp, nil
}

func (m *requestServiceMock) Get(ctx context.Context, requestID string, actor *models.JWTClaims) (*models.RequestDetail, error) {
	m.requestedID = requestID
	return m.detail, nil
}

func (m *requestServiceMock) List(ctx context.Context, query dto.RequestQuery, actor *models.JWTClaims) ([]models.Request, error) {
	m.listQuery = query
	return m.listResp, nil
}

func (m *requestServiceMock) Approve(ctx context.Context, requestID, approverID string) (*models.RequestDetail, error) {
	m.approvedBy = approverID
	if m.reviewErr != nil {
		return nil, m.reviewErr
	}
	return m.detail, nil
}

func (m *requestServiceMock) Reject(ctx context.Context, requestID, approverID string) (*models.RequestDetail, error) {
	m.rejectedBy = approverID
	if m.reviewErr != nil {
		return nil, m.reviewErr
	}
	return m.detail, nil
}

func TestRequestHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &requestServiceMock{createResp: &models.RequestDetail{
		Request: models.Request{RequestID: "REQ000007", RequestUserID: "instructor-1"},
	}}
	handler := NewRequestHandler(mock, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.CreateRequestRequest{
		EntityID:    "course-1",
		RequestType: models.RequestTypeModifyCourse,
		Description: "update syllabus",
	})
	req, _ := http.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "instructor-1", Role: models.RoleInstructor})

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "instructor-1", mock.createdBy)
	assert.Contains(t, w.Body.String(), "REQ000007")
}

func TestRequestHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRequestHandler(&requestServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/requests", bytes.NewReader([]byte(`not-json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "instructor-1", Role: models.RoleInstructor})

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandlerCreateRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRequestHandler(&requestServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.CreateRequestRequest{EntityID: "course-1", RequestType: models.RequestTypeModifyCourse, Description: "x"})
	req, _ := http.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestHandlerListParsesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &requestServiceMock{listResp: []models.Request{}}
	handler := NewRequestHandler(mock, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/requests?status=Pending,%20Approved&type=modifyCourse&entity_id=course-1", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.RequestStatus{models.RequestStatusPending, models.RequestStatusApproved}, mock.listQuery.Status)
	assert.Equal(t, models.RequestTypeModifyCourse, mock.listQuery.Type)
	assert.Equal(t, "course-1", mock.listQuery.EntityID)
}

func TestRequestHandlerApprovePassesApprover(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &requestServiceMock{detail: &models.RequestDetail{
		Request: models.Request{RequestID: "REQ000001"},
		Entities: []models.RequestEntity{
			{RequestID: "REQ000001", EntityID: "course-1", RequestStatus: models.RequestStatusApproved},
		},
	}}
	handler := NewRequestHandler(mock, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/requests/REQ000001/approve", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "REQ000001"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Approve(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-1", mock.approvedBy)
}

func TestRequestHandlerReviewConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &requestServiceMock{reviewErr: appErrors.Clone(appErrors.ErrConflict, "request already reviewed")}
	handler := NewRequestHandler(mock, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/requests/REQ000001/reject", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "REQ000001"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Reject(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "request already reviewed")
}
