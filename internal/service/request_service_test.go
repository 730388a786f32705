package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certtrack-api/internal/dto"
	"github.com/noah-isme/certtrack-api/internal/models"
	"github.com/noah-isme/certtrack-api/internal/repository"
	appErrors "github.com/noah-isme/certtrack-api/pkg/errors"
)

type requestRepoStub struct {
	requests  map[string]*models.Request
	entities  map[string][]models.RequestEntity
	guards    []repository.EntityGuard
	nextSeq   int
	createErr error
}

func newRequestRepoStub() *requestRepoStub {
	return &requestRepoStub{
		requests: make(map[string]*models.Request),
		entities: make(map[string][]models.RequestEntity),
	}
}

func (r *requestRepoStub) Create(ctx context.Context, request *models.Request, entity *models.RequestEntity, guard repository.EntityGuard) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.guards = append(r.guards, guard)
	r.nextSeq++
	request.RequestID = fmt.Sprintf("REQ%06d", r.nextSeq)
	request.CreatedAt = time.Now().UTC()
	request.UpdatedAt = request.CreatedAt
	entity.RequestID = request.RequestID
	stored := *request
	r.requests[request.RequestID] = &stored
	r.entities[request.RequestID] = []models.RequestEntity{*entity}
	return nil
}

func (r *requestRepoStub) GetByID(ctx context.Context, id string) (*models.Request, error) {
	if request, ok := r.requests[id]; ok {
		copy := *request
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *requestRepoStub) ListEntities(ctx context.Context, requestID string) ([]models.RequestEntity, error) {
	return append([]models.RequestEntity(nil), r.entities[requestID]...), nil
}

func (r *requestRepoStub) List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error) {
	result := make([]models.Request, 0, len(r.requests))
	for _, request := range r.requests {
		if filter.RequestedBy != "" && request.RequestUserID != filter.RequestedBy {
			continue
		}
		result = append(result, *request)
	}
	return result, nil
}

func (r *requestRepoStub) MarkReviewed(ctx context.Context, params repository.ReviewParams) error {
	request, ok := r.requests[params.RequestID]
	if !ok || request.ApprovedDate != nil {
		return sql.ErrNoRows
	}
	request.ApprovedByUserID = &params.ApproverID
	request.ApprovedDate = &params.ReviewedAt
	request.UpdatedAt = params.ReviewedAt
	entities := r.entities[params.RequestID]
	for i := range entities {
		entities[i].RequestStatus = params.Status
	}
	return nil
}

type courseSourceStub struct {
	courses map[string]*models.Course
}

func (c *courseSourceStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := c.courses[id]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

type subjectSourceStub struct {
	subjects map[string]*models.Subject
}

func (c *subjectSourceStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if subject, ok := c.subjects[id]; ok {
		return subject, nil
	}
	return nil, sql.ErrNoRows
}

type planSourceStub struct {
	plans map[string]*models.Plan
}

func (c *planSourceStub) FindByID(ctx context.Context, id string) (*models.Plan, error) {
	if plan, ok := c.plans[id]; ok {
		return plan, nil
	}
	return nil, sql.ErrNoRows
}

type matrixSourceStub struct {
	entries map[string]*models.CourseSubjectSpecialty
}

func (c *matrixSourceStub) FindByEntityKey(ctx context.Context, key string) (*models.CourseSubjectSpecialty, error) {
	if entry, ok := c.entries[key]; ok {
		return entry, nil
	}
	return nil, sql.ErrNoRows
}

type userDirStub struct {
	users map[string]*models.User
}

func (u *userDirStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := u.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

type notifierStub struct {
	userNotices []string
	roleNotices []models.UserRole
	err         error
}

func (n *notifierStub) NotifyUser(ctx context.Context, userID, title, message string) error {
	n.userNotices = append(n.userNotices, userID)
	return n.err
}

func (n *notifierStub) NotifyRole(ctx context.Context, role models.UserRole, title, message string) error {
	n.roleNotices = append(n.roleNotices, role)
	return n.err
}

func newWorkflowFixture() (*RequestService, *requestRepoStub, *notifierStub, map[models.RequestType][]string) {
	repo := newRequestRepoStub()
	courses := &courseSourceStub{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", Status: models.CourseStatusPending},
		"course-9": {ID: "course-9", Status: models.CourseStatusApproved},
	}}
	subjects := &subjectSourceStub{subjects: map[string]*models.Subject{
		"subject-1": {ID: "subject-1", Status: models.SubjectStatusPending},
	}}
	plans := &planSourceStub{plans: map[string]*models.Plan{
		"plan-1": {ID: "plan-1", Status: models.PlanStatusPending},
	}}
	matrices := &matrixSourceStub{entries: map[string]*models.CourseSubjectSpecialty{
		"spec1subject-1course-1": {SpecialtyID: "spec1", SubjectID: "subject-1", CourseID: "course-1"},
	}}
	users := &userDirStub{users: map[string]*models.User{
		"instructor-1": {ID: "instructor-1", FullName: "Dana Reyes", Role: models.RoleInstructor},
	}}
	notifier := &notifierStub{}

	applied := make(map[models.RequestType][]string)
	appliers := make(map[models.RequestType]DecisionApplier)
	for _, rt := range models.KnownRequestTypes {
		rt := rt
		appliers[rt] = DecisionApplierFunc(func(ctx context.Context, entityID string, decision Decision) error {
			applied[rt] = append(applied[rt], entityID)
			return nil
		})
	}

	svc := NewRequestService(repo, courses, subjects, plans, matrices, users, nil,
		WithDecisionAppliers(appliers), WithWorkflowNotifier(notifier))
	return svc, repo, notifier, applied
}

func TestRequestServiceCreateAssignsSequentialIDs(t *testing.T) {
	svc, repo, notifier, _ := newWorkflowFixture()

	first, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		EntityID:    "course-1",
		RequestType: models.RequestTypeNewCourse,
		Description: "add welding course",
	}, "instructor-1")
	require.NoError(t, err)
	require.Equal(t, "REQ000001", first.RequestID)
	require.Equal(t, "Dana Reyes", first.RequestUserName)
	require.Equal(t, models.RequestStatusPending, first.Entities[0].RequestStatus)

	second, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		EntityID:    "plan-1",
		RequestType: models.RequestTypeNewPlan,
		Description: "add pilot plan",
	}, "instructor-1")
	require.NoError(t, err)
	require.Equal(t, "REQ000002", second.RequestID)

	require.Len(t, repo.guards, 2)
	require.Contains(t, repo.guards[0].Query, "FROM courses")
	require.Contains(t, repo.guards[1].Query, "FROM plans")
	require.Equal(t, []models.UserRole{models.RoleAdmin, models.RoleAdmin}, notifier.roleNotices)
}

func TestRequestServiceCreateRejectsNonPendingEntity(t *testing.T) {
	svc, repo, _, _ := newWorkflowFixture()

	_, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		EntityID:    "course-9",
		RequestType: models.RequestTypeModifyCourse,
		Description: "tweak approved course",
	}, "instructor-1")
	require.ErrorIs(t, err, appErrors.ErrInvalidState)
	require.Empty(t, repo.requests)
}

func TestRequestServiceCreateRejectsMissingEntity(t *testing.T) {
	svc, repo, _, _ := newWorkflowFixture()

	_, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		EntityID:    "course-404",
		RequestType: models.RequestTypeNewCourse,
		Description: "phantom course",
	}, "instructor-1")
	require.ErrorIs(t, err, appErrors.ErrInvalidState)
	require.Empty(t, repo.requests)
}

func TestRequestServiceCreateMapsGuardFailure(t *testing.T) {
	svc, repo, _, _ := newWorkflowFixture()
	repo.createErr = repository.ErrEntityNotPending

	_, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		EntityID:    "course-1",
		RequestType: models.RequestTypeNewCourse,
		Description: "raced by a reviewer",
	}, "instructor-1")
	require.ErrorIs(t, err, appErrors.ErrInvalidState)
}

func TestRequestServiceCreateValidatesType(t *testing.T) {
	svc, _, _, _ := newWorkflowFixture()

	_, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		EntityID:    "course-1",
		RequestType: "DropTables",
		Description: "nope",
	}, "instructor-1")
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRequestServiceCreateMatrixUsesConcatenatedKey(t *testing.T) {
	svc, repo, _, _ := newWorkflowFixture()

	detail, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		EntityID:    "spec1subject-1course-1",
		RequestType: models.RequestTypeNewMatrix,
		Description: "link subject to specialty",
	}, "instructor-1")
	require.NoError(t, err)
	require.Equal(t, "spec1subject-1course-1", detail.Entities[0].EntityID)
	require.Contains(t, repo.guards[0].Query, "specialty_id || subject_id || course_id")
}

func TestRequestServiceApproveAppliesDecisions(t *testing.T) {
	svc, repo, notifier, applied := newWorkflowFixture()

	created, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		EntityID:    "course-1",
		RequestType: models.RequestTypeNewCourse,
		Description: "add welding course",
	}, "instructor-1")
	require.NoError(t, err)

	detail, err := svc.Approve(context.Background(), created.RequestID, "admin-1")
	require.NoError(t, err)
	require.True(t, detail.Reviewed())
	require.Equal(t, "admin-1", *detail.ApprovedByUserID)
	require.Equal(t, models.RequestStatusApproved, detail.Entities[0].RequestStatus)
	require.Equal(t, []string{"course-1"}, applied[models.RequestTypeNewCourse])
	require.Equal(t, []string{"instructor-1"}, notifier.userNotices)

	stored := repo.requests[created.RequestID]
	require.NotNil(t, stored.ApprovedDate)
}

func TestRequestServiceRejectMirrorsStatus(t *testing.T) {
	svc, repo, _, applied := newWorkflowFixture()

	created, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		EntityID:    "subject-1",
		RequestType: models.RequestTypeNewSubject,
		Description: "add metallurgy",
	}, "instructor-1")
	require.NoError(t, err)

	detail, err := svc.Reject(context.Background(), created.RequestID, "admin-1")
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusRejected, detail.Entities[0].RequestStatus)
	require.Equal(t, []string{"subject-1"}, applied[models.RequestTypeNewSubject])
	require.Equal(t, models.RequestStatusRejected, repo.entities[created.RequestID][0].RequestStatus)
}

func TestRequestServiceReviewTwiceConflicts(t *testing.T) {
	svc, _, _, _ := newWorkflowFixture()

	created, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		EntityID:    "course-1",
		RequestType: models.RequestTypeNewCourse,
		Description: "add welding course",
	}, "instructor-1")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), created.RequestID, "admin-1")
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), created.RequestID, "admin-2")
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.Equal(t, "request already reviewed", appErr.Message)
}

func TestRequestServiceReviewUnknownRequest(t *testing.T) {
	svc, _, _, _ := newWorkflowFixture()

	_, err := svc.Approve(context.Background(), "REQ999999", "admin-1")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestRequestServiceApplierFailureDoesNotUndoReview(t *testing.T) {
	svc, repo, _, _ := newWorkflowFixture()
	svc.appliers[models.RequestTypeNewCourse] = DecisionApplierFunc(func(ctx context.Context, entityID string, decision Decision) error {
		return fmt.Errorf("course table unavailable")
	})

	created, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		EntityID:    "course-1",
		RequestType: models.RequestTypeNewCourse,
		Description: "add welding course",
	}, "instructor-1")
	require.NoError(t, err)

	detail, err := svc.Approve(context.Background(), created.RequestID, "admin-1")
	require.NoError(t, err)
	require.True(t, detail.Reviewed())
	require.NotNil(t, repo.requests[created.RequestID].ApprovedDate)
}

func TestRequestServiceMissingApplierIsSkipped(t *testing.T) {
	svc, _, _, _ := newWorkflowFixture()
	delete(svc.appliers, models.RequestTypeNewPlan)

	created, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		EntityID:    "plan-1",
		RequestType: models.RequestTypeNewPlan,
		Description: "add pilot plan",
	}, "instructor-1")
	require.NoError(t, err)

	detail, err := svc.Approve(context.Background(), created.RequestID, "admin-1")
	require.NoError(t, err)
	require.True(t, detail.Reviewed())
}

func TestRequestServiceListScopesInstructorToOwnRequests(t *testing.T) {
	svc, repo, _, _ := newWorkflowFixture()
	repo.requests["REQ000010"] = &models.Request{RequestID: "REQ000010", RequestUserID: "instructor-1"}
	repo.requests["REQ000011"] = &models.Request{RequestID: "REQ000011", RequestUserID: "instructor-2"}

	requests, err := svc.List(context.Background(), dto.RequestQuery{}, &models.JWTClaims{
		UserID: "instructor-1",
		Role:   models.RoleInstructor,
	})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, "REQ000010", requests[0].RequestID)

	_, err = svc.List(context.Background(), dto.RequestQuery{}, &models.JWTClaims{
		UserID: "trainee-1",
		Role:   models.RoleTrainee,
	})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestRequestServiceGetEnforcesOwnership(t *testing.T) {
	svc, repo, _, _ := newWorkflowFixture()
	repo.requests["REQ000010"] = &models.Request{RequestID: "REQ000010", RequestUserID: "instructor-1"}

	_, err := svc.Get(context.Background(), "REQ000010", &models.JWTClaims{
		UserID: "instructor-2",
		Role:   models.RoleInstructor,
	})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	detail, err := svc.Get(context.Background(), "REQ000010", &models.JWTClaims{
		UserID: "admin-1",
		Role:   models.RoleAdmin,
	})
	require.NoError(t, err)
	require.Equal(t, "REQ000010", detail.RequestID)
}
