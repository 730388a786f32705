package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certtrack-api/internal/models"
)

type courseDecisionStub struct {
	courses  map[string]*models.Course
	status   models.CourseStatus
	approver string
}

func (c *courseDecisionStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := c.courses[id]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

func (c *courseDecisionStub) SetDecision(ctx context.Context, id string, status models.CourseStatus, approverID string, decidedAt time.Time) error {
	if _, ok := c.courses[id]; !ok {
		return sql.ErrNoRows
	}
	c.status = status
	c.approver = approverID
	return nil
}

type matrixDecisionStub struct {
	entries  map[string]*models.CourseSubjectSpecialty
	approved *bool
	key      [3]string
}

func (m *matrixDecisionStub) FindByEntityKey(ctx context.Context, key string) (*models.CourseSubjectSpecialty, error) {
	if entry, ok := m.entries[key]; ok {
		return entry, nil
	}
	return nil, sql.ErrNoRows
}

func (m *matrixDecisionStub) SetDecision(ctx context.Context, specialtyID, subjectID, courseID string, approved bool, approverID string, decidedAt time.Time) error {
	m.approved = &approved
	m.key = [3]string{specialtyID, subjectID, courseID}
	return nil
}

func TestCourseDecisionApplierMapsStatus(t *testing.T) {
	store := &courseDecisionStub{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", Status: models.CourseStatusPending},
	}}
	applier := NewCourseDecisionApplier(store)

	err := applier.Apply(context.Background(), "course-1", Decision{Approved: true, ApproverID: "admin-1", DecidedAt: time.Now()})
	require.NoError(t, err)
	require.Equal(t, models.CourseStatusApproved, store.status)
	require.Equal(t, "admin-1", store.approver)

	err = applier.Apply(context.Background(), "course-1", Decision{Approved: false, ApproverID: "admin-1", DecidedAt: time.Now()})
	require.NoError(t, err)
	require.Equal(t, models.CourseStatusRejected, store.status)
}

func TestCourseDecisionApplierUnknownCourse(t *testing.T) {
	store := &courseDecisionStub{courses: map[string]*models.Course{}}
	applier := NewCourseDecisionApplier(store)

	err := applier.Apply(context.Background(), "course-404", Decision{Approved: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "course-404")
}

func TestMatrixDecisionApplierResolvesEntityKey(t *testing.T) {
	store := &matrixDecisionStub{entries: map[string]*models.CourseSubjectSpecialty{
		"spec1subj1course1": {SpecialtyID: "spec1", SubjectID: "subj1", CourseID: "course1"},
	}}
	applier := NewMatrixDecisionApplier(store, nil)

	err := applier.Apply(context.Background(), "spec1subj1course1", Decision{Approved: true, ApproverID: "admin-1", DecidedAt: time.Now()})
	require.NoError(t, err)
	require.NotNil(t, store.approved)
	require.True(t, *store.approved)
	require.Equal(t, [3]string{"spec1", "subj1", "course1"}, store.key)
}

func TestBuildDecisionAppliersCoversAllTypes(t *testing.T) {
	appliers := BuildDecisionAppliers(&courseDecisionStub{}, nil, nil, &matrixDecisionStub{}, nil)
	for _, rt := range models.KnownRequestTypes {
		require.Contains(t, appliers, rt)
	}
}
