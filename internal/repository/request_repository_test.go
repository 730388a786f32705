package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certtrack-api/internal/models"
)

func newRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func pendingPlanGuard(planID string) EntityGuard {
	return EntityGuard{
		Query: `SELECT 1 FROM plans WHERE id = $1 AND status = $2 FOR UPDATE`,
		Args:  []interface{}{planID, models.PlanStatusPending},
	}
}

func TestRequestRepositoryCreateAssignsFirstID(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM plans")).
		WithArgs("plan-1", string(models.PlanStatusPending)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT request_id FROM requests ORDER BY request_id DESC LIMIT 1 FOR UPDATE")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO request_entities")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	request := &models.Request{
		RequestUserID: "user-1",
		Description:   "new training plan",
	}
	entity := &models.RequestEntity{
		EntityID:    "plan-1",
		RequestType: models.RequestTypeNewPlan,
	}
	require.NoError(t, repo.Create(context.Background(), request, entity, pendingPlanGuard("plan-1")))
	require.Equal(t, models.FirstRequestID, request.RequestID)
	require.Equal(t, models.FirstRequestID, entity.RequestID)
	require.Equal(t, models.RequestStatusPending, entity.RequestStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryCreateIncrementsID(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM plans")).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT request_id FROM requests")).
		WillReturnRows(sqlmock.NewRows([]string{"request_id"}).AddRow("REQ000041"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO request_entities")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	request := &models.Request{RequestUserID: "user-1", Description: "change"}
	entity := &models.RequestEntity{EntityID: "plan-1", RequestType: models.RequestTypeModifyPlan}
	require.NoError(t, repo.Create(context.Background(), request, entity, pendingPlanGuard("plan-1")))
	require.Equal(t, "REQ000042", request.RequestID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryCreateGuardRejects(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM plans")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	request := &models.Request{RequestUserID: "user-1", Description: "change"}
	entity := &models.RequestEntity{EntityID: "plan-1", RequestType: models.RequestTypeNewPlan}
	err := repo.Create(context.Background(), request, entity, pendingPlanGuard("plan-1"))
	require.ErrorIs(t, err, ErrEntityNotPending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryMarkReviewed(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests")).
		WithArgs("admin-1", now, "REQ000001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE request_entities")).
		WithArgs(string(models.RequestStatusApproved), "REQ000001", string(models.RequestStatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.MarkReviewed(context.Background(), ReviewParams{
		RequestID:  "REQ000001",
		Status:     models.RequestStatusApproved,
		ApproverID: "admin-1",
		ReviewedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryMarkReviewedAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.MarkReviewed(context.Background(), ReviewParams{
		RequestID:  "REQ000001",
		Status:     models.RequestStatusRejected,
		ApproverID: "admin-1",
		ReviewedAt: time.Now().UTC(),
	})
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}
