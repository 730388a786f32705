package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestStudyRecordRepositoryListByPlan(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewStudyRecordRepository(sqlx.NewDb(db, "sqlmock"))
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "plan_id", "course_id", "subject_id", "course_name", "subject_name", "created_at"}).
		AddRow("sr-1", "plan-1", "course-1", "subj-1", "Seamanship", "Navigation", now).
		AddRow("sr-2", "plan-1", "course-1", "subj-2", "Seamanship", "Meteorology", now).
		AddRow("sr-3", "plan-1", "course-2", "subj-3", "Engineering", "Thermodynamics", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM study_records sr")).
		WithArgs("plan-1").
		WillReturnRows(rows)

	records, err := repo.ListByPlan(context.Background(), "plan-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "Navigation", records[0].SubjectName)
	require.Equal(t, "Engineering", records[2].CourseName)
	require.NoError(t, mock.ExpectationsWereMet())
}
