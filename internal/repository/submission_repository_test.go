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
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/pedago-hub/campus-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubmissionRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	content := "answer"
	submission := &models.Submission{
		AssignmentID: "as-1",
		StudentID:    "stu-1",
		Content:      &content,
	}
	require.NoError(t, repo.Insert(context.Background(), submission))
	require.NotEmpty(t, submission.ID)
	require.False(t, submission.SubmittedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryInsertDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Insert(context.Background(), &models.Submission{AssignmentID: "as-1", StudentID: "stu-1"})
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryFindByAssignmentAndStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	submittedAt := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "assignment_id", "student_id", "content", "file_urls", "links", "submitted_at"}).
		AddRow("sub-1", "as-1", "stu-1", "answer", "{}", "{}", submittedAt)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, assignment_id, student_id, content, file_urls, links, submitted_at")).
		WithArgs("as-1", "stu-1").
		WillReturnRows(rows)

	found, err := repo.FindByAssignmentAndStudent(context.Background(), "as-1", "stu-1")
	require.NoError(t, err)
	require.Equal(t, "sub-1", found.ID)
	require.Equal(t, "answer", *found.Content)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, assignment_id, student_id, content, file_urls, links, submitted_at")).
		WithArgs("as-1", "stu-2").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByAssignmentAndStudent(context.Background(), "as-1", "stu-2")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListByAssignment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	rows := sqlmock.NewRows([]string{"id", "assignment_id", "student_id", "content", "file_urls", "links", "submitted_at", "student_name", "evaluated"}).
		AddRow("sub-1", "as-1", "stu-1", nil, "{}", "{}", time.Now().UTC(), "Ada Student", true).
		AddRow("sub-2", "as-1", "stu-2", "text", "{}", "{}", time.Now().UTC(), "Bob Student", false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id, s.assignment_id, s.student_id")).
		WithArgs("as-1").
		WillReturnRows(rows)

	views, err := repo.ListByAssignment(context.Background(), "as-1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "Ada Student", views[0].StudentName)
	require.True(t, views[0].Evaluated)
	require.False(t, views[1].Evaluated)
	require.NoError(t, mock.ExpectationsWereMet())
}
