package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestReportRepositorySubjectScores(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	rows := sqlmock.NewRows([]string{"assignment_id", "assignment_title", "score", "evaluated_at"}).
		AddRow("as-1", "Algebra homework", 12.5, time.Now().UTC()).
		AddRow("as-2", "Geometry quiz", 15.0, time.Now().UTC())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.assignment_id, a.title AS assignment_title, e.score, e.evaluated_at")).
		WithArgs("stu-1", "sp-1").
		WillReturnRows(rows)

	entries, err := repo.SubjectScores(context.Background(), "stu-1", "sp-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 12.5, entries[0].Score)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositorySpaceAggregate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	rows := sqlmock.NewRows([]string{"mean", "min", "max", "evaluated_count"}).
		AddRow(13.25, 8.0, 18.5, 4)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT AVG(e.score) AS mean")).
		WithArgs("sp-1").
		WillReturnRows(rows)

	agg, err := repo.SpaceAggregate(context.Background(), "sp-1")
	require.NoError(t, err)
	require.NotNil(t, agg.Mean)
	require.Equal(t, 13.25, *agg.Mean)
	require.Equal(t, 4, agg.EvaluatedCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositorySpaceAggregateEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	// SQL aggregates over zero rows yield NULLs, not zeros
	rows := sqlmock.NewRows([]string{"mean", "min", "max", "evaluated_count"}).
		AddRow(nil, nil, nil, 0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT AVG(e.score) AS mean")).
		WithArgs("sp-2").
		WillReturnRows(rows)

	agg, err := repo.SpaceAggregate(context.Background(), "sp-2")
	require.NoError(t, err)
	require.Nil(t, agg.Mean)
	require.Nil(t, agg.Min)
	require.Nil(t, agg.Max)
	require.Equal(t, 0, agg.EvaluatedCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryScoresByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	rows := sqlmock.NewRows([]string{"space_id", "assignment_id", "assignment_title", "score", "evaluated_at"}).
		AddRow("sp-1", "as-1", "Algebra homework", 16.0, time.Now().UTC()).
		AddRow("sp-2", "as-3", "Essay", 14.0, time.Now().UTC())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.space_id, e.assignment_id, a.title AS assignment_title")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	scores, err := repo.ScoresByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	require.Equal(t, "sp-1", scores[0].SpaceID)
	require.NoError(t, mock.ExpectationsWereMet())
}
