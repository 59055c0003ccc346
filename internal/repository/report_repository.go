package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pedago-hub/campus-api/internal/models"
)

// ReportRepository reads evaluated scores for the grading aggregator. It
// only performs reads; all aggregation arithmetic lives in the service.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// SubjectScores returns a student's evaluated scores within one space,
// oldest evaluation first.
func (r *ReportRepository) SubjectScores(ctx context.Context, studentID, spaceID string) ([]models.ScoreEntry, error) {
	const query = `SELECT e.assignment_id, a.title AS assignment_title, e.score, e.evaluated_at
        FROM evaluations e
        JOIN assignments a ON a.id = e.assignment_id
        WHERE e.student_id = $1 AND a.space_id = $2
        ORDER BY e.evaluated_at`
	var entries []models.ScoreEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID, spaceID); err != nil {
		return nil, fmt.Errorf("subject scores: %w", err)
	}
	return entries, nil
}

// ScoresByStudent returns every evaluated score for a student across all
// spaces, for the overall report.
func (r *ReportRepository) ScoresByStudent(ctx context.Context, studentID string) ([]models.StudentScoreRow, error) {
	const query = `SELECT a.space_id, e.assignment_id, a.title AS assignment_title, e.score, e.evaluated_at
        FROM evaluations e
        JOIN assignments a ON a.id = e.assignment_id
        WHERE e.student_id = $1
        ORDER BY e.evaluated_at`
	var rows []models.StudentScoreRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("scores by student: %w", err)
	}
	return rows, nil
}

// SpaceAggregate computes min/max/mean and the number of distinct evaluated
// students for one space.
func (r *ReportRepository) SpaceAggregate(ctx context.Context, spaceID string) (*models.SpaceScoreAggregate, error) {
	const query = `SELECT AVG(e.score) AS mean, MIN(e.score) AS min, MAX(e.score) AS max,
        COUNT(DISTINCT e.student_id) AS evaluated_count
        FROM evaluations e
        JOIN assignments a ON a.id = e.assignment_id
        WHERE a.space_id = $1`
	var agg models.SpaceScoreAggregate
	if err := r.db.GetContext(ctx, &agg, query, spaceID); err != nil {
		return nil, fmt.Errorf("space aggregate: %w", err)
	}
	return &agg, nil
}

// SpaceGradeRows returns every evaluated score within a space, for grade
// sheet export.
func (r *ReportRepository) SpaceGradeRows(ctx context.Context, spaceID string) ([]models.SpaceGradeRow, error) {
	const query = `SELECT e.student_id, u.full_name AS student_name, e.assignment_id, a.title AS assignment_title, e.score
        FROM evaluations e
        JOIN assignments a ON a.id = e.assignment_id
        JOIN users u ON u.id = e.student_id
        WHERE a.space_id = $1
        ORDER BY u.full_name, a.due_at`
	var rows []models.SpaceGradeRow
	if err := r.db.SelectContext(ctx, &rows, query, spaceID); err != nil {
		return nil, fmt.Errorf("space grade rows: %w", err)
	}
	return rows, nil
}
