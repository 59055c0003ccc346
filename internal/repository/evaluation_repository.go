package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pedago-hub/campus-api/internal/models"
)

// EvaluationRepository handles evaluation persistence. The submission_id
// unique constraint enforces the one-shot grading rule.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository creates a new evaluation repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Insert stores a new evaluation. Returns ErrDuplicateKey when the
// submission already carries one.
func (r *EvaluationRepository) Insert(ctx context.Context, evaluation *models.Evaluation) error {
	if evaluation.ID == "" {
		evaluation.ID = uuid.NewString()
	}
	if evaluation.EvaluatedAt.IsZero() {
		evaluation.EvaluatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO evaluations (id, submission_id, assignment_id, student_id, instructor_id, score, comment, evaluated_at)
        VALUES (:id, :submission_id, :assignment_id, :student_id, :instructor_id, :score, :comment, :evaluated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, evaluation); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// FindBySubmission returns the evaluation for a submission, or
// sql.ErrNoRows when the submission is still pending.
func (r *EvaluationRepository) FindBySubmission(ctx context.Context, submissionID string) (*models.Evaluation, error) {
	const query = `SELECT id, submission_id, assignment_id, student_id, instructor_id, score, comment, evaluated_at
        FROM evaluations WHERE submission_id = $1`
	var evaluation models.Evaluation
	if err := r.db.GetContext(ctx, &evaluation, query, submissionID); err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// ListByAssignment returns evaluations for an assignment with display
// context for the instructor's review screen.
func (r *EvaluationRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.EvaluationView, error) {
	const query = `SELECT e.id, e.submission_id, e.assignment_id, e.student_id, e.instructor_id, e.score, e.comment, e.evaluated_at,
        u.full_name AS student_name, a.title AS assignment_title
        FROM evaluations e
        JOIN users u ON u.id = e.student_id
        JOIN assignments a ON a.id = e.assignment_id
        WHERE e.assignment_id = $1
        ORDER BY e.evaluated_at`
	var views []models.EvaluationView
	if err := r.db.SelectContext(ctx, &views, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return views, nil
}
