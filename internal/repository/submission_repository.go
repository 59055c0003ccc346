package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pedago-hub/campus-api/internal/models"
)

// SubmissionRepository handles submission persistence. The
// (assignment_id, student_id) unique constraint is the single point that
// keeps concurrent submits down to one stored row.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Insert stores a new submission. Returns ErrDuplicateKey when the student
// already submitted for this assignment.
func (r *SubmissionRepository) Insert(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submissions (id, assignment_id, student_id, content, file_urls, links, submitted_at)
        VALUES (:id, :assignment_id, :student_id, :content, :file_urls, :links, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// FindByID returns the submission with the given ID.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT id, assignment_id, student_id, content, file_urls, links, submitted_at
        FROM submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindByAssignmentAndStudent returns a student's submission for an
// assignment, or sql.ErrNoRows when absent.
func (r *SubmissionRepository) FindByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	const query = `SELECT id, assignment_id, student_id, content, file_urls, links, submitted_at
        FROM submissions WHERE assignment_id = $1 AND student_id = $2`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, assignmentID, studentID); err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListByAssignment returns all submissions for an assignment with the
// submitter's name and whether an evaluation exists.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionView, error) {
	const query = `SELECT s.id, s.assignment_id, s.student_id, s.content, s.file_urls, s.links, s.submitted_at,
        u.full_name AS student_name,
        EXISTS (SELECT 1 FROM evaluations e WHERE e.submission_id = s.id) AS evaluated
        FROM submissions s
        JOIN users u ON u.id = s.student_id
        WHERE s.assignment_id = $1
        ORDER BY s.submitted_at`
	rows, err := r.db.QueryxContext(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()
	var views []models.SubmissionView
	for rows.Next() {
		var view struct {
			models.Submission
			StudentName string `db:"student_name"`
			Evaluated   bool   `db:"evaluated"`
		}
		if err := rows.StructScan(&view); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		views = append(views, models.SubmissionView{
			Submission:  view.Submission,
			StudentName: view.StudentName,
			Evaluated:   view.Evaluated,
		})
	}
	return views, rows.Err()
}
