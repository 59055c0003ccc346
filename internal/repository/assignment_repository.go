package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pedago-hub/campus-api/internal/models"
)

// AssignmentRepository handles assignment persistence. Assignments carry no
// status column; status is derived from the counts this repository exposes.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts the assignment and its assignee rows in one transaction.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create assignment: %w", err)
	}

	const query = `INSERT INTO assignments (id, space_id, instructor_id, title, instructions, kind, opens_at, due_at, file_urls, links, created_at)
        VALUES (:id, :space_id, :instructor_id, :title, :instructions, :kind, :opens_at, :due_at, :file_urls, :links, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, assignment); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert assignment: %w", err)
	}
	for _, studentID := range assignment.AssigneeIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO assignment_assignees (assignment_id, student_id) VALUES ($1, $2)`, assignment.ID, studentID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert assignee: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create assignment: %w", err)
	}
	return nil
}

// FindByID returns the assignment with its assignee IDs.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT id, space_id, instructor_id, title, instructions, kind, opens_at, due_at, file_urls, links, created_at
        FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &assignment.AssigneeIDs, `SELECT student_id FROM assignment_assignees WHERE assignment_id = $1`, id); err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	return &assignment, nil
}

// Delete removes the assignment and cascades to its evaluations,
// submissions and assignee rows in a single transaction.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete assignment: %w", err)
	}
	steps := []string{
		`DELETE FROM evaluations WHERE assignment_id = $1`,
		`DELETE FROM submissions WHERE assignment_id = $1`,
		`DELETE FROM assignment_assignees WHERE assignment_id = $1`,
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step, id); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("cascade delete assignment: %w", err)
		}
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete assignment rows: %w", err)
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete assignment: %w", err)
	}
	return nil
}

// ListBySpace returns all assignments in a space.
func (r *AssignmentRepository) ListBySpace(ctx context.Context, spaceID string) ([]models.Assignment, error) {
	const query = `SELECT id, space_id, instructor_id, title, instructions, kind, opens_at, due_at, file_urls, links, created_at
        FROM assignments WHERE space_id = $1 ORDER BY created_at DESC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, spaceID); err != nil {
		return nil, fmt.Errorf("list assignments by space: %w", err)
	}
	return assignments, nil
}

// ListByAssignee returns all assignments targeting a student.
func (r *AssignmentRepository) ListByAssignee(ctx context.Context, studentID string) ([]models.Assignment, error) {
	const query = `SELECT a.id, a.space_id, a.instructor_id, a.title, a.instructions, a.kind, a.opens_at, a.due_at, a.file_urls, a.links, a.created_at
        FROM assignments a
        JOIN assignment_assignees aa ON aa.assignment_id = a.id
        WHERE aa.student_id = $1
        ORDER BY a.due_at`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, studentID); err != nil {
		return nil, fmt.Errorf("list assignments by assignee: %w", err)
	}
	return assignments, nil
}

// Counts returns the assignee/submission/evaluation tallies for one
// assignment, read fresh on every call.
func (r *AssignmentRepository) Counts(ctx context.Context, assignmentID string) (*models.AssignmentCounts, error) {
	const query = `SELECT a.id AS assignment_id,
        (SELECT COUNT(*) FROM assignment_assignees aa WHERE aa.assignment_id = a.id) AS assignees,
        (SELECT COUNT(*) FROM submissions s WHERE s.assignment_id = a.id) AS submitted,
        (SELECT COUNT(*) FROM evaluations e WHERE e.assignment_id = a.id) AS evaluated
        FROM assignments a WHERE a.id = $1`
	var counts models.AssignmentCounts
	if err := r.db.GetContext(ctx, &counts, query, assignmentID); err != nil {
		return nil, err
	}
	return &counts, nil
}

// CountsBySpaces returns tallies for every assignment in the given spaces,
// used to build an instructor's grading queue.
func (r *AssignmentRepository) CountsBySpaces(ctx context.Context, spaceIDs []string) (map[string]models.AssignmentCounts, error) {
	if len(spaceIDs) == 0 {
		return map[string]models.AssignmentCounts{}, nil
	}
	const query = `SELECT a.id AS assignment_id,
        (SELECT COUNT(*) FROM assignment_assignees aa WHERE aa.assignment_id = a.id) AS assignees,
        (SELECT COUNT(*) FROM submissions s WHERE s.assignment_id = a.id) AS submitted,
        (SELECT COUNT(*) FROM evaluations e WHERE e.assignment_id = a.id) AS evaluated
        FROM assignments a WHERE a.space_id = ANY($1)`
	rows, err := r.db.QueryxContext(ctx, query, pq.Array(spaceIDs))
	if err != nil {
		return nil, fmt.Errorf("counts by spaces: %w", err)
	}
	defer rows.Close()
	result := make(map[string]models.AssignmentCounts)
	for rows.Next() {
		var counts models.AssignmentCounts
		if err := rows.StructScan(&counts); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}
		result[counts.AssignmentID] = counts
	}
	return result, rows.Err()
}

// ListBySpaces returns all assignments across the given spaces.
func (r *AssignmentRepository) ListBySpaces(ctx context.Context, spaceIDs []string) ([]models.Assignment, error) {
	if len(spaceIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, space_id, instructor_id, title, instructions, kind, opens_at, due_at, file_urls, links, created_at
        FROM assignments WHERE space_id = ANY($1) ORDER BY due_at`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, pq.Array(spaceIDs)); err != nil {
		return nil, fmt.Errorf("list assignments by spaces: %w", err)
	}
	return assignments, nil
}

// IsAssignee reports whether the student is targeted by the assignment.
func (r *AssignmentRepository) IsAssignee(ctx context.Context, assignmentID, studentID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM assignment_assignees WHERE assignment_id = $1 AND student_id = $2`, assignmentID, studentID); err != nil {
		return false, fmt.Errorf("check assignee: %w", err)
	}
	return count > 0, nil
}
