package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pedago-hub/campus-api/internal/models"
)

// SpaceRepository handles space persistence and roster lookups. It is the
// roster provider the assignment and report services consult.
type SpaceRepository struct {
	db *sqlx.DB
}

// NewSpaceRepository creates a new space repository.
func NewSpaceRepository(db *sqlx.DB) *SpaceRepository {
	return &SpaceRepository{db: db}
}

// FindByID returns the space with the given ID.
func (r *SpaceRepository) FindByID(ctx context.Context, id string) (*models.Space, error) {
	const query = `SELECT id, name, code, description, coefficient, created_at, updated_at
        FROM spaces WHERE id = $1`
	var space models.Space
	if err := r.db.GetContext(ctx, &space, query, id); err != nil {
		return nil, err
	}
	return &space, nil
}

// ListStudentIDs returns the IDs of students enrolled in the space.
func (r *SpaceRepository) ListStudentIDs(ctx context.Context, spaceID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM space_students WHERE space_id = $1`, spaceID); err != nil {
		return nil, fmt.Errorf("list space students: %w", err)
	}
	return ids, nil
}

// ListStudents returns enrolled students with display details.
func (r *SpaceRepository) ListStudents(ctx context.Context, spaceID string) ([]models.SpaceMember, error) {
	const query = `SELECT u.id AS user_id, u.full_name, u.email
        FROM space_students ss
        JOIN users u ON u.id = ss.user_id
        WHERE ss.space_id = $1
        ORDER BY u.full_name`
	var members []models.SpaceMember
	if err := r.db.SelectContext(ctx, &members, query, spaceID); err != nil {
		return nil, fmt.Errorf("list space members: %w", err)
	}
	return members, nil
}

// IsInstructor reports whether the user is assigned to teach the space.
func (r *SpaceRepository) IsInstructor(ctx context.Context, userID, spaceID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM space_instructors WHERE space_id = $1 AND user_id = $2`, spaceID, userID); err != nil {
		return false, fmt.Errorf("check instructor membership: %w", err)
	}
	return count > 0, nil
}

// IsStudent reports whether the user is enrolled in the space.
func (r *SpaceRepository) IsStudent(ctx context.Context, userID, spaceID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM space_students WHERE space_id = $1 AND user_id = $2`, spaceID, userID); err != nil {
		return false, fmt.Errorf("check student enrollment: %w", err)
	}
	return count > 0, nil
}

// ListByInstructor returns the spaces an instructor is assigned to.
func (r *SpaceRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.Space, error) {
	const query = `SELECT s.id, s.name, s.code, s.description, s.coefficient, s.created_at, s.updated_at
        FROM spaces s
        JOIN space_instructors si ON si.space_id = s.id
        WHERE si.user_id = $1
        ORDER BY s.name`
	var spaces []models.Space
	if err := r.db.SelectContext(ctx, &spaces, query, instructorID); err != nil {
		return nil, fmt.Errorf("list spaces by instructor: %w", err)
	}
	return spaces, nil
}

// ListByStudent returns the spaces a student is enrolled in.
func (r *SpaceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Space, error) {
	const query = `SELECT s.id, s.name, s.code, s.description, s.coefficient, s.created_at, s.updated_at
        FROM spaces s
        JOIN space_students ss ON ss.space_id = s.id
        WHERE ss.user_id = $1
        ORDER BY s.name`
	var spaces []models.Space
	if err := r.db.SelectContext(ctx, &spaces, query, studentID); err != nil {
		return nil, fmt.Errorf("list spaces by student: %w", err)
	}
	return spaces, nil
}
