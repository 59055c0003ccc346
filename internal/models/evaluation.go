package models

import "time"

// Score bounds for evaluations; the French 0-20 grading scale.
const (
	ScoreMin = 0.0
	ScoreMax = 20.0
)

// Evaluation is the grade attached to one submission. Immutable once
// created; uniqueness per submission is enforced by the database.
type Evaluation struct {
	ID           string    `db:"id" json:"id"`
	SubmissionID string    `db:"submission_id" json:"submission_id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	Score        float64   `db:"score" json:"score"`
	Comment      *string   `db:"comment" json:"comment,omitempty"`
	EvaluatedAt  time.Time `db:"evaluated_at" json:"evaluated_at"`
}

// EvaluationView adds display context to an evaluation.
type EvaluationView struct {
	Evaluation
	StudentName     string `db:"student_name" json:"student_name"`
	AssignmentTitle string `db:"assignment_title" json:"assignment_title"`
}
