package models

import "time"

// ScoreEntry is one evaluated score inside a subject report.
type ScoreEntry struct {
	AssignmentID    string    `db:"assignment_id" json:"assignment_id"`
	AssignmentTitle string    `db:"assignment_title" json:"assignment_title"`
	Score           float64   `db:"score" json:"score"`
	EvaluatedAt     time.Time `db:"evaluated_at" json:"evaluated_at"`
}

// SubjectReport aggregates one student's evaluated scores within one space.
// Mean is nil when the student has no evaluations in the space; "no grades
// yet" is distinct from an average of zero. The mean is unrounded; display
// rounding is left to presentation.
type SubjectReport struct {
	SpaceID     string       `json:"space_id"`
	SpaceName   string       `json:"space_name"`
	SpaceCode   string       `json:"space_code"`
	Coefficient int          `json:"coefficient"`
	Scores      []ScoreEntry `json:"scores"`
	Mean        *float64     `json:"mean,omitempty"`
}

// StudentScoreRow is a raw evaluated-score row for one student across
// spaces, grouped by the aggregator.
type StudentScoreRow struct {
	SpaceID         string    `db:"space_id"`
	AssignmentID    string    `db:"assignment_id"`
	AssignmentTitle string    `db:"assignment_title"`
	Score           float64   `db:"score"`
	EvaluatedAt     time.Time `db:"evaluated_at"`
}

// SpaceGradeRow is one evaluated score within a space, used for grade
// sheets and statistics.
type SpaceGradeRow struct {
	StudentID       string  `db:"student_id"`
	StudentName     string  `db:"student_name"`
	AssignmentID    string  `db:"assignment_id"`
	AssignmentTitle string  `db:"assignment_title"`
	Score           float64 `db:"score"`
}

// SpaceScoreAggregate is the SQL-side aggregation for space statistics.
type SpaceScoreAggregate struct {
	Mean           *float64 `db:"mean"`
	Min            *float64 `db:"min"`
	Max            *float64 `db:"max"`
	EvaluatedCount int      `db:"evaluated_count"`
}

// OverallReport is a student's coefficient-weighted aggregate across spaces.
// Spaces without evaluations contribute neither numerator nor denominator;
// WeightedMean is nil when no space has any grade.
type OverallReport struct {
	StudentID    string          `json:"student_id"`
	StudentName  string          `json:"student_name,omitempty"`
	Subjects     []SubjectReport `json:"subjects"`
	WeightedMean *float64        `json:"weighted_mean,omitempty"`
}
