package models

import "time"

// Space is a subject unit carrying a grading coefficient. Students are
// enrolled into it and instructors assigned to it through join tables.
type Space struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Code        string    `db:"code" json:"code"`
	Description *string   `db:"description" json:"description,omitempty"`
	Coefficient int       `db:"coefficient" json:"coefficient"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SpaceMember is a student or instructor attached to a space.
type SpaceMember struct {
	UserID   string `db:"user_id" json:"user_id"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

// SpaceStatistics summarises evaluation results within one space.
type SpaceStatistics struct {
	SpaceID        string   `json:"space_id"`
	SpaceName      string   `json:"space_name"`
	Mean           *float64 `json:"mean,omitempty"`
	Min            *float64 `json:"min,omitempty"`
	Max            *float64 `json:"max,omitempty"`
	EvaluatedCount int      `json:"evaluated_count"`
}
