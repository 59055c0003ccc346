package models

import (
	"time"

	"github.com/lib/pq"
)

// Submission is one student's deliverable for one assignment. Content and
// resources are immutable once recorded; uniqueness per
// (assignment, student) is enforced by the database.
type Submission struct {
	ID           string         `db:"id" json:"id"`
	AssignmentID string         `db:"assignment_id" json:"assignment_id"`
	StudentID    string         `db:"student_id" json:"student_id"`
	Content      *string        `db:"content" json:"content,omitempty"`
	FileURLs     pq.StringArray `db:"file_urls" json:"file_urls"`
	Links        pq.StringArray `db:"links" json:"links"`
	SubmittedAt  time.Time      `db:"submitted_at" json:"submitted_at"`
}

// SubmissionView decorates a submission with read-time flags.
type SubmissionView struct {
	Submission
	StudentName string `json:"student_name,omitempty"`
	Late        bool   `json:"late"`
	Evaluated   bool   `json:"evaluated"`
}

// HasContent reports whether the submission carries any deliverable.
func (s Submission) HasContent() bool {
	if s.Content != nil && *s.Content != "" {
		return true
	}
	return len(s.FileURLs) > 0 || len(s.Links) > 0
}
