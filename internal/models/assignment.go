package models

import (
	"time"

	"github.com/lib/pq"
)

// AssignmentKind distinguishes single-assignee from group work items.
type AssignmentKind string

const (
	KindIndividual AssignmentKind = "INDIVIDUAL"
	KindCollective AssignmentKind = "COLLECTIVE"
)

// AssignmentStatus is the derived lifecycle state of an assignment. It is
// never stored; it is recomputed from submission and evaluation state on
// every read.
type AssignmentStatus string

const (
	StatusPending   AssignmentStatus = "PENDING"
	StatusSubmitted AssignmentStatus = "SUBMITTED"
	StatusEvaluated AssignmentStatus = "EVALUATED"
)

// Assignment is a work item posted to assignees within a space.
type Assignment struct {
	ID           string         `db:"id" json:"id"`
	SpaceID      string         `db:"space_id" json:"space_id"`
	InstructorID string         `db:"instructor_id" json:"instructor_id"`
	Title        string         `db:"title" json:"title"`
	Instructions string         `db:"instructions" json:"instructions"`
	Kind         AssignmentKind `db:"kind" json:"kind"`
	OpensAt      time.Time      `db:"opens_at" json:"opens_at"`
	DueAt        time.Time      `db:"due_at" json:"due_at"`
	FileURLs     pq.StringArray `db:"file_urls" json:"file_urls"`
	Links        pq.StringArray `db:"links" json:"links"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`

	AssigneeIDs []string `json:"assignee_ids,omitempty"`
}

// AssignmentView decorates an assignment with its derived status.
type AssignmentView struct {
	Assignment
	Status  AssignmentStatus `json:"status"`
	Overdue bool             `json:"overdue"`
}

// AssignmentCounts carries the tallies the status derivation needs.
type AssignmentCounts struct {
	AssignmentID string `db:"assignment_id"`
	Assignees    int    `db:"assignees"`
	Submitted    int    `db:"submitted"`
	Evaluated    int    `db:"evaluated"`
}

// DeriveAssignmentStatus is the single place assignment status is computed.
// EVALUATED requires every assignee to have an evaluated submission, not
// just every submitter. Lateness never influences the result.
func DeriveAssignmentStatus(assignees, submitted, evaluated int) AssignmentStatus {
	if assignees > 0 && submitted == assignees && evaluated == assignees {
		return StatusEvaluated
	}
	if submitted > 0 {
		return StatusSubmitted
	}
	return StatusPending
}
