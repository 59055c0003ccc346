package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveAssignmentStatus(t *testing.T) {
	cases := []struct {
		name      string
		assignees int
		submitted int
		evaluated int
		want      AssignmentStatus
	}{
		{"no submissions", 1, 0, 0, StatusPending},
		{"single assignee submitted", 1, 1, 0, StatusSubmitted},
		{"single assignee evaluated", 1, 1, 1, StatusEvaluated},
		{"partial submissions", 3, 2, 0, StatusSubmitted},
		{"all submitters graded but one assignee missing", 3, 2, 2, StatusSubmitted},
		{"all assignees evaluated", 3, 3, 3, StatusEvaluated},
		{"all submitted, partially graded", 3, 3, 1, StatusSubmitted},
		{"zero assignees never evaluated", 0, 0, 0, StatusPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveAssignmentStatus(tc.assignees, tc.submitted, tc.evaluated))
		})
	}
}

func TestDeriveAssignmentStatusIdempotent(t *testing.T) {
	first := DeriveAssignmentStatus(3, 2, 2)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DeriveAssignmentStatus(3, 2, 2))
	}
}
