package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pedago-hub/campus-api/internal/models"
	"github.com/pedago-hub/campus-api/internal/repository"
	appErrors "github.com/pedago-hub/campus-api/pkg/errors"
)

type mockSubmissionRepo struct {
	submissions map[string]*models.Submission
	clock       func() time.Time
	nextID      int
}

func (m *mockSubmissionRepo) key(assignmentID, studentID string) string {
	return assignmentID + "/" + studentID
}

func (m *mockSubmissionRepo) Insert(ctx context.Context, submission *models.Submission) error {
	if m.submissions == nil {
		m.submissions = make(map[string]*models.Submission)
	}
	key := m.key(submission.AssignmentID, submission.StudentID)
	if _, exists := m.submissions[key]; exists {
		return repository.ErrDuplicateKey
	}
	m.nextID++
	submission.ID = "sub" + string(rune('0'+m.nextID))
	if m.clock != nil {
		submission.SubmittedAt = m.clock()
	} else {
		submission.SubmittedAt = time.Now().UTC()
	}
	m.submissions[key] = submission
	return nil
}

func (m *mockSubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	for _, sub := range m.submissions {
		if sub.ID == id {
			return sub, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionRepo) FindByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	if sub, ok := m.submissions[m.key(assignmentID, studentID)]; ok {
		return sub, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionView, error) {
	var views []models.SubmissionView
	for _, sub := range m.submissions {
		if sub.AssignmentID == assignmentID {
			views = append(views, models.SubmissionView{Submission: *sub})
		}
	}
	return views, nil
}

type mockEvaluationReader struct {
	evaluations map[string]*models.Evaluation
}

func (m *mockEvaluationReader) FindBySubmission(ctx context.Context, submissionID string) (*models.Evaluation, error) {
	if e, ok := m.evaluations[submissionID]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func submissionFixture(t *testing.T) (*SubmissionService, *mockSubmissionRepo, *mockAssignmentRepo) {
	t.Helper()
	assignments := &mockAssignmentRepo{assignments: map[string]*models.Assignment{
		"as1": {
			ID:          "as1",
			SpaceID:     "sp1",
			Kind:        models.KindIndividual,
			OpensAt:     time.Now().UTC().Add(-48 * time.Hour),
			DueAt:       time.Now().UTC().Add(24 * time.Hour),
			AssigneeIDs: []string{"stu1", "stu2"},
		},
	}}
	submissions := &mockSubmissionRepo{}
	svc := NewSubmissionService(submissions, assignments, &mockEvaluationReader{}, defaultRoster(), validator.New(), zap.NewNop())
	return svc, submissions, assignments
}

func TestSubmit(t *testing.T) {
	svc, repo, _ := submissionFixture(t)

	view, err := svc.Submit(context.Background(), "as1", SubmitRequest{Content: "my answer"}, studentClaims("stu1"))
	require.NoError(t, err)
	assert.False(t, view.Late)
	assert.Equal(t, "stu1", view.StudentID)
	require.NotNil(t, view.Content)
	assert.Equal(t, "my answer", *view.Content)
	assert.Len(t, repo.submissions, 1)
}

func TestSubmitTwiceConflicts(t *testing.T) {
	svc, repo, _ := submissionFixture(t)

	first, err := svc.Submit(context.Background(), "as1", SubmitRequest{Content: "first"}, studentClaims("stu1"))
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), "as1", SubmitRequest{Content: "second"}, studentClaims("stu1"))
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)

	// the original submission is untouched
	stored, err := repo.FindByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", *stored.Content)
}

func TestSubmitRejectsNonAssignee(t *testing.T) {
	svc, _, _ := submissionFixture(t)

	_, err := svc.Submit(context.Background(), "as1", SubmitRequest{Content: "hi"}, studentClaims("stu3"))
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)

	_, err = svc.Submit(context.Background(), "as1", SubmitRequest{Content: "hi"}, instructorClaims("ins1"))
	require.Error(t, err)
	assert.Equal(t, 403, appErrors.FromError(err).Status)
}

func TestSubmitRequiresContent(t *testing.T) {
	svc, _, _ := submissionFixture(t)

	_, err := svc.Submit(context.Background(), "as1", SubmitRequest{Content: "   "}, studentClaims("stu1"))
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)

	// links alone are enough
	_, err = svc.Submit(context.Background(), "as1", SubmitRequest{Links: []string{"https://repo.example/x"}}, studentClaims("stu1"))
	require.NoError(t, err)
}

func TestSubmitAfterDueDateIsLate(t *testing.T) {
	svc, repo, assignments := submissionFixture(t)
	due := assignments.assignments["as1"].DueAt
	repo.clock = func() time.Time { return due.Add(2 * time.Hour) }

	view, err := svc.Submit(context.Background(), "as1", SubmitRequest{Content: "late work"}, studentClaims("stu1"))
	require.NoError(t, err)
	assert.True(t, view.Late, "submission after the due date is accepted but flagged")
}

func TestSubmissionGet(t *testing.T) {
	svc, _, _ := submissionFixture(t)

	_, err := svc.Get(context.Background(), "as1", "stu1", studentClaims("stu1"))
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)

	submitted, err := svc.Submit(context.Background(), "as1", SubmitRequest{Content: "work"}, studentClaims("stu1"))
	require.NoError(t, err)

	view, err := svc.Get(context.Background(), "as1", "stu1", studentClaims("stu1"))
	require.NoError(t, err)
	assert.Equal(t, submitted.ID, view.ID)
	assert.False(t, view.Evaluated)

	_, err = svc.Get(context.Background(), "as1", "stu1", studentClaims("stu2"))
	require.Error(t, err)
	assert.Equal(t, 403, appErrors.FromError(err).Status)

	_, err = svc.Get(context.Background(), "as1", "stu1", instructorClaims("ins1"))
	require.NoError(t, err)
}

func TestSubmissionGetEvaluatedFlag(t *testing.T) {
	assignments := &mockAssignmentRepo{assignments: map[string]*models.Assignment{
		"as1": {ID: "as1", SpaceID: "sp1", DueAt: time.Now().UTC().Add(time.Hour), AssigneeIDs: []string{"stu1"}},
	}}
	submissions := &mockSubmissionRepo{}
	evaluations := &mockEvaluationReader{evaluations: map[string]*models.Evaluation{}}
	svc := NewSubmissionService(submissions, assignments, evaluations, defaultRoster(), validator.New(), zap.NewNop())

	submitted, err := svc.Submit(context.Background(), "as1", SubmitRequest{Content: "work"}, studentClaims("stu1"))
	require.NoError(t, err)

	evaluations.evaluations[submitted.ID] = &models.Evaluation{ID: "ev1", SubmissionID: submitted.ID, Score: 14}

	view, err := svc.Get(context.Background(), "as1", "stu1", studentClaims("stu1"))
	require.NoError(t, err)
	assert.True(t, view.Evaluated)
}

func TestSubmissionListFor(t *testing.T) {
	svc, repo, assignments := submissionFixture(t)
	due := assignments.assignments["as1"].DueAt

	_, err := svc.Submit(context.Background(), "as1", SubmitRequest{Content: "on time"}, studentClaims("stu1"))
	require.NoError(t, err)
	repo.clock = func() time.Time { return due.Add(time.Hour) }
	_, err = svc.Submit(context.Background(), "as1", SubmitRequest{Content: "late"}, studentClaims("stu2"))
	require.NoError(t, err)

	views, err := svc.ListFor(context.Background(), "as1", instructorClaims("ins1"))
	require.NoError(t, err)
	require.Len(t, views, 2)

	lateCount := 0
	for _, v := range views {
		if v.Late {
			lateCount++
		}
	}
	assert.Equal(t, 1, lateCount)

	_, err = svc.ListFor(context.Background(), "as1", studentClaims("stu1"))
	require.Error(t, err)
	assert.Equal(t, 403, appErrors.FromError(err).Status)
}
