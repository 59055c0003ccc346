package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pedago-hub/campus-api/internal/models"
	appErrors "github.com/pedago-hub/campus-api/pkg/errors"
)

type submissionRepo interface {
	Insert(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	FindByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (*models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionView, error)
}

type assignmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	IsAssignee(ctx context.Context, assignmentID, studentID string) (bool, error)
}

type evaluationReader interface {
	FindBySubmission(ctx context.Context, submissionID string) (*models.Evaluation, error)
}

// SubmitRequest is the payload for handing in a deliverable.
type SubmitRequest struct {
	Content  string   `json:"content"`
	FileURLs []string `json:"file_urls"`
	Links    []string `json:"links"`
}

// SubmissionService is the submission ledger: at most one submission per
// (assignment, student), immutable once recorded.
type SubmissionService struct {
	submissions submissionRepo
	assignments assignmentReader
	evaluations evaluationReader
	spaces      rosterProvider
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSubmissionService constructs SubmissionService.
func NewSubmissionService(submissions submissionRepo, assignments assignmentReader, evaluations evaluationReader, spaces rosterProvider, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		submissions: submissions,
		assignments: assignments,
		evaluations: evaluations,
		spaces:      spaces,
		validator:   validate,
		logger:      logger,
	}
}

// Submit records a student's deliverable. A late submission is accepted and
// flagged; a second submission for the same assignment is a conflict and
// leaves the first untouched.
func (s *SubmissionService) Submit(ctx context.Context, assignmentID string, req SubmitRequest, claims *models.JWTClaims) (*models.SubmissionView, error) {
	if claims == nil || claims.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit")
	}

	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	assigned, err := s.assignments.IsAssignee(ctx, assignmentID, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignees")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not an assignee of this assignment")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && len(req.FileURLs) == 0 && len(req.Links) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a submission needs content, files or links")
	}

	submission := &models.Submission{
		AssignmentID: assignmentID,
		StudentID:    claims.UserID,
		FileURLs:     req.FileURLs,
		Links:        req.Links,
	}
	if content != "" {
		submission.Content = &content
	}

	if err := s.submissions.Insert(ctx, submission); err != nil {
		return nil, mapRepoErr(err, "already submitted for this assignment")
	}

	late := submission.SubmittedAt.After(assignment.DueAt)
	if late {
		s.logger.Info("late submission recorded",
			zap.String("assignment_id", assignmentID),
			zap.String("student_id", claims.UserID))
	}

	return &models.SubmissionView{Submission: *submission, Late: late}, nil
}

// Get returns a student's submission for an assignment, or a not-found so
// the caller can decide between the submission form and the read-only view.
func (s *SubmissionService) Get(ctx context.Context, assignmentID, studentID string, claims *models.JWTClaims) (*models.SubmissionView, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if err := s.authorizeRead(ctx, claims, assignment.SpaceID, studentID); err != nil {
		return nil, err
	}

	submission, err := s.submissions.FindByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no submission recorded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	view := &models.SubmissionView{
		Submission: *submission,
		Late:       submission.SubmittedAt.After(assignment.DueAt),
	}
	if _, err := s.evaluations.FindBySubmission(ctx, submission.ID); err == nil {
		view.Evaluated = true
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check evaluation")
	}
	return view, nil
}

// ListFor returns all submissions for an assignment, for instructor review.
func (s *SubmissionService) ListFor(ctx context.Context, assignmentID string, claims *models.JWTClaims) ([]models.SubmissionView, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if err := s.authorizeInstructor(ctx, claims, assignment.SpaceID); err != nil {
		return nil, err
	}

	views, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	for i := range views {
		views[i].Late = views[i].SubmittedAt.After(assignment.DueAt)
	}
	return views, nil
}

func (s *SubmissionService) authorizeRead(ctx context.Context, claims *models.JWTClaims, spaceID, studentID string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleStudent {
		if claims.UserID != studentID {
			return appErrors.Clone(appErrors.ErrForbidden, "students can only read their own submissions")
		}
		return nil
	}
	return s.authorizeInstructor(ctx, claims, spaceID)
}

func (s *SubmissionService) authorizeInstructor(ctx context.Context, claims *models.JWTClaims, spaceID string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleDirector {
		return nil
	}
	if claims.Role != models.RoleInstructor {
		return appErrors.Clone(appErrors.ErrForbidden, "instructor role required")
	}
	teaches, err := s.spaces.IsInstructor(ctx, claims.UserID, spaceID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check space membership")
	}
	if !teaches {
		return appErrors.Clone(appErrors.ErrForbidden, "not an instructor of this space")
	}
	return nil
}
