package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pedago-hub/campus-api/internal/models"
	appErrors "github.com/pedago-hub/campus-api/pkg/errors"
)

type evaluationRepo interface {
	Insert(ctx context.Context, evaluation *models.Evaluation) error
	FindBySubmission(ctx context.Context, submissionID string) (*models.Evaluation, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.EvaluationView, error)
}

type submissionReader interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
}

// EvaluateRequest is the payload for grading a submission.
type EvaluateRequest struct {
	SubmissionID string  `json:"submission_id" validate:"required"`
	Score        float64 `json:"score" validate:"gte=0,lte=20"`
	Comment      *string `json:"comment"`
}

// EvaluationService attaches scores to submissions. Grading is one-shot:
// there is no regrade path, and the submission_id uniqueness backstops
// concurrent graders.
type EvaluationService struct {
	evaluations evaluationRepo
	submissions submissionReader
	assignments assignmentReader
	spaces      rosterProvider
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEvaluationService constructs EvaluationService.
func NewEvaluationService(evaluations evaluationRepo, submissions submissionReader, assignments assignmentReader, spaces rosterProvider, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{
		evaluations: evaluations,
		submissions: submissions,
		assignments: assignments,
		spaces:      spaces,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// Evaluate grades a submission. The new score is visible to the grading
// aggregator immediately; the owning assignment's derived status reflects
// it on the next read.
func (s *EvaluationService) Evaluate(ctx context.Context, req EvaluateRequest, claims *models.JWTClaims) (*models.Evaluation, error) {
	if claims == nil || claims.Role != models.RoleInstructor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only instructors can evaluate")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			fmt.Sprintf("score must be between %.0f and %.0f", models.ScoreMin, models.ScoreMax))
	}

	submission, err := s.submissions.FindByID(ctx, req.SubmissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown submission")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	assignment, err := s.assignments.FindByID(ctx, submission.AssignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	teaches, err := s.spaces.IsInstructor(ctx, claims.UserID, assignment.SpaceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check space membership")
	}
	if !teaches {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not an instructor of this space")
	}

	evaluation := &models.Evaluation{
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		InstructorID: claims.UserID,
		Score:        req.Score,
		Comment:      req.Comment,
	}
	if err := s.evaluations.Insert(ctx, evaluation); err != nil {
		return nil, mapRepoErr(err, "submission already evaluated")
	}

	if err := s.cache.Invalidate(ctx, fmt.Sprintf("reports:student:%s*", submission.StudentID)); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}

	s.logger.Info("submission evaluated",
		zap.String("submission_id", submission.ID),
		zap.String("student_id", submission.StudentID),
		zap.Float64("score", req.Score))

	return evaluation, nil
}

// ListForAssignment returns existing evaluations for an assignment.
func (s *EvaluationService) ListForAssignment(ctx context.Context, assignmentID string, claims *models.JWTClaims) ([]models.EvaluationView, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleInstructor {
		teaches, err := s.spaces.IsInstructor(ctx, claims.UserID, assignment.SpaceID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check space membership")
		}
		if !teaches {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not an instructor of this space")
		}
	} else if claims.Role != models.RoleDirector {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "instructor or director role required")
	}

	views, err := s.evaluations.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	return views, nil
}
