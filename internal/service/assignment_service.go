package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pedago-hub/campus-api/internal/models"
	"github.com/pedago-hub/campus-api/internal/repository"
	appErrors "github.com/pedago-hub/campus-api/pkg/errors"
)

type assignmentRepo interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Delete(ctx context.Context, id string) error
	ListBySpace(ctx context.Context, spaceID string) ([]models.Assignment, error)
	ListByAssignee(ctx context.Context, studentID string) ([]models.Assignment, error)
	ListBySpaces(ctx context.Context, spaceIDs []string) ([]models.Assignment, error)
	Counts(ctx context.Context, assignmentID string) (*models.AssignmentCounts, error)
	CountsBySpaces(ctx context.Context, spaceIDs []string) (map[string]models.AssignmentCounts, error)
}

type rosterProvider interface {
	FindByID(ctx context.Context, id string) (*models.Space, error)
	ListStudentIDs(ctx context.Context, spaceID string) ([]string, error)
	IsInstructor(ctx context.Context, userID, spaceID string) (bool, error)
	IsStudent(ctx context.Context, userID, spaceID string) (bool, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.Space, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Space, error)
}

// CreateAssignmentRequest is the payload for posting a new assignment.
type CreateAssignmentRequest struct {
	SpaceID      string                `json:"space_id" validate:"required"`
	Title        string                `json:"title" validate:"required"`
	Instructions string                `json:"instructions" validate:"required"`
	Kind         models.AssignmentKind `json:"kind" validate:"required,oneof=INDIVIDUAL COLLECTIVE"`
	OpensAt      time.Time             `json:"opens_at" validate:"required"`
	DueAt        time.Time             `json:"due_at" validate:"required"`
	FileURLs     []string              `json:"file_urls"`
	Links        []string              `json:"links"`
	AssigneeIDs  []string              `json:"assignee_ids" validate:"required,min=1"`
}

// AssignmentService is the assignment manager: it creates and deletes
// assignments and derives their status from submission/evaluation state.
type AssignmentService struct {
	assignments assignmentRepo
	spaces      rosterProvider
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(assignments assignmentRepo, spaces rosterProvider, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		assignments: assignments,
		spaces:      spaces,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and persists a new assignment. Status starts as PENDING
// by construction: a fresh assignment has no submissions.
func (s *AssignmentService) Create(ctx context.Context, req CreateAssignmentRequest, claims *models.JWTClaims) (*models.AssignmentView, error) {
	if claims == nil || claims.Role != models.RoleInstructor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only instructors can create assignments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Instructions) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title and instructions are required")
	}
	if !req.OpensAt.Before(req.DueAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "open date must precede due date")
	}

	switch req.Kind {
	case models.KindIndividual:
		if len(req.AssigneeIDs) != 1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "individual assignments require exactly one assignee")
		}
	case models.KindCollective:
		if len(req.AssigneeIDs) < 2 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "collective assignments require at least two assignees")
		}
	}

	if _, err := s.spaces.FindByID(ctx, req.SpaceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "space not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load space")
	}

	teaches, err := s.spaces.IsInstructor(ctx, claims.UserID, req.SpaceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check space membership")
	}
	if !teaches {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not an instructor of this space")
	}

	enrolled, err := s.spaces.ListStudentIDs(ctx, req.SpaceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load space roster")
	}
	enrolledSet := make(map[string]struct{}, len(enrolled))
	for _, id := range enrolled {
		enrolledSet[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(req.AssigneeIDs))
	for _, id := range req.AssigneeIDs {
		if _, dup := seen[id]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate assignee")
		}
		seen[id] = struct{}{}
		if _, ok := enrolledSet[id]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "assignee is not enrolled in this space")
		}
	}

	assignment := &models.Assignment{
		SpaceID:      req.SpaceID,
		InstructorID: claims.UserID,
		Title:        strings.TrimSpace(req.Title),
		Instructions: req.Instructions,
		Kind:         req.Kind,
		OpensAt:      req.OpensAt,
		DueAt:        req.DueAt,
		FileURLs:     req.FileURLs,
		Links:        req.Links,
		AssigneeIDs:  req.AssigneeIDs,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.logger.Info("assignment created",
		zap.String("assignment_id", assignment.ID),
		zap.String("space_id", assignment.SpaceID),
		zap.Int("assignees", len(assignment.AssigneeIDs)))

	return &models.AssignmentView{Assignment: *assignment, Status: models.StatusPending}, nil
}

// Delete removes an assignment and cascades to its submissions and
// evaluations atomically.
func (s *AssignmentService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if err := s.authorizeInstructorOrDirector(ctx, claims, assignment.SpaceID); err != nil {
		return err
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}

	// Grades under this assignment are gone; cached reports are stale.
	if err := s.cache.Invalidate(ctx, "reports:student:*"); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}

	s.logger.Info("assignment deleted", zap.String("assignment_id", id))
	return nil
}

// Get returns one assignment decorated with its derived status.
func (s *AssignmentService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.AssignmentView, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := s.authorizeSpaceMember(ctx, claims, assignment.SpaceID); err != nil {
		return nil, err
	}
	status, err := s.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(*assignment, status), nil
}

// Status derives the assignment's lifecycle state from current submission
// and evaluation counts. Nothing is cached or stored; repeated calls with
// no intervening writes always agree.
func (s *AssignmentService) Status(ctx context.Context, assignmentID string) (models.AssignmentStatus, error) {
	counts, err := s.assignments.Counts(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive status")
	}
	return models.DeriveAssignmentStatus(counts.Assignees, counts.Submitted, counts.Evaluated), nil
}

// ListBySpace returns assignments in a space with derived statuses.
func (s *AssignmentService) ListBySpace(ctx context.Context, spaceID string, claims *models.JWTClaims) ([]models.AssignmentView, error) {
	if err := s.authorizeSpaceMember(ctx, claims, spaceID); err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListBySpace(ctx, spaceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return s.decorate(ctx, assignments, []string{spaceID})
}

// ListForStudent returns all assignments targeting a student.
func (s *AssignmentService) ListForStudent(ctx context.Context, studentID string, claims *models.JWTClaims) ([]models.AssignmentView, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleStudent && claims.UserID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only list their own assignments")
	}
	assignments, err := s.assignments.ListByAssignee(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	spaceIDs := make([]string, 0, len(assignments))
	seen := make(map[string]struct{})
	for _, a := range assignments {
		if _, ok := seen[a.SpaceID]; !ok {
			seen[a.SpaceID] = struct{}{}
			spaceIDs = append(spaceIDs, a.SpaceID)
		}
	}
	return s.decorate(ctx, assignments, spaceIDs)
}

// ListPendingEvaluation builds an instructor's grading queue: assignments
// in their spaces whose derived status is SUBMITTED.
func (s *AssignmentService) ListPendingEvaluation(ctx context.Context, claims *models.JWTClaims) ([]models.AssignmentView, error) {
	if claims == nil || claims.Role != models.RoleInstructor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only instructors have a grading queue")
	}
	spaces, err := s.spaces.ListByInstructor(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructor spaces")
	}
	spaceIDs := make([]string, 0, len(spaces))
	for _, space := range spaces {
		spaceIDs = append(spaceIDs, space.ID)
	}
	assignments, err := s.assignments.ListBySpaces(ctx, spaceIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	views, err := s.decorate(ctx, assignments, spaceIDs)
	if err != nil {
		return nil, err
	}
	queue := make([]models.AssignmentView, 0, len(views))
	for _, view := range views {
		if view.Status == models.StatusSubmitted {
			queue = append(queue, view)
		}
	}
	return queue, nil
}

func (s *AssignmentService) decorate(ctx context.Context, assignments []models.Assignment, spaceIDs []string) ([]models.AssignmentView, error) {
	counts, err := s.assignments.CountsBySpaces(ctx, spaceIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive statuses")
	}
	views := make([]models.AssignmentView, 0, len(assignments))
	for _, assignment := range assignments {
		c := counts[assignment.ID]
		status := models.DeriveAssignmentStatus(c.Assignees, c.Submitted, c.Evaluated)
		views = append(views, *s.view(assignment, status))
	}
	return views, nil
}

func (s *AssignmentService) view(assignment models.Assignment, status models.AssignmentStatus) *models.AssignmentView {
	return &models.AssignmentView{
		Assignment: assignment,
		Status:     status,
		Overdue:    status != models.StatusEvaluated && s.now().After(assignment.DueAt),
	}
}

func (s *AssignmentService) authorizeInstructorOrDirector(ctx context.Context, claims *models.JWTClaims, spaceID string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleDirector {
		return nil
	}
	if claims.Role != models.RoleInstructor {
		return appErrors.Clone(appErrors.ErrForbidden, "instructor or director role required")
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

func (s *AssignmentService) authorizeSpaceMember(ctx context.Context, claims *models.JWTClaims, spaceID string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleDirector:
		return nil
	case models.RoleInstructor:
		return s.authorizeInstructorOrDirector(ctx, claims, spaceID)
	case models.RoleStudent:
		enrolled, err := s.spaces.IsStudent(ctx, claims.UserID, spaceID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		if !enrolled {
			return appErrors.Clone(appErrors.ErrForbidden, "not enrolled in this space")
		}
		return nil
	default:
		return appErrors.ErrForbidden
	}
}

// mapRepoErr is shared by the ledger services to translate repository
// sentinels into API errors.
func mapRepoErr(err error, duplicateMsg string) error {
	if errors.Is(err, repository.ErrDuplicateKey) {
		return appErrors.Clone(appErrors.ErrConflict, duplicateMsg)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "storage failure")
}
