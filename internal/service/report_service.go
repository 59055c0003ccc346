package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pedago-hub/campus-api/internal/models"
	appErrors "github.com/pedago-hub/campus-api/pkg/errors"
)

type reportRepo interface {
	SubjectScores(ctx context.Context, studentID, spaceID string) ([]models.ScoreEntry, error)
	ScoresByStudent(ctx context.Context, studentID string) ([]models.StudentScoreRow, error)
	SpaceAggregate(ctx context.Context, spaceID string) (*models.SpaceScoreAggregate, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ReportService is the grading aggregator. Means are computed unrounded;
// rounding is left to presentation.
type ReportService struct {
	reports reportRepo
	spaces  rosterProvider
	users   userReader
	cache   *CacheService
	logger  *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(reports reportRepo, spaces rosterProvider, users userReader, cache *CacheService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{reports: reports, spaces: spaces, users: users, cache: cache, logger: logger}
}

// SubjectReport collects a student's evaluated scores within one space. An
// empty report carries no mean; "no grades yet" is not an average of zero.
func (s *ReportService) SubjectReport(ctx context.Context, studentID, spaceID string, claims *models.JWTClaims) (*models.SubjectReport, error) {
	if err := s.authorizeStudentRead(ctx, claims, studentID, spaceID); err != nil {
		return nil, err
	}

	space, err := s.spaces.FindByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "space not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load space")
	}

	scores, err := s.reports.SubjectScores(ctx, studentID, spaceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}

	report := &models.SubjectReport{
		SpaceID:     space.ID,
		SpaceName:   space.Name,
		SpaceCode:   space.Code,
		Coefficient: space.Coefficient,
		Scores:      scores,
		Mean:        meanOf(scores),
	}
	return report, nil
}

// OverallReport computes one subject report per enrolled space and the
// coefficient-weighted mean over spaces that have at least one grade.
// Spaces without evaluations contribute neither numerator nor denominator.
func (s *ReportService) OverallReport(ctx context.Context, studentID string, claims *models.JWTClaims) (*models.OverallReport, error) {
	if err := s.authorizeStudentRead(ctx, claims, studentID, ""); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("reports:student:%s:overall", studentID)
	var cached models.OverallReport
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	spaces, err := s.spaces.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list spaces")
	}

	rows, err := s.reports.ScoresByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}
	scoresBySpace := make(map[string][]models.ScoreEntry)
	for _, row := range rows {
		scoresBySpace[row.SpaceID] = append(scoresBySpace[row.SpaceID], models.ScoreEntry{
			AssignmentID:    row.AssignmentID,
			AssignmentTitle: row.AssignmentTitle,
			Score:           row.Score,
			EvaluatedAt:     row.EvaluatedAt,
		})
	}

	report := &models.OverallReport{
		StudentID:   studentID,
		StudentName: student.FullName,
		Subjects:    make([]models.SubjectReport, 0, len(spaces)),
	}

	weightedSum := 0.0
	totalCoefficient := 0
	for _, space := range spaces {
		scores := scoresBySpace[space.ID]
		subject := models.SubjectReport{
			SpaceID:     space.ID,
			SpaceName:   space.Name,
			SpaceCode:   space.Code,
			Coefficient: space.Coefficient,
			Scores:      scores,
			Mean:        meanOf(scores),
		}
		report.Subjects = append(report.Subjects, subject)
		if subject.Mean != nil {
			weightedSum += *subject.Mean * float64(space.Coefficient)
			totalCoefficient += space.Coefficient
		}
	}
	if totalCoefficient > 0 {
		weighted := weightedSum / float64(totalCoefficient)
		report.WeightedMean = &weighted
	}

	if err := s.cache.Set(ctx, cacheKey, report, 0); err != nil {
		s.logger.Warn("report cache write failed", zap.Error(err))
	}

	return report, nil
}

// SpaceStatistics summarises evaluation results for one space.
func (s *ReportService) SpaceStatistics(ctx context.Context, spaceID string, claims *models.JWTClaims) (*models.SpaceStatistics, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleDirector:
	case models.RoleInstructor:
		teaches, err := s.spaces.IsInstructor(ctx, claims.UserID, spaceID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check space membership")
		}
		if !teaches {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not an instructor of this space")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "instructor or director role required")
	}

	space, err := s.spaces.FindByID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "space not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load space")
	}

	agg, err := s.reports.SpaceAggregate(ctx, spaceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate scores")
	}

	return &models.SpaceStatistics{
		SpaceID:        space.ID,
		SpaceName:      space.Name,
		Mean:           agg.Mean,
		Min:            agg.Min,
		Max:            agg.Max,
		EvaluatedCount: agg.EvaluatedCount,
	}, nil
}

func (s *ReportService) authorizeStudentRead(ctx context.Context, claims *models.JWTClaims, studentID, spaceID string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleDirector:
		return nil
	case models.RoleStudent:
		if claims.UserID != studentID {
			return appErrors.Clone(appErrors.ErrForbidden, "students can only read their own reports")
		}
		return nil
	case models.RoleInstructor:
		if spaceID == "" {
			return nil
		}
		teaches, err := s.spaces.IsInstructor(ctx, claims.UserID, spaceID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check space membership")
		}
		if !teaches {
			return appErrors.Clone(appErrors.ErrForbidden, "not an instructor of this space")
		}
		return nil
	default:
		return appErrors.ErrForbidden
	}
}

// meanOf returns nil for an empty score list; a report with no grades has
// no mean.
func meanOf(scores []models.ScoreEntry) *float64 {
	if len(scores) == 0 {
		return nil
	}
	sum := 0.0
	for _, entry := range scores {
		sum += entry.Score
	}
	mean := sum / float64(len(scores))
	return &mean
}
