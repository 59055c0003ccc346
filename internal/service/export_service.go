package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/pedago-hub/campus-api/internal/models"
	appErrors "github.com/pedago-hub/campus-api/pkg/errors"
	"github.com/pedago-hub/campus-api/pkg/export"
)

// ExportFormat selects the rendered document type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries a rendered document plus its HTTP metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

type gradeRowReader interface {
	SpaceGradeRows(ctx context.Context, spaceID string) ([]models.SpaceGradeRow, error)
}

// ExportService renders grade sheets and transcripts as CSV or PDF files.
type ExportService struct {
	grades  gradeRowReader
	reports *ReportService
	spaces  rosterProvider
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(grades gradeRowReader, reports *ReportService, spaces rosterProvider, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		grades:  grades,
		reports: reports,
		spaces:  spaces,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// SpaceGradeSheet exports every evaluated score in a space, one row per
// student/assignment pair. Instructor of the space or director only.
func (s *ExportService) SpaceGradeSheet(ctx context.Context, spaceID string, format ExportFormat, claims *models.JWTClaims) (*ExportResult, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleInstructor {
		teaches, err := s.spaces.IsInstructor(ctx, claims.UserID, spaceID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check space membership")
		}
		if !teaches {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not an instructor of this space")
		}
	} else if claims.Role != models.RoleDirector {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "instructor or director role required")
	}

	space, err := s.spaces.FindByID(ctx, spaceID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "space not found")
	}

	rows, err := s.grades.SpaceGradeRows(ctx, spaceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade rows")
	}

	data := export.Dataset{
		Headers: []string{"Student", "Assignment", "Score"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Student":    row.StudentName,
			"Assignment": row.AssignmentTitle,
			"Score":      formatScore(row.Score),
		})
	}

	title := fmt.Sprintf("Grade sheet - %s", space.Name)
	subtitle := fmt.Sprintf("Generated %s", time.Now().Format("2006-01-02"))
	return s.render(data, format, fmt.Sprintf("grades_%s", space.Code), title, subtitle)
}

// StudentTranscript exports a student's overall report: one row per space
// with its mean and coefficient, plus the weighted mean. Authorization
// follows the report itself.
func (s *ExportService) StudentTranscript(ctx context.Context, studentID string, format ExportFormat, claims *models.JWTClaims) (*ExportResult, error) {
	report, err := s.reports.OverallReport(ctx, studentID, claims)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Headers: []string{"Space", "Coefficient", "Evaluations", "Mean"},
		Rows:    make([]map[string]string, 0, len(report.Subjects)+1),
	}
	for _, subject := range report.Subjects {
		mean := "-"
		if subject.Mean != nil {
			mean = formatScore(*subject.Mean)
		}
		data.Rows = append(data.Rows, map[string]string{
			"Space":       subject.SpaceName,
			"Coefficient": strconv.Itoa(subject.Coefficient),
			"Evaluations": strconv.Itoa(len(subject.Scores)),
			"Mean":        mean,
		})
	}
	overall := "-"
	if report.WeightedMean != nil {
		overall = formatScore(*report.WeightedMean)
	}
	data.Rows = append(data.Rows, map[string]string{
		"Space": "Weighted mean",
		"Mean":  overall,
	})

	title := fmt.Sprintf("Transcript - %s", report.StudentName)
	subtitle := fmt.Sprintf("Generated %s", time.Now().Format("2006-01-02"))
	return s.render(data, format, fmt.Sprintf("transcript_%s", studentID), title, subtitle)
}

func (s *ExportService) render(data export.Dataset, format ExportFormat, basename, title, subtitle string) (*ExportResult, error) {
	switch format {
	case FormatCSV:
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv rendering failed")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    basename + ".csv",
		}, nil
	case FormatPDF:
		content, err := s.pdf.Render(data, title, subtitle)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf rendering failed")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    basename + ".pdf",
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format, expected csv or pdf")
	}
}

// formatScore renders a [0,20] score with two decimals for export only;
// stored and aggregated values stay unrounded.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
