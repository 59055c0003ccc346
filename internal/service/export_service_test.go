package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pedago-hub/campus-api/internal/models"
	appErrors "github.com/pedago-hub/campus-api/pkg/errors"
)

type mockGradeSheet struct {
	rows []models.SpaceGradeRow
}

func (m *mockGradeSheet) SpaceGradeRows(ctx context.Context, spaceID string) ([]models.SpaceGradeRow, error) {
	return m.rows, nil
}

func exportFixture(rows []models.StudentScoreRow, grades []models.SpaceGradeRow) *ExportService {
	reports, _ := reportFixture(rows)
	return NewExportService(&mockGradeSheet{rows: grades}, reports, reportRoster(), zap.NewNop())
}

func TestSpaceGradeSheetCSV(t *testing.T) {
	svc := exportFixture(nil, []models.SpaceGradeRow{
		{StudentID: "stu1", StudentName: "Ada Student", AssignmentID: "as1", AssignmentTitle: "Algebra homework", Score: 15.5},
		{StudentID: "stu2", StudentName: "Bob Student", AssignmentID: "as1", AssignmentTitle: "Algebra homework", Score: 9},
	})

	res, err := svc.SpaceGradeSheet(context.Background(), "sp1", FormatCSV, instructorClaims("ins1"))
	require.NoError(t, err)
	assert.Equal(t, "text/csv", res.ContentType)
	assert.Equal(t, "grades_MATH.csv", res.Filename)

	body := string(res.Content)
	assert.True(t, strings.HasPrefix(body, "Student,Assignment,Score"))
	assert.Contains(t, body, "Ada Student,Algebra homework,15.50")
	assert.Contains(t, body, "Bob Student,Algebra homework,9.00")
}

func TestSpaceGradeSheetPDF(t *testing.T) {
	svc := exportFixture(nil, []models.SpaceGradeRow{
		{StudentName: "Ada Student", AssignmentTitle: "Algebra homework", Score: 15.5},
	})

	res, err := svc.SpaceGradeSheet(context.Background(), "sp1", FormatPDF, directorClaims("dir1"))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.True(t, strings.HasPrefix(string(res.Content), "%PDF"))
}

func TestSpaceGradeSheetAuthorization(t *testing.T) {
	svc := exportFixture(nil, nil)

	_, err := svc.SpaceGradeSheet(context.Background(), "sp1", FormatCSV, studentClaims("stu1"))
	require.Error(t, err)
	assert.Equal(t, 403, appErrors.FromError(err).Status)

	_, err = svc.SpaceGradeSheet(context.Background(), "sp2", FormatCSV, instructorClaims("ins1"))
	require.Error(t, err)
	assert.Equal(t, 403, appErrors.FromError(err).Status, "instructor of a different space")
}

func TestSpaceGradeSheetUnknownFormat(t *testing.T) {
	svc := exportFixture(nil, nil)

	_, err := svc.SpaceGradeSheet(context.Background(), "sp1", ExportFormat("xlsx"), directorClaims("dir1"))
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestStudentTranscript(t *testing.T) {
	svc := exportFixture([]models.StudentScoreRow{
		scoreRow("sp1", "as1", 16),
		scoreRow("sp2", "as3", 14),
	}, nil)

	res, err := svc.StudentTranscript(context.Background(), "stu1", FormatCSV, studentClaims("stu1"))
	require.NoError(t, err)
	assert.Equal(t, "transcript_stu1.csv", res.Filename)

	body := string(res.Content)
	assert.Contains(t, body, "Mathematics,3,1,16.00")
	assert.Contains(t, body, "History,2,1,14.00")
	// art has no grades and shows a dash, not a zero
	assert.Contains(t, body, "Art,1,0,-")
	// weighted mean over graded spaces only: (16*3 + 14*2) / 5
	assert.Contains(t, body, "Weighted mean,,,15.20")

	_, err = svc.StudentTranscript(context.Background(), "stu1", FormatCSV, studentClaims("stu2"))
	require.Error(t, err)
	assert.Equal(t, 403, appErrors.FromError(err).Status)
}
