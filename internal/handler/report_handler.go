package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pedago-hub/campus-api/internal/service"
	"github.com/pedago-hub/campus-api/pkg/response"
)

// ReportHandler wires HTTP endpoints to the report and export services.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// SubjectReport godoc
// @Summary Subject report for one student
// @Description All evaluated scores and the mean for a student within a space
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Param spaceId path string true "Space ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{studentId}/report/spaces/{spaceId} [get]
func (h *ReportHandler) SubjectReport(c *gin.Context) {
	res, err := h.reports.SubjectReport(c.Request.Context(), c.Param("studentId"), c.Param("spaceId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// OverallReport godoc
// @Summary Overall report for one student
// @Description Per-space means plus the coefficient-weighted overall mean
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{studentId}/report [get]
func (h *ReportHandler) OverallReport(c *gin.Context) {
	res, err := h.reports.OverallReport(c.Request.Context(), c.Param("studentId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// SpaceStatistics godoc
// @Summary Statistics for one space
// @Description Mean, min, max and evaluated count across the space
// @Tags Reports
// @Produce json
// @Param id path string true "Space ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /spaces/{id}/statistics [get]
func (h *ReportHandler) SpaceStatistics(c *gin.Context) {
	res, err := h.reports.SpaceStatistics(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// ExportSpaceGrades godoc
// @Summary Export a space grade sheet
// @Description Download every evaluated score in a space as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Space ID"
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /spaces/{id}/export [get]
func (h *ReportHandler) ExportSpaceGrades(c *gin.Context) {
	format := exportFormat(c)
	res, err := h.exports.SpaceGradeSheet(c.Request.Context(), c.Param("id"), format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	writeExport(c, res)
}

// ExportTranscript godoc
// @Summary Export a student transcript
// @Description Download a student's per-space means and weighted mean as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param studentId path string true "Student ID"
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{studentId}/transcript [get]
func (h *ReportHandler) ExportTranscript(c *gin.Context) {
	format := exportFormat(c)
	res, err := h.exports.StudentTranscript(c.Request.Context(), c.Param("studentId"), format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	writeExport(c, res)
}

func exportFormat(c *gin.Context) service.ExportFormat {
	return service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
}

func writeExport(c *gin.Context, res *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	c.Data(http.StatusOK, res.ContentType, res.Content)
}
