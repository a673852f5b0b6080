package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
	"github.com/acehealth-ng/mentorlog-api/internal/service"
	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
	"github.com/acehealth-ng/mentorlog-api/pkg/response"
)

// ReportHandler handles aggregated reporting and export endpoints.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Summary godoc
// @Summary Program summary report
// @Description High level counts across logs, users, facilities and follow ups
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	report, err := h.service.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// Logs godoc
// @Summary Mentorship logs report
// @Description Per-mentor and per-status log breakdowns over a date range
// @Tags Reports
// @Produce json
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD)"
// @Param mentor_id query string false "Mentor filter"
// @Param facility_id query string false "Facility filter"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/logs [get]
func (h *ReportHandler) Logs(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	report, err := h.service.Logs(c.Request.Context(), claims.UserID, logsReportFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// FollowUps godoc
// @Summary Follow up report
// @Description Follow up progress including overdue counts
// @Tags Reports
// @Produce json
// @Param status query string false "Status filter"
// @Param priority query string false "Priority filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/follow-ups [get]
func (h *ReportHandler) FollowUps(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.FollowUpsReportFilter
	if status := c.Query("status"); status != "" {
		s := models.FollowUpStatus(status)
		filter.Status = &s
	}
	filter.Priority = c.Query("priority")

	report, err := h.service.FollowUps(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// FacilityCoverage godoc
// @Summary Facility coverage report
// @Description Per-facility visit counts and unvisited facilities
// @Tags Reports
// @Produce json
// @Param state query string false "State filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/facility-coverage [get]
func (h *ReportHandler) FacilityCoverage(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	report, err := h.service.FacilityCoverage(c.Request.Context(), claims.UserID, c.Query("state"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// ExportLogs godoc
// @Summary Export logs report
// @Description Download the mentorship logs report as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param format query string false "Export format (csv or pdf)"
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/logs/export [get]
func (h *ReportHandler) ExportLogs(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	data, contentType, filename, err := h.service.ExportLogs(c.Request.Context(), claims.UserID, logsReportFilterFromQuery(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// ExportFacilityCoverage godoc
// @Summary Export facility coverage report
// @Description Download the facility coverage report as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param format query string false "Export format (csv or pdf)"
// @Param state query string false "State filter"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/facility-coverage/export [get]
func (h *ReportHandler) ExportFacilityCoverage(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	data, contentType, filename, err := h.service.ExportFacilityCoverage(c.Request.Context(), claims.UserID, c.Query("state"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func logsReportFilterFromQuery(c *gin.Context) models.LogsReportFilter {
	var filter models.LogsReportFilter

	if start := c.Query("start_date"); start != "" {
		if t, err := time.Parse("2006-01-02", start); err == nil {
			filter.StartDate = &t
		}
	}
	if end := c.Query("end_date"); end != "" {
		if t, err := time.Parse("2006-01-02", end); err == nil {
			filter.EndDate = &t
		}
	}
	if status := c.Query("status"); status != "" {
		s := models.LogStatus(status)
		filter.Status = &s
	}

	filter.MentorID = c.Query("mentor_id")
	filter.FacilityID = c.Query("facility_id")

	return filter
}
