package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
	"github.com/acehealth-ng/mentorlog-api/internal/service"
	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
	"github.com/acehealth-ng/mentorlog-api/pkg/response"
)

// LogHandler handles mentorship log endpoints, including the
// submit/approve/reject workflow transitions.
type LogHandler struct {
	service *service.LogService
}

// NewLogHandler creates a new log handler.
func NewLogHandler(svc *service.LogService) *LogHandler {
	return &LogHandler{service: svc}
}

// List godoc
// @Summary List mentorship logs
// @Description List mentorship logs visible to the current user
// @Tags Mentorship Logs
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "Status filter"
// @Param facility_id query string false "Facility filter"
// @Param mentor_id query string false "Mentor filter"
// @Param thematic_area query string false "Thematic area filter"
// @Param date_from query string false "Visit date from (YYYY-MM-DD)"
// @Param date_to query string false "Visit date to (YYYY-MM-DD)"
// @Param search query string false "Search term"
// @Param sort_by query string false "Sort by"
// @Param sort_order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Router /logs [get]
func (h *LogHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.LogFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	if status := c.Query("status"); status != "" {
		s := models.LogStatus(status)
		filter.Status = &s
	}
	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.DateFrom = &t
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.DateTo = &t
		}
	}

	filter.FacilityID = c.Query("facility_id")
	filter.MentorID = c.Query("mentor_id")
	filter.ThematicArea = c.Query("thematic_area")
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	logs, pagination, err := h.service.List(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, logs, pagination)
}

// Get godoc
// @Summary Get mentorship log
// @Description Get a mentorship log with its skills transfers and follow ups
// @Tags Mentorship Logs
// @Produce json
// @Param id path string true "Log ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /logs/{id} [get]
func (h *LogHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	log, err := h.service.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, log, nil)
}

// Create godoc
// @Summary Create mentorship log
// @Description Create a draft mentorship log for a facility visit
// @Tags Mentorship Logs
// @Accept json
// @Produce json
// @Param payload body models.CreateLogRequest true "Create log payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /logs [post]
func (h *LogHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	log, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, log)
}

// Update godoc
// @Summary Update mentorship log
// @Description Update a draft mentorship log owned by the current user
// @Tags Mentorship Logs
// @Accept json
// @Produce json
// @Param id path string true "Log ID"
// @Param payload body models.UpdateLogRequest true "Update log payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs/{id} [put]
func (h *LogHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	log, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, log, nil)
}

// Delete godoc
// @Summary Delete mentorship log
// @Description Delete a draft mentorship log and its stored attachments
// @Tags Mentorship Logs
// @Produce json
// @Param id path string true "Log ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs/{id} [delete]
func (h *LogHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Submit godoc
// @Summary Submit mentorship log
// @Description Submit a draft log for supervisor review
// @Tags Mentorship Logs
// @Produce json
// @Param id path string true "Log ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs/{id}/submit [post]
func (h *LogHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	log, err := h.service.Submit(c.Request.Context(), claims.UserID, c.Param("id"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, log, nil)
}

// Approve godoc
// @Summary Approve mentorship log
// @Description Approve a submitted log as supervisor or admin
// @Tags Mentorship Logs
// @Produce json
// @Param id path string true "Log ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs/{id}/approve [post]
func (h *LogHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	log, err := h.service.Approve(c.Request.Context(), claims.UserID, c.Param("id"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, log, nil)
}

// Reject godoc
// @Summary Reject mentorship log
// @Description Reject a submitted log back to draft with a reason
// @Tags Mentorship Logs
// @Accept json
// @Produce json
// @Param id path string true "Log ID"
// @Param payload body models.RejectLogRequest true "Rejection payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs/{id}/reject [post]
func (h *LogHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.RejectLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	log, err := h.service.Reject(c.Request.Context(), claims.UserID, c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, log, nil)
}

// ReturnToDraft godoc
// @Summary Return log to draft
// @Description Withdraw a submitted log back to draft for editing
// @Tags Mentorship Logs
// @Produce json
// @Param id path string true "Log ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs/{id}/return-to-draft [post]
func (h *LogHandler) ReturnToDraft(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	log, err := h.service.ReturnToDraft(c.Request.Context(), claims.UserID, c.Param("id"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, log, nil)
}
