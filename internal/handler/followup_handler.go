package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
	"github.com/acehealth-ng/mentorlog-api/internal/service"
	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
	"github.com/acehealth-ng/mentorlog-api/pkg/response"
)

// FollowUpHandler handles follow up action item endpoints.
type FollowUpHandler struct {
	service *service.FollowUpService
}

// NewFollowUpHandler creates a new follow up handler.
func NewFollowUpHandler(svc *service.FollowUpService) *FollowUpHandler {
	return &FollowUpHandler{service: svc}
}

// List godoc
// @Summary List follow ups
// @Description List follow up items visible to the current user
// @Tags Follow Ups
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param log_id query string false "Mentorship log filter"
// @Param assigned_to query string false "Assignee filter"
// @Param status query string false "Status filter"
// @Param priority query string false "Priority filter"
// @Success 200 {object} response.Envelope
// @Router /follow-ups [get]
func (h *FollowUpHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.FollowUpFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	if status := c.Query("status"); status != "" {
		s := models.FollowUpStatus(status)
		filter.Status = &s
	}

	filter.LogID = c.Query("log_id")
	filter.AssignedTo = c.Query("assigned_to")
	filter.Priority = c.Query("priority")

	items, pagination, err := h.service.List(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get follow up
// @Description Get a follow up item
// @Tags Follow Ups
// @Produce json
// @Param id path string true "Follow up ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /follow-ups/{id} [get]
func (h *FollowUpHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	item, err := h.service.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create follow up
// @Description Add a follow up action item to a mentorship log
// @Tags Follow Ups
// @Accept json
// @Produce json
// @Param id path string true "Mentorship log ID"
// @Param payload body models.FollowUpInput true "Follow up payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /logs/{id}/follow-ups [post]
func (h *FollowUpHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.FollowUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	item, err := h.service.Create(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, item, nil)
}

// Update godoc
// @Summary Update follow up
// @Description Update a follow up item's details or status
// @Tags Follow Ups
// @Accept json
// @Produce json
// @Param id path string true "Follow up ID"
// @Param payload body models.UpdateFollowUpRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /follow-ups/{id} [put]
func (h *FollowUpHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	item, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete follow up
// @Description Delete a follow up action item
// @Tags Follow Ups
// @Produce json
// @Param id path string true "Follow up ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /follow-ups/{id} [delete]
func (h *FollowUpHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// MarkInProgress godoc
// @Summary Mark follow up in progress
// @Description Move a follow up item to in progress
// @Tags Follow Ups
// @Produce json
// @Param id path string true "Follow up ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /follow-ups/{id}/in-progress [post]
func (h *FollowUpHandler) MarkInProgress(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	item, err := h.service.MarkInProgress(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, item, nil)
}

// MarkCompleted godoc
// @Summary Complete follow up
// @Description Mark a follow up item as completed
// @Tags Follow Ups
// @Produce json
// @Param id path string true "Follow up ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /follow-ups/{id}/complete [post]
func (h *FollowUpHandler) MarkCompleted(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	item, err := h.service.MarkCompleted(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, item, nil)
}
