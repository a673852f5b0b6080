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

// FacilityHandler handles health facility endpoints.
type FacilityHandler struct {
	service *service.FacilityService
}

// NewFacilityHandler creates a new facility handler.
func NewFacilityHandler(svc *service.FacilityService) *FacilityHandler {
	return &FacilityHandler{service: svc}
}

// List godoc
// @Summary List facilities
// @Description List health facilities with pagination and filtering
// @Tags Facilities
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param state query string false "State filter"
// @Param lga query string false "LGA filter"
// @Param facility_type query string false "Facility type filter"
// @Param search query string false "Search term"
// @Param sort_by query string false "Sort by"
// @Param sort_order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Router /facilities [get]
func (h *FacilityHandler) List(c *gin.Context) {
	var filter models.FacilityFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	filter.State = c.Query("state")
	filter.LGA = c.Query("lga")
	filter.FacilityType = c.Query("facility_type")
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	facilities, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, facilities, pagination)
}

// Get godoc
// @Summary Get facility
// @Description Get facility detail
// @Tags Facilities
// @Produce json
// @Param id path string true "Facility ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /facilities/{id} [get]
func (h *FacilityHandler) Get(c *gin.Context) {
	facility, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, facility, nil)
}

// Create godoc
// @Summary Create facility
// @Description Register a new health facility
// @Tags Facilities
// @Accept json
// @Produce json
// @Param payload body models.CreateFacilityRequest true "Create facility payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /facilities [post]
func (h *FacilityHandler) Create(c *gin.Context) {
	var req models.CreateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	facility, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, facility)
}

// Update godoc
// @Summary Update facility
// @Description Update an existing health facility
// @Tags Facilities
// @Accept json
// @Produce json
// @Param id path string true "Facility ID"
// @Param payload body models.UpdateFacilityRequest true "Update facility payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /facilities/{id} [put]
func (h *FacilityHandler) Update(c *gin.Context) {
	var req models.UpdateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	facility, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, facility, nil)
}

// Delete godoc
// @Summary Delete facility
// @Description Delete a facility with no mentorship logs
// @Tags Facilities
// @Produce json
// @Param id path string true "Facility ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /facilities/{id} [delete]
func (h *FacilityHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
