package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
	"github.com/acehealth-ng/mentorlog-api/pkg/response"
)

// ConstantsHandler serves the enumerations clients need to render forms.
type ConstantsHandler struct{}

// NewConstantsHandler creates a new constants handler.
func NewConstantsHandler() *ConstantsHandler {
	return &ConstantsHandler{}
}

// Get godoc
// @Summary Form constants
// @Description Thematic areas, cadres, visit types and other form enumerations
// @Tags Constants
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /constants [get]
func (h *ConstantsHandler) Get(c *gin.Context) {
	response.JSON(c, http.StatusOK, models.AllConstants(), nil)
}
