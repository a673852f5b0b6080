package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
	"github.com/acehealth-ng/mentorlog-api/internal/service"
	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
	"github.com/acehealth-ng/mentorlog-api/pkg/response"
)

// AttachmentHandler handles file attachment endpoints.
type AttachmentHandler struct {
	service *service.AttachmentService
}

// NewAttachmentHandler creates a new attachment handler.
func NewAttachmentHandler(svc *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: svc}
}

// Upload godoc
// @Summary Upload attachments
// @Description Upload one or more files to a draft mentorship log
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Log ID"
// @Param files formData file true "Files to upload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs/{id}/attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload"))
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "no files provided"))
		return
	}

	uploads := make([]service.UploadFile, 0, len(headers))
	for _, header := range headers {
		file, openErr := header.Open()
		if openErr != nil {
			response.Error(c, appErrors.Wrap(openErr, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read uploaded file"))
			return
		}
		defer file.Close()

		uploads = append(uploads, service.UploadFile{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Content:     file,
		})
	}

	attachments, err := h.service.Upload(c.Request.Context(), claims.UserID, c.Param("id"), uploads)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, attachments)
}

// List godoc
// @Summary List attachments
// @Description List attachments on a mentorship log
// @Tags Attachments
// @Produce json
// @Param id path string true "Log ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /logs/{id}/attachments [get]
func (h *AttachmentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	attachments, err := h.service.List(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, attachments, nil)
}

// SignedURL godoc
// @Summary Generate signed download link
// @Description Generate a short-lived tokenized download URL for an attachment
// @Tags Attachments
// @Produce json
// @Param id path string true "Attachment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attachments/{id}/signed-url [get]
func (h *AttachmentHandler) SignedURL(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	token, expiresAt, err := h.service.SignedURL(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	res := models.SignedURLResponse{
		URL:       fmt.Sprintf("/api/v1/attachments/download?token=%s", url.QueryEscape(token)),
		ExpiresAt: expiresAt,
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Download godoc
// @Summary Download attachment
// @Description Stream an attachment for an authenticated user
// @Tags Attachments
// @Produce octet-stream
// @Param id path string true "Attachment ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /attachments/{id}/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	attachment, path, err := h.service.Download(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.FileAttachment(path, attachment.FileName)
}

// DownloadSigned godoc
// @Summary Download attachment via signed token
// @Description Stream an attachment authorized by a signed token, no session required
// @Tags Attachments
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /attachments/download [get]
func (h *AttachmentHandler) DownloadSigned(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	attachment, path, err := h.service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.FileAttachment(path, attachment.FileName)
}

// Delete godoc
// @Summary Delete attachment
// @Description Delete an attachment from a draft mentorship log
// @Tags Attachments
// @Produce json
// @Param id path string true "Attachment ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
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
