package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acehealth-ng/mentorlog-api/internal/middleware"
	"github.com/acehealth-ng/mentorlog-api/internal/models"
)

func testContext(t *testing.T, method, target string, body *bytes.Buffer) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	c.Request = req
	return c, w
}

func authenticate(c *gin.Context, role models.UserRole) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: role})
}

func TestLogHandlerSubmitUnauthenticated(t *testing.T) {
	handler := NewLogHandler(nil)

	c, w := testContext(t, http.MethodPost, "/logs/log-1/submit", nil)
	handler.Submit(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogHandlerUpdateInvalidBody(t *testing.T) {
	handler := NewLogHandler(nil)

	c, w := testContext(t, http.MethodPut, "/logs/log-1", bytes.NewBufferString(`{"visit_date":`))
	c.Request.Header.Set("Content-Type", "application/json")
	authenticate(c, models.RoleMentor)

	handler.Update(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestLogHandlerRejectInvalidBody(t *testing.T) {
	handler := NewLogHandler(nil)

	c, w := testContext(t, http.MethodPost, "/logs/log-1/reject", bytes.NewBufferString(`not json`))
	c.Request.Header.Set("Content-Type", "application/json")
	authenticate(c, models.RoleSupervisor)

	handler.Reject(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerLoginInvalidBody(t *testing.T) {
	handler := NewAuthHandler(nil)

	c, w := testContext(t, http.MethodPost, "/auth/login", bytes.NewBufferString(`{`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerMeUnauthenticated(t *testing.T) {
	handler := NewAuthHandler(nil)

	c, w := testContext(t, http.MethodGet, "/auth/me", nil)
	handler.Me(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAttachmentHandlerUploadNoFiles(t *testing.T) {
	handler := NewAttachmentHandler(nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no files here"))
	require.NoError(t, mw.Close())

	c, w := testContext(t, http.MethodPost, "/logs/log-1/attachments", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
	authenticate(c, models.RoleMentor)

	handler.Upload(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no files provided")
}

func TestAttachmentHandlerSignedDownloadMissingToken(t *testing.T) {
	handler := NewAttachmentHandler(nil)

	c, w := testContext(t, http.MethodGet, "/attachments/download", nil)
	handler.DownloadSigned(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCommentHandlerCreateInvalidBody(t *testing.T) {
	handler := NewCommentHandler(nil)

	c, w := testContext(t, http.MethodPost, "/logs/log-1/comments", bytes.NewBufferString(`{"comment_text":`))
	c.Request.Header.Set("Content-Type", "application/json")
	authenticate(c, models.RoleSupervisor)

	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationHandlerMarkManyReadEmptyBatch(t *testing.T) {
	handler := NewNotificationHandler(nil)

	c, w := testContext(t, http.MethodPost, "/notifications/read", bytes.NewBufferString(`{"ids":[]}`))
	c.Request.Header.Set("Content-Type", "application/json")
	authenticate(c, models.RoleMentor)

	handler.MarkManyRead(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFollowUpHandlerCreateInvalidBody(t *testing.T) {
	handler := NewFollowUpHandler(nil)

	c, w := testContext(t, http.MethodPost, "/logs/log-1/follow-ups", bytes.NewBufferString(`{"action_item":`))
	c.Request.Header.Set("Content-Type", "application/json")
	authenticate(c, models.RoleMentor)

	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConstantsHandlerGet(t *testing.T) {
	handler := NewConstantsHandler()

	c, w := testContext(t, http.MethodGet, "/constants", nil)
	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "thematic_areas")
	assert.Contains(t, w.Body.String(), "follow_up_statuses")
}
