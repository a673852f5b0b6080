package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
	"github.com/acehealth-ng/mentorlog-api/pkg/storage"
)

type mockAttachmentRepo struct {
	attachments map[string]*models.Attachment
}

func (m *mockAttachmentRepo) FindByID(ctx context.Context, id string) (*models.Attachment, error) {
	if a, ok := m.attachments[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttachmentRepo) ListByLog(ctx context.Context, logID string) ([]models.Attachment, error) {
	var out []models.Attachment
	for _, a := range m.attachments {
		if a.MentorshipLogID == logID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAttachmentRepo) Create(ctx context.Context, attachment *models.Attachment) error {
	if m.attachments == nil {
		m.attachments = make(map[string]*models.Attachment)
	}
	if attachment.ID == "" {
		attachment.ID = "att-generated"
	}
	copy := *attachment
	m.attachments[attachment.ID] = &copy
	return nil
}

func (m *mockAttachmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.attachments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.attachments, id)
	return nil
}

type mockFileStorage struct {
	saved   map[string][]byte
	deleted []string
}

func (m *mockFileStorage) SaveStream(key string, r io.Reader) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", err
	}
	m.saved[key] = buf.Bytes()
	return key, nil
}

func (m *mockFileStorage) Delete(name string) error {
	m.deleted = append(m.deleted, name)
	delete(m.saved, name)
	return nil
}

func (m *mockFileStorage) Path(key string) string {
	return filepath.Join("/uploads", key)
}

func newAttachmentFixture() (*mockAttachmentRepo, *mockFileStorage, *AttachmentService) {
	users, logs, _, _, _ := workflowFixture()
	repo := &mockAttachmentRepo{}
	store := &mockFileStorage{}
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	svc := NewAttachmentService(repo, logs, users, store, signer, AttachmentConfig{MaxFileSizeBytes: 1024}, zap.NewNop())
	return repo, store, svc
}

func uploadOf(name, content string) UploadFile {
	return UploadFile{
		FileName:    name,
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Content:     strings.NewReader(content),
	}
}

func TestUploadAttachmentToOwnDraft(t *testing.T) {
	repo, store, svc := newAttachmentFixture()

	attachments, err := svc.Upload(context.Background(), "mentor-1", "log-draft", []UploadFile{uploadOf("visit-notes.pdf", "content")})
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "visit-notes.pdf", attachments[0].FileName)
	assert.Len(t, store.saved, 1)
	assert.Len(t, repo.attachments, 1)
}

func TestUploadAttachmentRejectsExtension(t *testing.T) {
	_, store, svc := newAttachmentFixture()

	_, err := svc.Upload(context.Background(), "mentor-1", "log-draft", []UploadFile{uploadOf("malware.exe", "x")})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, store.saved)
}

func TestUploadAttachmentRejectsOversize(t *testing.T) {
	_, store, svc := newAttachmentFixture()

	big := uploadOf("big.pdf", strings.Repeat("a", 2048))
	_, err := svc.Upload(context.Background(), "mentor-1", "log-draft", []UploadFile{big})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, store.saved)
}

func TestUploadAttachmentBySupervisor(t *testing.T) {
	repo, store, svc := newAttachmentFixture()

	// Supervisors and admins may attach evidence to any log, even after
	// submission.
	attachments, err := svc.Upload(context.Background(), "sup-2", "log-submitted", []UploadFile{uploadOf("review-notes.pdf", "x")})
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Len(t, store.saved, 1)
	assert.Len(t, repo.attachments, 1)
}

func TestUploadAttachmentNotOwner(t *testing.T) {
	_, _, svc := newAttachmentFixture()

	// The specialist can see the submitted log but cannot attach to it.
	_, err := svc.Upload(context.Background(), "specialist-1", "log-submitted", []UploadFile{uploadOf("notes.pdf", "x")})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestSignedURLRoundTrip(t *testing.T) {
	repo, _, svc := newAttachmentFixture()
	repo.attachments = map[string]*models.Attachment{
		"att-1": {ID: "att-1", MentorshipLogID: "log-submitted", FileName: "notes.pdf", FilePath: "log-submitted/notes.pdf"},
	}

	token, expiresAt, err := svc.SignedURL(context.Background(), "sup-1", "att-1")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	attachment, path, err := svc.ResolveToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "att-1", attachment.ID)
	assert.Equal(t, filepath.Join("/uploads", "log-submitted/notes.pdf"), path)
}

func TestResolveTokenTampered(t *testing.T) {
	_, _, svc := newAttachmentFixture()

	_, _, err := svc.ResolveToken(context.Background(), "att-1.9999999999.bm9wZQ.deadbeef")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestDeleteAttachmentRemovesFile(t *testing.T) {
	repo, store, svc := newAttachmentFixture()
	repo.attachments = map[string]*models.Attachment{
		"att-1": {ID: "att-1", MentorshipLogID: "log-draft", FileName: "notes.pdf", FilePath: "log-draft/notes.pdf"},
	}

	require.NoError(t, svc.Delete(context.Background(), "mentor-1", "att-1"))
	assert.Equal(t, []string{"log-draft/notes.pdf"}, store.deleted)
	assert.Empty(t, repo.attachments)
}
