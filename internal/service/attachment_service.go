package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acehealth-ng/mentorlog-api/internal/access"
	"github.com/acehealth-ng/mentorlog-api/internal/models"
	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
)

var defaultAllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".pdf", ".doc", ".docx", ".xls", ".xlsx", ".zip"}

type attachmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Attachment, error)
	ListByLog(ctx context.Context, logID string) ([]models.Attachment, error)
	Create(ctx context.Context, attachment *models.Attachment) error
	Delete(ctx context.Context, id string) error
}

type attachmentLogDirectory interface {
	FindByID(ctx context.Context, id string) (*models.MentorshipLog, error)
}

type attachmentUserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type fileStorage interface {
	SaveStream(key string, r io.Reader) (string, error)
	Delete(name string) error
	Path(key string) string
}

type downloadSigner interface {
	Generate(attachmentID, key string) (string, time.Time, error)
	Parse(token string) (attachmentID, key string, expiresAt time.Time, err error)
}

// UploadFile carries one incoming multipart file into the service layer.
type UploadFile struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// AttachmentConfig bounds what uploads are accepted.
type AttachmentConfig struct {
	MaxFileSizeBytes  int64
	AllowedExtensions []string
}

// AttachmentService stores files against mentorship logs and issues
// short-lived download links.
type AttachmentService struct {
	repo    attachmentRepository
	logs    attachmentLogDirectory
	users   attachmentUserDirectory
	storage fileStorage
	signer  downloadSigner
	config  AttachmentConfig
	logger  *zap.Logger
}

// NewAttachmentService creates an instance of AttachmentService.
func NewAttachmentService(repo attachmentRepository, logs attachmentLogDirectory, users attachmentUserDirectory, storage fileStorage, signer downloadSigner, config AttachmentConfig, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxFileSizeBytes <= 0 {
		config.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = defaultAllowedExtensions
	}
	return &AttachmentService{repo: repo, logs: logs, users: users, storage: storage, signer: signer, config: config, logger: logger}
}

// Upload validates and stores files against a log. Mentors may attach
// to their own logs; supervisors and admins to any. All files are
// checked before any is persisted.
func (s *AttachmentService) Upload(ctx context.Context, actorID, logID string, files []UploadFile) ([]models.Attachment, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	log, err := s.visibleLog(ctx, actor, logID)
	if err != nil {
		return nil, err
	}
	if !access.CanManageLogChildren(actorFromUser(actor), logFacts(log)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only manage attachments on your own logs")
	}
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no files provided")
	}

	for _, f := range files {
		ext := strings.ToLower(path.Ext(f.FileName))
		if !s.extensionAllowed(ext) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %s not allowed", ext))
		}
		if f.Size > s.config.MaxFileSizeBytes {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file %s exceeds the maximum size of %dMB", f.FileName, s.config.MaxFileSizeBytes/(1024*1024)))
		}
	}

	attachments := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		key := path.Join(logID, uuid.NewString()+"_"+path.Base(f.FileName))
		stored, err := s.storage.SaveStream(key, io.LimitReader(f.Content, s.config.MaxFileSizeBytes+1))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
		}

		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		attachment := models.Attachment{
			MentorshipLogID: logID,
			FileName:        f.FileName,
			FilePath:        stored,
			FileSize:        f.Size,
			FileType:        &contentType,
			UploadedBy:      &actor.ID,
		}
		if err := s.repo.Create(ctx, &attachment); err != nil {
			if remErr := s.storage.Delete(stored); remErr != nil {
				s.logger.Warn("failed to remove orphaned file", zap.String("path", stored), zap.Error(remErr))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attachment")
		}
		attachments = append(attachments, attachment)
	}
	return attachments, nil
}

// List returns the attachments of a log visible to the caller.
func (s *AttachmentService) List(ctx context.Context, actorID, logID string) ([]models.Attachment, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.visibleLog(ctx, actor, logID); err != nil {
		return nil, err
	}
	attachments, err := s.repo.ListByLog(ctx, logID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attachments")
	}
	return attachments, nil
}

// SignedURL issues a short-lived download token for an attachment the
// caller can see.
func (s *AttachmentService) SignedURL(ctx context.Context, actorID, id string) (string, time.Time, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return "", time.Time{}, err
	}
	attachment, _, err := s.visibleAttachment(ctx, actor, id)
	if err != nil {
		return "", time.Time{}, err
	}
	token, expiresAt, err := s.signer.Generate(attachment.ID, attachment.FilePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return token, expiresAt, nil
}

// Download resolves an attachment for an authenticated caller and
// returns it with the local file path to serve.
func (s *AttachmentService) Download(ctx context.Context, actorID, id string) (*models.Attachment, string, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, "", err
	}
	attachment, _, err := s.visibleAttachment(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	return attachment, s.storage.Path(attachment.FilePath), nil
}

// ResolveToken validates a signed download token. The token itself is
// the authorization.
func (s *AttachmentService) ResolveToken(ctx context.Context, token string) (*models.Attachment, string, error) {
	attachmentID, key, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	attachment, err := s.repo.FindByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	if attachment.FilePath != key {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	return attachment, s.storage.Path(attachment.FilePath), nil
}

// Delete removes an attachment record and its stored file.
func (s *AttachmentService) Delete(ctx context.Context, actorID, id string) error {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return err
	}
	attachment, log, err := s.visibleAttachment(ctx, actor, id)
	if err != nil {
		return err
	}
	if !access.CanManageLogChildren(actorFromUser(actor), logFacts(log)) {
		return appErrors.Clone(appErrors.ErrForbidden, "you can only manage attachments on your own logs")
	}

	if err := s.storage.Delete(attachment.FilePath); err != nil {
		s.logger.Warn("failed to remove stored file", zap.String("path", attachment.FilePath), zap.Error(err))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attachment")
	}
	return nil
}

func (s *AttachmentService) extensionAllowed(ext string) bool {
	for _, allowed := range s.config.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

func (s *AttachmentService) visibleAttachment(ctx context.Context, actor *models.User, id string) (*models.Attachment, *models.MentorshipLog, error) {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	log, err := s.visibleLog(ctx, actor, attachment.MentorshipLogID)
	if err != nil {
		return nil, nil, err
	}
	return attachment, log, nil
}

func (s *AttachmentService) visibleLog(ctx context.Context, actor *models.User, logID string) (*models.MentorshipLog, error) {
	log, err := s.logs.FindByID(ctx, logID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mentorship log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load log")
	}
	if !access.CanViewLog(actorFromUser(actor), logFacts(log)) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "mentorship log not found")
	}
	return log, nil
}

func (s *AttachmentService) loadActor(ctx context.Context, actorID string) (*models.User, error) {
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "acting user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load acting user")
	}
	if !actor.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	return actor, nil
}
