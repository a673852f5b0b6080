package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acehealth-ng/mentorlog-api/internal/access"
	"github.com/acehealth-ng/mentorlog-api/internal/models"
	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
)

type commentRepository interface {
	FindByID(ctx context.Context, id string) (*models.LogComment, error)
	ListByLog(ctx context.Context, logID string) ([]models.LogComment, error)
	Create(ctx context.Context, comment *models.LogComment) error
	UpdateText(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) error
}

type commentLogDirectory interface {
	FindByID(ctx context.Context, id string) (*models.MentorshipLog, error)
}

type commentUserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type commentNotifier interface {
	NotifyComment(ctx context.Context, log *models.MentorshipLog, comment *models.LogComment) error
}

// CommentService manages feedback threads on submitted logs. Specialist
// comments are flagged so the mentor can tell reviewer feedback from
// thematic-area input.
type CommentService struct {
	repo      commentRepository
	logs      commentLogDirectory
	users     commentUserDirectory
	notifier  commentNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService creates an instance of CommentService.
func NewCommentService(repo commentRepository, logs commentLogDirectory, users commentUserDirectory, notifier commentNotifier, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CommentService{repo: repo, logs: logs, users: users, notifier: notifier, validator: validate, logger: logger}
}

// ListByLog returns all comments on a log the caller can see.
func (s *CommentService) ListByLog(ctx context.Context, actorID, logID string) ([]models.LogComment, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.visibleLog(ctx, actor, logID); err != nil {
		return nil, err
	}
	comments, err := s.repo.ListByLog(ctx, logID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return comments, nil
}

// Create adds a comment to a submitted log and notifies the mentor.
func (s *CommentService) Create(ctx context.Context, actorID, logID string, req models.CreateCommentRequest) (*models.LogComment, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	log, err := s.visibleLog(ctx, actor, logID)
	if err != nil {
		return nil, err
	}
	allowed, specialist := access.CanComment(actorFromUser(actor), logFacts(log))
	if !allowed {
		if log.Status == models.LogStatusDraft {
			return nil, appErrors.InvalidState("comment on", string(log.Status), "submitted")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not have access to comment on this log")
	}

	comment := &models.LogComment{
		MentorshipLogID:     logID,
		UserID:              actor.ID,
		CommentText:         req.CommentText,
		IsSpecialistComment: specialist,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
	}
	comment.UserName = actor.FullName
	comment.UserRole = actor.Role

	if err := s.notifier.NotifyComment(ctx, log, comment); err != nil {
		s.logger.Warn("comment notification failed", zap.String("log_id", log.ID), zap.Error(err))
	}
	return comment, nil
}

// Update rewrites a comment's text. Author or admin only.
func (s *CommentService) Update(ctx context.Context, actorID, id string, req models.UpdateCommentRequest) (*models.LogComment, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	comment, err := s.findComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor.ID && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only update your own comments")
	}

	if err := s.repo.UpdateText(ctx, id, req.CommentText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update comment")
	}
	comment.CommentText = req.CommentText
	comment.UpdatedAt = time.Now().UTC()
	return comment, nil
}

// Delete removes a comment. Author or admin only.
func (s *CommentService) Delete(ctx context.Context, actorID, id string) error {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return err
	}
	comment, err := s.findComment(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != actor.ID && actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "you can only delete your own comments")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment")
	}
	return nil
}

func (s *CommentService) findComment(ctx context.Context, id string) (*models.LogComment, error) {
	comment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	return comment, nil
}

func (s *CommentService) visibleLog(ctx context.Context, actor *models.User, logID string) (*models.MentorshipLog, error) {
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

func (s *CommentService) loadActor(ctx context.Context, actorID string) (*models.User, error) {
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
