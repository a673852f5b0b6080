package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	CreateSpecialistFanOut(ctx context.Context, n *models.Notification) (bool, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkManyRead(ctx context.Context, ids []string, userID string) (int, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id, userID string) error
}

type specialistDirectory interface {
	ListSpecialistsForAreas(ctx context.Context, areas []string) ([]models.User, error)
}

type countCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NotificationService manages the unified notification stream: the
// specialist fan-out on submission plus comment, approval and rejection
// events. Unread counts are cached in Redis for the notification badge.
type NotificationService struct {
	repo     notificationRepository
	users    specialistDirectory
	cache    countCache
	metrics  *MetricsService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewNotificationService creates an instance of NotificationService.
func NewNotificationService(repo notificationRepository, users specialistDirectory, cache countCache, cacheTTL time.Duration, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &NotificationService{repo: repo, users: users, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// WithMetrics attaches the Prometheus recorder. Notification creation
// counters stay silent without it.
func (s *NotificationService) WithMetrics(m *MetricsService) *NotificationService {
	s.metrics = m
	return s
}

func unreadCountKey(userID string) string {
	return fmt.Sprintf("notifications:unread:%s", userID)
}

// FanOutSpecialistLog notifies every active specialist whose
// specializations overlap the log's thematic areas. One notification per
// (specialist, area) pair; duplicates from re-submission are skipped by
// the repository. The submitting actor is excluded even when submitting
// on a mentee's behalf, so nobody is notified of their own action.
func (s *NotificationService) FanOutSpecialistLog(ctx context.Context, log *models.MentorshipLog, actorID string) error {
	if len(log.ThematicAreas) == 0 {
		return nil
	}

	specialists, err := s.users.ListSpecialistsForAreas(ctx, log.ThematicAreas)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve specialists")
	}

	extra, _ := json.Marshal(map[string]interface{}{
		"facility_name": log.FacilityName,
		"mentor_name":   log.MentorName,
		"visit_date":    log.VisitDate.Format("2006-01-02"),
	})

	created := 0
	for _, specialist := range specialists {
		if specialist.ID == actorID {
			continue
		}
		for _, area := range log.ThematicAreas {
			if !specialist.Specializations.Contains(area) {
				continue
			}
			area := area
			inserted, err := s.repo.CreateSpecialistFanOut(ctx, &models.Notification{
				UserID:           specialist.ID,
				NotificationType: models.NotificationSpecialistLog,
				Title:            fmt.Sprintf("New mentorship log: %s", area),
				Message:          fmt.Sprintf("%s submitted a visit log at %s covering %s", log.MentorName, log.FacilityName, area),
				RelatedLogID:     &log.ID,
				ThematicArea:     &area,
				ExtraData:        extra,
			})
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create specialist notification")
			}
			if inserted {
				created++
				s.metrics.RecordNotification(string(models.NotificationSpecialistLog))
				s.invalidateUnreadCount(ctx, specialist.ID)
			}
		}
	}

	s.logger.Info("specialist fan-out completed",
		zap.String("log_id", log.ID),
		zap.Int("notifications_created", created))
	return nil
}

// NotifyApproval tells the log owner their log was approved.
func (s *NotificationService) NotifyApproval(ctx context.Context, log *models.MentorshipLog, approverID, approverName string) error {
	if log.MentorID == approverID {
		return nil
	}
	n := &models.Notification{
		UserID:           log.MentorID,
		NotificationType: models.NotificationApproval,
		Title:            "Mentorship log approved",
		Message:          fmt.Sprintf("%s approved your visit log at %s", approverName, log.FacilityName),
		RelatedLogID:     &log.ID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create approval notification")
	}
	s.metrics.RecordNotification(string(n.NotificationType))
	s.invalidateUnreadCount(ctx, log.MentorID)
	return nil
}

// NotifyRejection tells the log owner their log was rejected, carrying
// the reason.
func (s *NotificationService) NotifyRejection(ctx context.Context, log *models.MentorshipLog, reviewerID, reviewerName, reason string) error {
	if log.MentorID == reviewerID {
		return nil
	}
	extra, _ := json.Marshal(map[string]interface{}{"reason": reason})
	n := &models.Notification{
		UserID:           log.MentorID,
		NotificationType: models.NotificationRejection,
		Title:            "Mentorship log rejected",
		Message:          fmt.Sprintf("%s rejected your visit log at %s: %s", reviewerName, log.FacilityName, reason),
		RelatedLogID:     &log.ID,
		ExtraData:        extra,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rejection notification")
	}
	s.metrics.RecordNotification(string(n.NotificationType))
	s.invalidateUnreadCount(ctx, log.MentorID)
	return nil
}

// NotifyComment tells the log owner someone commented on their log.
// Commenting on your own log produces nothing.
func (s *NotificationService) NotifyComment(ctx context.Context, log *models.MentorshipLog, comment *models.LogComment) error {
	if log.MentorID == comment.UserID {
		return nil
	}
	n := &models.Notification{
		UserID:           log.MentorID,
		NotificationType: models.NotificationComment,
		Title:            "New comment on your mentorship log",
		Message:          fmt.Sprintf("%s commented on your visit log at %s", comment.UserName, log.FacilityName),
		RelatedLogID:     &log.ID,
		RelatedCommentID: &comment.ID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment notification")
	}
	s.metrics.RecordNotification(string(n.NotificationType))
	s.invalidateUnreadCount(ctx, log.MentorID)
	return nil
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	notifications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return notifications, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// UnreadCount returns the caller's unread notification count, serving
// from cache while fresh.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	key := unreadCountKey(userID)
	if s.cache != nil {
		var cached int
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("unread count cache read failed", zap.Error(err))
		}
	}

	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, s.cacheTTL); err != nil {
			s.logger.Warn("unread count cache write failed", zap.Error(err))
		}
	}
	return count, nil
}

// MarkRead marks one of the caller's notifications as read. Marking an
// already-read notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	s.invalidateUnreadCount(ctx, userID)
	return nil
}

// MarkManyRead marks the given notifications read and returns how many
// changed. Identifiers belonging to other users are ignored.
func (s *NotificationService) MarkManyRead(ctx context.Context, ids []string, userID string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	updated, err := s.repo.MarkManyRead(ctx, ids, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	s.invalidateUnreadCount(ctx, userID)
	return updated, nil
}

// MarkAllRead marks all of the caller's notifications read and returns
// how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	s.invalidateUnreadCount(ctx, userID)
	return updated, nil
}

// Delete removes one of the caller's notifications.
func (s *NotificationService) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	s.invalidateUnreadCount(ctx, userID)
	return nil
}

func (s *NotificationService) invalidateUnreadCount(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, unreadCountKey(userID)); err != nil {
		s.logger.Warn("unread count cache invalidation failed", zap.Error(err))
	}
}
