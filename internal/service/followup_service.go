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

type followUpRepository interface {
	FindByID(ctx context.Context, id string) (*models.FollowUp, error)
	List(ctx context.Context, filter models.FollowUpFilter) ([]models.FollowUp, int, error)
	Create(ctx context.Context, fu *models.FollowUp) error
	Update(ctx context.Context, fu *models.FollowUp) error
	Delete(ctx context.Context, id string) error
}

type followUpLogDirectory interface {
	FindByID(ctx context.Context, id string) (*models.MentorshipLog, error)
}

type followUpUserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// FollowUpService manages action items on mentorship logs. Items can be
// created inline with the log or individually afterwards.
type FollowUpService struct {
	repo      followUpRepository
	logs      followUpLogDirectory
	users     followUpUserDirectory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFollowUpService creates an instance of FollowUpService.
func NewFollowUpService(repo followUpRepository, logs followUpLogDirectory, users followUpUserDirectory, validate *validator.Validate, logger *zap.Logger) *FollowUpService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FollowUpService{repo: repo, logs: logs, users: users, validator: validate, logger: logger}
}

// List returns action items. Mentors only see items on their own logs or
// assigned to them; supervisors and admins see everything.
func (s *FollowUpService) List(ctx context.Context, actorID string, filter models.FollowUpFilter) ([]models.FollowUp, *models.Pagination, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if actor.Role == models.RoleMentor {
		filter.VisibleToMentor = actor.ID
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list follow ups")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a single action item visible to the caller.
func (s *FollowUpService) Get(ctx context.Context, actorID, id string) (*models.FollowUp, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	fu, _, err := s.visibleFollowUp(ctx, actor, id)
	return fu, err
}

// Create adds a single action item to an existing log. Mentors may only
// add items to their own logs; supervisors and admins may add to any.
func (s *FollowUpService) Create(ctx context.Context, actorID, logID string, req models.FollowUpInput) (*models.FollowUp, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid follow up payload")
	}

	log, err := s.logs.FindByID(ctx, logID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load log")
	}
	if !access.CanViewLog(actorFromUser(actor), logFacts(log)) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "log not found")
	}
	if !access.CanManageLogChildren(actorFromUser(actor), logFacts(log)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only manage follow ups on your own logs")
	}

	fu := &models.FollowUp{
		MentorshipLogID:   log.ID,
		ActionItem:        req.ActionItem,
		ResponsiblePerson: req.ResponsiblePerson,
		AssignedTo:        req.AssignedTo,
		TargetDate:        req.TargetDate,
		ResourcesNeeded:   req.ResourcesNeeded,
		Priority:          req.Priority,
		Status:            models.FollowUpStatusPending,
		Notes:             req.Notes,
	}
	if err := s.repo.Create(ctx, fu); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create follow up")
	}
	s.logger.Info("follow up created", zap.String("follow_up_id", fu.ID), zap.String("log_id", log.ID), zap.String("actor_id", actor.ID))
	return fu, nil
}

// Update applies field changes to an action item. Setting the status to
// completed stamps the completion time; moving it back clears it.
func (s *FollowUpService) Update(ctx context.Context, actorID, id string, req models.UpdateFollowUpRequest) (*models.FollowUp, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid follow up payload")
	}

	fu, log, err := s.visibleFollowUp(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !access.CanUpdateFollowUp(actorFromUser(actor), logFacts(log), fu.AssignedTo) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not have permission to update this follow up")
	}

	if req.ActionItem != nil {
		fu.ActionItem = *req.ActionItem
	}
	if req.ResponsiblePerson != nil {
		fu.ResponsiblePerson = req.ResponsiblePerson
	}
	if req.AssignedTo != nil {
		fu.AssignedTo = req.AssignedTo
	}
	if req.TargetDate != nil {
		fu.TargetDate = req.TargetDate
	}
	if req.ResourcesNeeded != nil {
		fu.ResourcesNeeded = req.ResourcesNeeded
	}
	if req.Priority != nil {
		fu.Priority = req.Priority
	}
	if req.Notes != nil {
		fu.Notes = req.Notes
	}
	if req.Status != nil && *req.Status != fu.Status {
		s.applyStatus(fu, *req.Status)
	}

	if err := s.repo.Update(ctx, fu); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update follow up")
	}
	return fu, nil
}

// Delete removes an action item. The gate matches Create, not the wider
// status-update gate, so assignees cannot delete items assigned to them.
func (s *FollowUpService) Delete(ctx context.Context, actorID, id string) error {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return err
	}
	fu, log, err := s.visibleFollowUp(ctx, actor, id)
	if err != nil {
		return err
	}
	if !access.CanManageLogChildren(actorFromUser(actor), logFacts(log)) {
		return appErrors.Clone(appErrors.ErrForbidden, "you can only manage follow ups on your own logs")
	}
	if err := s.repo.Delete(ctx, fu.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete follow up")
	}
	s.logger.Info("follow up deleted", zap.String("follow_up_id", fu.ID), zap.String("actor_id", actor.ID))
	return nil
}

// MarkInProgress sets an action item to in_progress.
func (s *FollowUpService) MarkInProgress(ctx context.Context, actorID, id string) (*models.FollowUp, error) {
	return s.setStatus(ctx, actorID, id, models.FollowUpStatusInProgress)
}

// MarkCompleted sets an action item to completed and stamps the time.
func (s *FollowUpService) MarkCompleted(ctx context.Context, actorID, id string) (*models.FollowUp, error) {
	return s.setStatus(ctx, actorID, id, models.FollowUpStatusCompleted)
}

func (s *FollowUpService) setStatus(ctx context.Context, actorID, id string, status models.FollowUpStatus) (*models.FollowUp, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	fu, log, err := s.visibleFollowUp(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !access.CanUpdateFollowUp(actorFromUser(actor), logFacts(log), fu.AssignedTo) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not have permission to update this follow up")
	}

	s.applyStatus(fu, status)
	if err := s.repo.Update(ctx, fu); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update follow up")
	}
	return fu, nil
}

func (s *FollowUpService) applyStatus(fu *models.FollowUp, status models.FollowUpStatus) {
	fu.Status = status
	if status == models.FollowUpStatusCompleted {
		now := time.Now().UTC()
		fu.CompletedAt = &now
	} else {
		fu.CompletedAt = nil
	}
}

func (s *FollowUpService) visibleFollowUp(ctx context.Context, actor *models.User, id string) (*models.FollowUp, *models.MentorshipLog, error) {
	fu, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "follow up not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load follow up")
	}

	log, err := s.logs.FindByID(ctx, fu.MentorshipLogID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "follow up not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent log")
	}

	assignedToActor := fu.AssignedTo != nil && *fu.AssignedTo == actor.ID
	if !assignedToActor && !access.CanViewLog(actorFromUser(actor), logFacts(log)) {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "follow up not found")
	}
	return fu, log, nil
}

func (s *FollowUpService) loadActor(ctx context.Context, actorID string) (*models.User, error) {
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
