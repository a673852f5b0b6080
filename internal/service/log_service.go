package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acehealth-ng/mentorlog-api/internal/access"
	"github.com/acehealth-ng/mentorlog-api/internal/models"
	"github.com/acehealth-ng/mentorlog-api/internal/repository"
	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
)

type logRepository interface {
	FindByID(ctx context.Context, id string) (*models.MentorshipLog, error)
	List(ctx context.Context, filter models.LogFilter, scope access.ListScope) ([]models.MentorshipLog, int, error)
	Create(ctx context.Context, log *models.MentorshipLog) error
	Update(ctx context.Context, log *models.MentorshipLog, replaceChildren bool) error
	Transition(ctx context.Context, id string, from models.LogStatus, mutate func(*models.MentorshipLog)) (*models.MentorshipLog, error)
	Delete(ctx context.Context, id string) ([]string, error)
}

type logUserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	MenteeIDs(ctx context.Context, supervisorID string) ([]string, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type logFacilityDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Facility, error)
}

type logNotifier interface {
	FanOutSpecialistLog(ctx context.Context, log *models.MentorshipLog, actorID string) error
	NotifyApproval(ctx context.Context, log *models.MentorshipLog, approverID, approverName string) error
	NotifyRejection(ctx context.Context, log *models.MentorshipLog, reviewerID, reviewerName, reason string) error
}

type attachmentFileStore interface {
	Delete(name string) error
}

// LogService drives the mentorship log lifecycle: draft CRUD, the
// submit/approve/reject/return workflow, and the visibility rules from
// the access package.
type LogService struct {
	repo       logRepository
	users      logUserDirectory
	facilities logFacilityDirectory
	notifier   logNotifier
	files      attachmentFileStore
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewLogService creates an instance of LogService.
func NewLogService(repo logRepository, users logUserDirectory, facilities logFacilityDirectory, notifier logNotifier, files attachmentFileStore, validate *validator.Validate, logger *zap.Logger) *LogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LogService{repo: repo, users: users, facilities: facilities, notifier: notifier, files: files, validator: validate, logger: logger}
}

// WithMetrics attaches the Prometheus recorder. Workflow transition
// counters stay silent without it.
func (s *LogService) WithMetrics(m *MetricsService) *LogService {
	s.metrics = m
	return s
}

// List returns logs inside the caller's visibility window.
func (s *LogService) List(ctx context.Context, actorID string, filter models.LogFilter) ([]models.MentorshipLog, *models.Pagination, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}

	var menteeIDs []string
	if actor.Role == models.RoleSupervisor {
		menteeIDs, err = s.users.MenteeIDs(ctx, actor.ID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve mentees")
		}
	}
	scope := access.LogListScope(actorFromUser(actor), menteeIDs)

	logs, total, err := s.repo.List(ctx, filter, scope)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list logs")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return logs, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a single log. Missing and invisible logs are
// indistinguishable to the caller.
func (s *LogService) Get(ctx context.Context, actorID, id string) (*models.MentorshipLog, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.visibleLog(ctx, actor, id)
}

// Create starts a new draft owned by the caller.
func (s *LogService) Create(ctx context.Context, actorID string, req models.CreateLogRequest) (*models.MentorshipLog, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create log payload")
	}

	facility, err := s.facilities.FindByID(ctx, req.FacilityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "facility not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility")
	}

	log := &models.MentorshipLog{
		FacilityID:                req.FacilityID,
		MentorID:                  actor.ID,
		VisitDate:                 req.VisitDate,
		Status:                    models.LogStatusDraft,
		InteractionType:           req.InteractionType,
		DurationHours:             req.DurationHours,
		DurationMinutes:           req.DurationMinutes,
		MenteesPresent:            models.MenteeList(req.MenteesPresent),
		ActivitiesConducted:       models.StringList(req.ActivitiesConducted),
		ActivitiesOtherSpecify:    req.ActivitiesOtherSpecify,
		ThematicAreas:             models.StringList(req.ThematicAreas),
		ThematicAreasOtherSpecify: req.ThematicAreasOtherSpecify,
		StrengthsObserved:         req.StrengthsObserved,
		GapsIdentified:            req.GapsIdentified,
		RootCauses:                req.RootCauses,
		ChallengesEncountered:     req.ChallengesEncountered,
		SolutionsProposed:         req.SolutionsProposed,
		SupportNeeded:             req.SupportNeeded,
		SuccessStories:            req.SuccessStories,
		AttachmentTypes:           models.StringList(req.AttachmentTypes),
		SkillsTransfers:           buildSkillsTransfers(req.SkillsTransfers),
		FollowUps:                 buildFollowUps(req.FollowUps),
	}

	if err := s.repo.Create(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create log")
	}

	log.MentorName = actor.FullName
	log.MentorSupervisorID = actor.SupervisorID
	log.FacilityName = facility.Name
	return log, nil
}

// Update rewrites a draft. Nested collections, when present, replace the
// stored rows wholesale.
func (s *LogService) Update(ctx context.Context, actorID, id string, req models.UpdateLogRequest) (*models.MentorshipLog, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update log payload")
	}

	log, err := s.visibleLog(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if log.MentorID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owning mentor can edit a log")
	}
	if log.Status != models.LogStatusDraft {
		return nil, appErrors.InvalidState("edit", string(log.Status), "draft")
	}

	if req.FacilityID != nil && *req.FacilityID != log.FacilityID {
		facility, err := s.facilities.FindByID(ctx, *req.FacilityID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "facility not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility")
		}
		log.FacilityID = *req.FacilityID
		log.FacilityName = facility.Name
	}
	if req.VisitDate != nil {
		log.VisitDate = *req.VisitDate
	}
	if req.InteractionType != nil {
		log.InteractionType = req.InteractionType
	}
	if req.DurationHours != nil {
		log.DurationHours = req.DurationHours
	}
	if req.DurationMinutes != nil {
		log.DurationMinutes = req.DurationMinutes
	}
	if req.MenteesPresent != nil {
		log.MenteesPresent = models.MenteeList(*req.MenteesPresent)
	}
	if req.ActivitiesConducted != nil {
		log.ActivitiesConducted = models.StringList(*req.ActivitiesConducted)
	}
	if req.ActivitiesOtherSpecify != nil {
		log.ActivitiesOtherSpecify = req.ActivitiesOtherSpecify
	}
	if req.ThematicAreas != nil {
		log.ThematicAreas = models.StringList(*req.ThematicAreas)
	}
	if req.ThematicAreasOtherSpecify != nil {
		log.ThematicAreasOtherSpecify = req.ThematicAreasOtherSpecify
	}
	if req.StrengthsObserved != nil {
		log.StrengthsObserved = req.StrengthsObserved
	}
	if req.GapsIdentified != nil {
		log.GapsIdentified = req.GapsIdentified
	}
	if req.RootCauses != nil {
		log.RootCauses = req.RootCauses
	}
	if req.ChallengesEncountered != nil {
		log.ChallengesEncountered = req.ChallengesEncountered
	}
	if req.SolutionsProposed != nil {
		log.SolutionsProposed = req.SolutionsProposed
	}
	if req.SupportNeeded != nil {
		log.SupportNeeded = req.SupportNeeded
	}
	if req.SuccessStories != nil {
		log.SuccessStories = req.SuccessStories
	}
	if req.AttachmentTypes != nil {
		log.AttachmentTypes = models.StringList(*req.AttachmentTypes)
	}

	replaceChildren := req.SkillsTransfers != nil || req.FollowUps != nil
	if req.SkillsTransfers != nil {
		log.SkillsTransfers = buildSkillsTransfers(*req.SkillsTransfers)
	}
	if req.FollowUps != nil {
		log.FollowUps = buildFollowUps(*req.FollowUps)
	}

	if err := s.repo.Update(ctx, log, replaceChildren); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update log")
	}
	return log, nil
}

// Submit moves a draft to submitted and fans out specialist
// notifications. The owning mentor, a supervisor or an admin may
// submit.
func (s *LogService) Submit(ctx context.Context, actorID, id string, meta models.LoginRequest) (*models.MentorshipLog, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	log, err := s.visibleLog(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !access.CanSubmitLog(actorFromUser(actor), logFacts(log)) {
		if log.Status != models.LogStatusDraft {
			return nil, appErrors.InvalidState("submit", string(log.Status), "draft")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot submit another mentor's log")
	}

	now := time.Now().UTC()
	updated, err := s.repo.Transition(ctx, id, models.LogStatusDraft, func(l *models.MentorshipLog) {
		l.Status = models.LogStatusSubmitted
		l.SubmittedAt = &now
	})
	if err != nil {
		return nil, s.transitionError(err, updated, "submit", "draft")
	}
	log.Status = updated.Status
	log.SubmittedAt = updated.SubmittedAt
	log.UpdatedAt = updated.UpdatedAt
	s.metrics.RecordTransition(string(log.Status))

	if err := s.notifier.FanOutSpecialistLog(ctx, log, actor.ID); err != nil {
		s.logger.Warn("specialist fan-out failed", zap.String("log_id", log.ID), zap.Error(err))
	}
	s.audit(ctx, actorID, models.AuditActionLogSubmit, log.ID, map[string]interface{}{"status": log.Status}, meta)
	return log, nil
}

// Approve moves a submitted log to approved. Admins approve anything;
// supervisors only their own mentees' logs.
func (s *LogService) Approve(ctx context.Context, actorID, id string, meta models.LoginRequest) (*models.MentorshipLog, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	log, err := s.visibleLog(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !access.CanApproveLog(actorFromUser(actor), logFacts(log)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only approve logs from your assigned mentees")
	}

	now := time.Now().UTC()
	updated, err := s.repo.Transition(ctx, id, models.LogStatusSubmitted, func(l *models.MentorshipLog) {
		l.Status = models.LogStatusApproved
		l.ApprovedAt = &now
		l.ApprovedBy = &actor.ID
	})
	if err != nil {
		return nil, s.transitionError(err, updated, "approve", "submitted")
	}
	log.Status = updated.Status
	log.ApprovedAt = updated.ApprovedAt
	log.ApprovedBy = updated.ApprovedBy
	log.UpdatedAt = updated.UpdatedAt
	s.metrics.RecordTransition(string(log.Status))

	if err := s.notifier.NotifyApproval(ctx, log, actor.ID, actor.FullName); err != nil {
		s.logger.Warn("approval notification failed", zap.String("log_id", log.ID), zap.Error(err))
	}
	s.audit(ctx, actorID, models.AuditActionLogApprove, log.ID, map[string]interface{}{"status": log.Status}, meta)
	return log, nil
}

// Reject sends a submitted log back to draft with a mandatory reason.
func (s *LogService) Reject(ctx context.Context, actorID, id string, req models.RejectLogRequest, meta models.LoginRequest) (*models.MentorshipLog, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}

	log, err := s.visibleLog(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !access.CanReviewLog(actorFromUser(actor)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only supervisors and admins can reject a log")
	}

	now := time.Now().UTC()
	reason := strings.TrimSpace(req.Reason)
	updated, err := s.repo.Transition(ctx, id, models.LogStatusSubmitted, func(l *models.MentorshipLog) {
		l.Status = models.LogStatusDraft
		l.RejectedAt = &now
		l.RejectionReason = &reason
		l.SubmittedAt = nil
	})
	if err != nil {
		return nil, s.transitionError(err, updated, "reject", "submitted")
	}
	log.Status = updated.Status
	log.RejectedAt = updated.RejectedAt
	log.RejectionReason = updated.RejectionReason
	log.SubmittedAt = nil
	log.UpdatedAt = updated.UpdatedAt
	s.metrics.RecordTransition(string(log.Status))

	if err := s.notifier.NotifyRejection(ctx, log, actor.ID, actor.FullName, reason); err != nil {
		s.logger.Warn("rejection notification failed", zap.String("log_id", log.ID), zap.Error(err))
	}
	s.audit(ctx, actorID, models.AuditActionLogReject, log.ID, map[string]interface{}{"status": log.Status, "reason": reason}, meta)
	return log, nil
}

// ReturnToDraft pulls a submitted log back to draft without recording a
// rejection. Supervisors and admins only.
func (s *LogService) ReturnToDraft(ctx context.Context, actorID, id string, meta models.LoginRequest) (*models.MentorshipLog, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	log, err := s.visibleLog(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !access.CanReviewLog(actorFromUser(actor)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only supervisors and admins can return a log to draft")
	}

	updated, err := s.repo.Transition(ctx, id, models.LogStatusSubmitted, func(l *models.MentorshipLog) {
		l.Status = models.LogStatusDraft
		l.SubmittedAt = nil
	})
	if err != nil {
		return nil, s.transitionError(err, updated, "return", "submitted")
	}
	log.Status = updated.Status
	log.SubmittedAt = nil
	log.UpdatedAt = updated.UpdatedAt
	s.metrics.RecordTransition(string(log.Status))

	s.audit(ctx, actorID, models.AuditActionLogReturn, log.ID, map[string]interface{}{"status": log.Status}, meta)
	return log, nil
}

// Delete removes a log and all its dependents, including stored
// attachment files. Mentors may delete their own drafts; admins may
// delete a log in any status.
func (s *LogService) Delete(ctx context.Context, actorID, id string, meta models.LoginRequest) error {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return err
	}
	log, err := s.visibleLog(ctx, actor, id)
	if err != nil {
		return err
	}
	if !access.CanDeleteLog(actorFromUser(actor), logFacts(log)) {
		if log.MentorID == actor.ID {
			return appErrors.InvalidState("delete", string(log.Status), "draft")
		}
		return appErrors.Clone(appErrors.ErrForbidden, "you can only delete your own draft logs")
	}

	paths, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "mentorship log not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete log")
	}

	if s.files != nil {
		for _, path := range paths {
			if err := s.files.Delete(path); err != nil {
				s.logger.Warn("failed to remove attachment file", zap.String("path", path), zap.Error(err))
			}
		}
	}

	s.audit(ctx, actorID, models.AuditActionLogDelete, id, map[string]interface{}{"deleted": true}, meta)
	return nil
}

func (s *LogService) visibleLog(ctx context.Context, actor *models.User, id string) (*models.MentorshipLog, error) {
	log, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mentorship log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load log")
	}
	if !access.CanViewLog(actorFromUser(actor), logFacts(log)) {
		// Invisible logs look exactly like missing ones.
		return nil, appErrors.Clone(appErrors.ErrNotFound, "mentorship log not found")
	}
	return log, nil
}

func (s *LogService) loadActor(ctx context.Context, actorID string) (*models.User, error) {
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

// transitionError maps repository transition failures. On a status
// conflict the repository hands back the locked row, whose status names
// the state the log is actually in.
func (s *LogService) transitionError(err error, current *models.MentorshipLog, action, required string) error {
	if errors.Is(err, repository.ErrStatusConflict) {
		status := ""
		if current != nil {
			status = string(current.Status)
		}
		return appErrors.InvalidState(action, status, required)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "mentorship log not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update log status")
}

func (s *LogService) audit(ctx context.Context, actorID, action, resourceID string, payload map[string]interface{}, meta models.LoginRequest) {
	data, _ := json.Marshal(payload)
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "mentorship_logs",
		ResourceID: &resourceID,
		NewValues:  data,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record log audit entry", zap.Error(err))
	}
}

func buildSkillsTransfers(inputs []models.SkillsTransferInput) []models.SkillsTransfer {
	out := make([]models.SkillsTransfer, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, models.SkillsTransfer{
			SkillKnowledgeTransferred: in.SkillKnowledgeTransferred,
			RecipientName:             in.RecipientName,
			RecipientCadre:            in.RecipientCadre,
			Method:                    in.Method,
			CompetencyLevel:           in.CompetencyLevel,
			FollowupNeeded:            in.FollowupNeeded,
		})
	}
	return out
}

func buildFollowUps(inputs []models.FollowUpInput) []models.FollowUp {
	out := make([]models.FollowUp, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, models.FollowUp{
			ActionItem:        in.ActionItem,
			ResponsiblePerson: in.ResponsiblePerson,
			AssignedTo:        in.AssignedTo,
			TargetDate:        in.TargetDate,
			ResourcesNeeded:   in.ResourcesNeeded,
			Priority:          in.Priority,
			Status:            models.FollowUpStatusPending,
			Notes:             in.Notes,
		})
	}
	return out
}
