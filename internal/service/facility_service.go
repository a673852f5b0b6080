package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
	appErrors "github.com/acehealth-ng/mentorlog-api/pkg/errors"
)

type facilityRepository interface {
	List(ctx context.Context, filter models.FacilityFilter) ([]models.Facility, int, error)
	FindByID(ctx context.Context, id string) (*models.Facility, error)
	FindByCode(ctx context.Context, code string) (*models.Facility, error)
	Create(ctx context.Context, facility *models.Facility) error
	Update(ctx context.Context, facility *models.Facility) error
	CountLogs(ctx context.Context, facilityID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// FacilityService handles facility management. Reads are open to any
// authenticated user; writes are admin only.
type FacilityService struct {
	repo      facilityRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacilityService creates an instance of FacilityService.
func NewFacilityService(repo facilityRepository, validate *validator.Validate, logger *zap.Logger) *FacilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FacilityService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated facilities.
func (s *FacilityService) List(ctx context.Context, filter models.FacilityFilter) ([]models.Facility, *models.Pagination, error) {
	facilities, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list facilities")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return facilities, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a facility by ID.
func (s *FacilityService) Get(ctx context.Context, id string) (*models.Facility, error) {
	facility, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility")
	}
	return facility, nil
}

// Create registers a new facility. Facility codes are unique.
func (s *FacilityService) Create(ctx context.Context, req models.CreateFacilityRequest) (*models.Facility, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create facility payload")
	}

	if req.Code != nil && *req.Code != "" {
		if _, err := s.repo.FindByCode(ctx, *req.Code); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "facility code already exists")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check facility code")
		}
	}

	facility := &models.Facility{
		Name:          req.Name,
		Code:          req.Code,
		Location:      req.Location,
		State:         req.State,
		LGA:           req.LGA,
		FacilityType:  req.FacilityType,
		ContactPerson: req.ContactPerson,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
	}
	if err := s.repo.Create(ctx, facility); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create facility")
	}
	return facility, nil
}

// Update modifies facility attributes.
func (s *FacilityService) Update(ctx context.Context, id string, req models.UpdateFacilityRequest) (*models.Facility, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update facility payload")
	}

	facility, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility")
	}

	if req.Code != nil && (facility.Code == nil || *req.Code != *facility.Code) {
		if existing, err := s.repo.FindByCode(ctx, *req.Code); err == nil && existing.ID != id {
			return nil, appErrors.Clone(appErrors.ErrConflict, "facility code already exists")
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check facility code")
		}
		facility.Code = req.Code
	}
	if req.Name != nil {
		facility.Name = *req.Name
	}
	if req.Location != nil {
		facility.Location = req.Location
	}
	if req.State != nil {
		facility.State = req.State
	}
	if req.LGA != nil {
		facility.LGA = req.LGA
	}
	if req.FacilityType != nil {
		facility.FacilityType = req.FacilityType
	}
	if req.ContactPerson != nil {
		facility.ContactPerson = req.ContactPerson
	}
	if req.ContactEmail != nil {
		facility.ContactEmail = req.ContactEmail
	}
	if req.ContactPhone != nil {
		facility.ContactPhone = req.ContactPhone
	}

	if err := s.repo.Update(ctx, facility); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update facility")
	}
	return facility, nil
}

// Delete removes a facility, refusing while mentorship logs reference it.
func (s *FacilityService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility")
	}

	logCount, err := s.repo.CountLogs(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count facility logs")
	}
	if logCount > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "facility has mentorship logs and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete facility")
	}
	return nil
}
