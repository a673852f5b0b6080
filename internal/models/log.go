package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LogStatus represents the workflow state of a mentorship log.
type LogStatus string

const (
	LogStatusDraft     LogStatus = "draft"
	LogStatusSubmitted LogStatus = "submitted"
	LogStatusApproved  LogStatus = "approved"
	// LogStatusCompleted is reserved for a future post-approval stage. No
	// transition targets it yet.
	LogStatusCompleted LogStatus = "completed"
)

// Valid reports whether the status is one of the known workflow states.
func (s LogStatus) Valid() bool {
	switch s {
	case LogStatusDraft, LogStatusSubmitted, LogStatusApproved, LogStatusCompleted:
		return true
	}
	return false
}

// Mentee is a single attendee recorded on a visit.
type Mentee struct {
	Name  string `json:"name" validate:"required"`
	Cadre string `json:"cadre,omitempty"`
}

// MenteeList is a JSON-encoded list of mentees stored in a jsonb column.
type MenteeList []Mentee

// Value marshals the list to JSON for persistence.
func (l MenteeList) Value() (driver.Value, error) {
	if l == nil {
		l = MenteeList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal mentee list: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON payload into the list.
func (l *MenteeList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for MenteeList", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	if err := json.Unmarshal(data, l); err != nil {
		return fmt.Errorf("unmarshal mentee list: %w", err)
	}
	return nil
}

// MentorshipLog represents a single facility visit record and its
// workflow metadata.
type MentorshipLog struct {
	ID         string    `db:"id" json:"id"`
	FacilityID string    `db:"facility_id" json:"facility_id"`
	MentorID   string    `db:"mentor_id" json:"mentor_id"`
	VisitDate  time.Time `db:"visit_date" json:"visit_date"`
	Status     LogStatus `db:"status" json:"status"`

	InteractionType *string    `db:"interaction_type" json:"interaction_type,omitempty"`
	DurationHours   *int       `db:"duration_hours" json:"duration_hours,omitempty"`
	DurationMinutes *int       `db:"duration_minutes" json:"duration_minutes,omitempty"`
	MenteesPresent  MenteeList `db:"mentees_present" json:"mentees_present"`

	ActivitiesConducted       StringList `db:"activities_conducted" json:"activities_conducted"`
	ActivitiesOtherSpecify    *string    `db:"activities_other_specify" json:"activities_other_specify,omitempty"`
	ThematicAreas             StringList `db:"thematic_areas" json:"thematic_areas"`
	ThematicAreasOtherSpecify *string    `db:"thematic_areas_other_specify" json:"thematic_areas_other_specify,omitempty"`

	StrengthsObserved *string `db:"strengths_observed" json:"strengths_observed,omitempty"`
	GapsIdentified    *string `db:"gaps_identified" json:"gaps_identified,omitempty"`
	RootCauses        *string `db:"root_causes" json:"root_causes,omitempty"`

	ChallengesEncountered *string `db:"challenges_encountered" json:"challenges_encountered,omitempty"`
	SolutionsProposed     *string `db:"solutions_proposed" json:"solutions_proposed,omitempty"`
	SupportNeeded         *string `db:"support_needed" json:"support_needed,omitempty"`
	SuccessStories        *string `db:"success_stories" json:"success_stories,omitempty"`

	AttachmentTypes StringList `db:"attachment_types" json:"attachment_types"`

	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	SubmittedAt     *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy      *string    `db:"approved_by" json:"approved_by,omitempty"`
	RejectedAt      *time.Time `db:"rejected_at" json:"rejected_at,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`

	// Populated by joins, not columns on mentorship_logs.
	MentorName         string  `db:"mentor_name" json:"mentor_name,omitempty"`
	MentorSupervisorID *string `db:"mentor_supervisor_id" json:"-"`
	FacilityName       string  `db:"facility_name" json:"facility_name,omitempty"`

	SkillsTransfers []SkillsTransfer `json:"skills_transfers,omitempty"`
	FollowUps       []FollowUp       `json:"follow_ups,omitempty"`
	Attachments     []Attachment     `json:"attachments,omitempty"`
}

// SkillsTransfer captures one row of the skills-transfer section of a visit.
type SkillsTransfer struct {
	ID                        string    `db:"id" json:"id"`
	MentorshipLogID           string    `db:"mentorship_log_id" json:"mentorship_log_id"`
	SkillKnowledgeTransferred string    `db:"skill_knowledge_transferred" json:"skill_knowledge_transferred"`
	RecipientName             *string   `db:"recipient_name" json:"recipient_name,omitempty"`
	RecipientCadre            *string   `db:"recipient_cadre" json:"recipient_cadre,omitempty"`
	Method                    *string   `db:"method" json:"method,omitempty"`
	CompetencyLevel           *string   `db:"competency_level" json:"competency_level,omitempty"`
	FollowupNeeded            bool      `db:"followup_needed" json:"followup_needed"`
	CreatedAt                 time.Time `db:"created_at" json:"created_at"`
}

// SkillsTransferInput is the nested payload for creating or replacing
// skills-transfer rows on a log.
type SkillsTransferInput struct {
	SkillKnowledgeTransferred string  `json:"skill_knowledge_transferred" validate:"required"`
	RecipientName             *string `json:"recipient_name,omitempty" validate:"omitempty,max=255"`
	RecipientCadre            *string `json:"recipient_cadre,omitempty" validate:"omitempty,max=100"`
	Method                    *string `json:"method,omitempty" validate:"omitempty,max=255"`
	CompetencyLevel           *string `json:"competency_level,omitempty" validate:"omitempty,max=100"`
	FollowupNeeded            bool    `json:"followup_needed"`
}

// CreateLogRequest is the payload for creating a mentorship log. New logs
// always start in draft.
type CreateLogRequest struct {
	FacilityID                string                `json:"facility_id" validate:"required,uuid4"`
	VisitDate                 time.Time             `json:"visit_date" validate:"required"`
	InteractionType           *string               `json:"interaction_type,omitempty" validate:"omitempty,max=50"`
	DurationHours             *int                  `json:"duration_hours,omitempty" validate:"omitempty,min=0,max=24"`
	DurationMinutes           *int                  `json:"duration_minutes,omitempty" validate:"omitempty,min=0,max=59"`
	MenteesPresent            []Mentee              `json:"mentees_present,omitempty" validate:"omitempty,dive"`
	ActivitiesConducted       []string              `json:"activities_conducted,omitempty"`
	ActivitiesOtherSpecify    *string               `json:"activities_other_specify,omitempty"`
	ThematicAreas             []string              `json:"thematic_areas,omitempty"`
	ThematicAreasOtherSpecify *string               `json:"thematic_areas_other_specify,omitempty"`
	StrengthsObserved         *string               `json:"strengths_observed,omitempty"`
	GapsIdentified            *string               `json:"gaps_identified,omitempty"`
	RootCauses                *string               `json:"root_causes,omitempty"`
	ChallengesEncountered     *string               `json:"challenges_encountered,omitempty"`
	SolutionsProposed         *string               `json:"solutions_proposed,omitempty"`
	SupportNeeded             *string               `json:"support_needed,omitempty"`
	SuccessStories            *string               `json:"success_stories,omitempty"`
	AttachmentTypes           []string              `json:"attachment_types,omitempty"`
	SkillsTransfers           []SkillsTransferInput `json:"skills_transfers,omitempty" validate:"omitempty,dive"`
	FollowUps                 []FollowUpInput       `json:"follow_ups,omitempty" validate:"omitempty,dive"`
}

// UpdateLogRequest modifies a draft log. Nested skills-transfer and
// follow-up collections, when present, replace the stored rows entirely.
type UpdateLogRequest struct {
	FacilityID                *string                `json:"facility_id,omitempty" validate:"omitempty,uuid4"`
	VisitDate                 *time.Time             `json:"visit_date,omitempty"`
	InteractionType           *string                `json:"interaction_type,omitempty" validate:"omitempty,max=50"`
	DurationHours             *int                   `json:"duration_hours,omitempty" validate:"omitempty,min=0,max=24"`
	DurationMinutes           *int                   `json:"duration_minutes,omitempty" validate:"omitempty,min=0,max=59"`
	MenteesPresent            *[]Mentee              `json:"mentees_present,omitempty" validate:"omitempty,dive"`
	ActivitiesConducted       *[]string              `json:"activities_conducted,omitempty"`
	ActivitiesOtherSpecify    *string                `json:"activities_other_specify,omitempty"`
	ThematicAreas             *[]string              `json:"thematic_areas,omitempty"`
	ThematicAreasOtherSpecify *string                `json:"thematic_areas_other_specify,omitempty"`
	StrengthsObserved         *string                `json:"strengths_observed,omitempty"`
	GapsIdentified            *string                `json:"gaps_identified,omitempty"`
	RootCauses                *string                `json:"root_causes,omitempty"`
	ChallengesEncountered     *string                `json:"challenges_encountered,omitempty"`
	SolutionsProposed         *string                `json:"solutions_proposed,omitempty"`
	SupportNeeded             *string                `json:"support_needed,omitempty"`
	SuccessStories            *string                `json:"success_stories,omitempty"`
	AttachmentTypes           *[]string              `json:"attachment_types,omitempty"`
	SkillsTransfers           *[]SkillsTransferInput `json:"skills_transfers,omitempty" validate:"omitempty,dive"`
	FollowUps                 *[]FollowUpInput       `json:"follow_ups,omitempty" validate:"omitempty,dive"`
}

// RejectLogRequest carries the mandatory reason for rejecting a
// submitted log.
type RejectLogRequest struct {
	Reason string `json:"reason" validate:"required,min=1"`
}

// LogFilter captures filtering criteria for listing mentorship logs.
// Visibility restrictions are applied on top of these by the service.
type LogFilter struct {
	Status       *LogStatus
	FacilityID   string
	MentorID     string
	ThematicArea string
	DateFrom     *time.Time
	DateTo       *time.Time
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
