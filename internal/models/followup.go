package models

import "time"

// FollowUpStatus represents the lifecycle state of an action item.
type FollowUpStatus string

const (
	FollowUpStatusPending    FollowUpStatus = "pending"
	FollowUpStatusInProgress FollowUpStatus = "in_progress"
	FollowUpStatusCompleted  FollowUpStatus = "completed"
)

// Valid reports whether the status is a known follow-up state.
func (s FollowUpStatus) Valid() bool {
	switch s {
	case FollowUpStatusPending, FollowUpStatusInProgress, FollowUpStatusCompleted:
		return true
	}
	return false
}

// FollowUp is an action item attached to a mentorship log.
type FollowUp struct {
	ID                string         `db:"id" json:"id"`
	MentorshipLogID   string         `db:"mentorship_log_id" json:"mentorship_log_id"`
	ActionItem        string         `db:"action_item" json:"action_item"`
	ResponsiblePerson *string        `db:"responsible_person" json:"responsible_person,omitempty"`
	AssignedTo        *string        `db:"assigned_to" json:"assigned_to,omitempty"`
	TargetDate        *time.Time     `db:"target_date" json:"target_date,omitempty"`
	ResourcesNeeded   *string        `db:"resources_needed" json:"resources_needed,omitempty"`
	Priority          *string        `db:"priority" json:"priority,omitempty"`
	Status            FollowUpStatus `db:"status" json:"status"`
	Notes             *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
	CompletedAt       *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}

// FollowUpInput is the nested payload for creating or replacing action
// items on a log.
type FollowUpInput struct {
	ActionItem        string     `json:"action_item" validate:"required"`
	ResponsiblePerson *string    `json:"responsible_person,omitempty" validate:"omitempty,max=255"`
	AssignedTo        *string    `json:"assigned_to,omitempty" validate:"omitempty,uuid4"`
	TargetDate        *time.Time `json:"target_date,omitempty"`
	ResourcesNeeded   *string    `json:"resources_needed,omitempty"`
	Priority          *string    `json:"priority,omitempty" validate:"omitempty,oneof=High Medium Low"`
	Notes             *string    `json:"notes,omitempty"`
}

// UpdateFollowUpRequest modifies an existing action item.
type UpdateFollowUpRequest struct {
	ActionItem        *string         `json:"action_item,omitempty" validate:"omitempty,min=1"`
	ResponsiblePerson *string         `json:"responsible_person,omitempty" validate:"omitempty,max=255"`
	AssignedTo        *string         `json:"assigned_to,omitempty" validate:"omitempty,uuid4"`
	TargetDate        *time.Time      `json:"target_date,omitempty"`
	ResourcesNeeded   *string         `json:"resources_needed,omitempty"`
	Priority          *string         `json:"priority,omitempty" validate:"omitempty,oneof=High Medium Low"`
	Status            *FollowUpStatus `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed"`
	Notes             *string         `json:"notes,omitempty"`
}

// FollowUpFilter captures filtering criteria for listing action items.
// VisibleToMentor, when set, restricts results to items on that mentor's
// logs or assigned to them.
type FollowUpFilter struct {
	LogID           string
	AssignedTo      string
	Status          *FollowUpStatus
	Priority        string
	VisibleToMentor string
	Page            int
	PageSize        int
}
