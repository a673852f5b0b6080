package models

import "time"

// SummaryReport holds overall programme counts.
type SummaryReport struct {
	TotalLogs         int            `json:"total_logs"`
	LogsByStatus      map[string]int `json:"logs_by_status"`
	TotalFacilities   int            `json:"total_facilities"`
	TotalMentors      int            `json:"total_mentors"`
	TotalFollowUps    int            `json:"total_follow_ups"`
	FollowUpsByStatus map[string]int `json:"follow_ups_by_status"`
}

// StatusCount is a (group, count) pair returned by aggregate queries.
type StatusCount struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}

// MentorLogCount aggregates logs per mentor.
type MentorLogCount struct {
	MentorID   string `db:"mentor_id" json:"mentor_id"`
	MentorName string `db:"mentor_name" json:"mentor_name"`
	Count      int    `db:"count" json:"count"`
}

// FacilityLogCount aggregates logs per facility.
type FacilityLogCount struct {
	FacilityID   string `db:"facility_id" json:"facility_id"`
	FacilityName string `db:"facility_name" json:"facility_name"`
	Count        int    `db:"count" json:"count"`
}

// StateLogCount aggregates logs per state.
type StateLogCount struct {
	State *string `db:"state" json:"state"`
	Count int     `db:"count" json:"count"`
}

// LogsReport breaks down mentorship logs by mentor, facility and state.
type LogsReport struct {
	TotalCount     int                `json:"total_count"`
	LogsByMentor   []MentorLogCount   `json:"logs_by_mentor"`
	LogsByFacility []FacilityLogCount `json:"logs_by_facility"`
	LogsByState    []StateLogCount    `json:"logs_by_state"`
}

// LogsReportFilter narrows the logs report.
type LogsReportFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	MentorID   string
	FacilityID string
	Status     *LogStatus
}

// FollowUpsReport summarizes action item progress. Overdue counts
// pending or in-progress items whose target date has passed.
type FollowUpsReport struct {
	TotalCount   int            `json:"total_count"`
	PendingCount int            `json:"pending_count"`
	OverdueCount int            `json:"overdue_count"`
	ByStatus     map[string]int `json:"by_status"`
}

// FollowUpsReportFilter narrows the follow-ups report.
type FollowUpsReportFilter struct {
	Status   *FollowUpStatus
	Priority string
}

// FacilityCoverage holds per-facility visit statistics.
type FacilityCoverage struct {
	FacilityID    string     `db:"facility_id" json:"facility_id"`
	FacilityName  string     `db:"facility_name" json:"facility_name"`
	FacilityCode  *string    `db:"facility_code" json:"facility_code,omitempty"`
	State         *string    `db:"state" json:"state,omitempty"`
	LGA           *string    `db:"lga" json:"lga,omitempty"`
	VisitCount    int        `db:"visit_count" json:"visit_count"`
	LastVisitDate *time.Time `db:"last_visit_date" json:"last_visit_date,omitempty"`
}

// FacilityCoverageReport lists facilities with visit tracking.
type FacilityCoverageReport struct {
	TotalFacilities int                `json:"total_facilities"`
	VisitedCount    int                `json:"visited_count"`
	UnvisitedCount  int                `json:"unvisited_count"`
	Facilities      []FacilityCoverage `json:"facilities"`
}
