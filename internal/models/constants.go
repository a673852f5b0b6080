package models

// Form option lists served by the constants endpoint. The frontend
// renders these as checkboxes or dropdowns; selections are stored as
// JSON arrays on the log.

// InteractionTypes are the valid ways a mentorship visit is conducted.
var InteractionTypes = []string{"On-site", "Virtual", "Phone"}

// States are the states covered by the programme.
var States = []string{"Kano", "Jigawa", "Bauchi"}

// FacilityTypes classify the level of a health facility.
var FacilityTypes = []string{"Primary", "Secondary", "Tertiary"}

// ActivityTypes are the activities-conducted checkbox options.
var ActivityTypes = []string{
	"Direct clinical service",
	"Side-by-side mentorship",
	"Case review/discussion",
	"Data review and analysis",
	"Systems assessment/improvement",
	"Training/demonstration",
	"Meeting facilitation",
	"Other",
}

// ThematicAreas are the thematic-areas-covered checkbox options. These
// same values appear in user specializations and drive specialist
// notification fan-out.
var ThematicAreas = []string{
	"General HIV care and treatment",
	"Care and Support",
	"Pediatric HIV management",
	"PMTCT",
	"TB/HIV",
	"Laboratory services",
	"Supply chain",
	"Strategic Information",
	"Quality improvement",
	"Other",
}

// CompetencyLevels grade skills-transfer outcomes.
var CompetencyLevels = []string{"Beginner", "Intermediate", "Advanced", "Proficient", "Expert"}

// TransferMethods are the skills-transfer delivery methods.
var TransferMethods = []string{
	"Demonstration",
	"Hands-on practice",
	"Observation",
	"Discussion",
	"Presentation",
	"Simulation",
	"Other",
}

// Priorities classify action items.
var Priorities = []string{"High", "Medium", "Low"}

// AttachmentTypes are the attachments-section checkbox options.
var AttachmentTypes = []string{
	"Photos (with consent)",
	"Tools/Templates Shared",
	"Before/After Documentation",
	"Reference Materials",
}

// Cadres lists common healthcare worker cadres.
var Cadres = []string{
	"Doctor",
	"Nurse",
	"Midwife",
	"Pharmacist",
	"Pharmacy Technician",
	"Laboratory Scientist",
	"Laboratory Technician",
	"Community Health Extension Worker (CHEW)",
	"Community Health Officer (CHO)",
	"Data Clerk",
	"M&E Officer",
	"Other",
}

// ConstantsResponse bundles every option list for the frontend.
type ConstantsResponse struct {
	InteractionTypes []string `json:"interaction_types"`
	States           []string `json:"states"`
	FacilityTypes    []string `json:"facility_types"`
	ActivityTypes    []string `json:"activity_types"`
	ThematicAreas    []string `json:"thematic_areas"`
	CompetencyLevels []string `json:"competency_levels"`
	TransferMethods  []string `json:"transfer_methods"`
	Priorities       []string `json:"priorities"`
	AttachmentTypes  []string `json:"attachment_types"`
	Cadres           []string `json:"cadres"`
	LogStatuses      []string `json:"log_statuses"`
	FollowUpStatuses []string `json:"follow_up_statuses"`
	UserRoles        []string `json:"user_roles"`
}

// AllConstants returns the full constants payload.
func AllConstants() ConstantsResponse {
	return ConstantsResponse{
		InteractionTypes: InteractionTypes,
		States:           States,
		FacilityTypes:    FacilityTypes,
		ActivityTypes:    ActivityTypes,
		ThematicAreas:    ThematicAreas,
		CompetencyLevels: CompetencyLevels,
		TransferMethods:  TransferMethods,
		Priorities:       Priorities,
		AttachmentTypes:  AttachmentTypes,
		Cadres:           Cadres,
		LogStatuses:      []string{string(LogStatusDraft), string(LogStatusSubmitted), string(LogStatusApproved), string(LogStatusCompleted)},
		FollowUpStatuses: []string{string(FollowUpStatusPending), string(FollowUpStatusInProgress), string(FollowUpStatusCompleted)},
		UserRoles:        []string{string(RoleMentor), string(RoleSupervisor), string(RoleAdmin)},
	}
}
