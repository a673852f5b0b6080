package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
)

func strPtr(s string) *string { return &s }

var (
	supervisorID = "sup-1"

	mentor      = Actor{ID: "mentor-1", Role: models.RoleMentor, Active: true, SupervisorID: strPtr(supervisorID)}
	otherMentor = Actor{ID: "mentor-2", Role: models.RoleMentor, Active: true}
	specialist  = Actor{ID: "mentor-3", Role: models.RoleMentor, Active: true, Specializations: []string{"PMTCT", "TB/HIV"}}
	supervisor  = Actor{ID: supervisorID, Role: models.RoleSupervisor, Active: true}
	otherSup    = Actor{ID: "sup-2", Role: models.RoleSupervisor, Active: true}
	admin       = Actor{ID: "admin-1", Role: models.RoleAdmin, Active: true}
)

func logIn(status models.LogStatus, areas ...string) LogFacts {
	return LogFacts{
		ID:                 "log-1",
		MentorID:           mentor.ID,
		MentorSupervisorID: strPtr(supervisorID),
		Status:             status,
		ThematicAreas:      areas,
	}
}

func TestCanViewLog(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		log   LogFacts
		want  bool
	}{
		{"owner sees own draft", mentor, logIn(models.LogStatusDraft, "PMTCT"), true},
		{"owner sees own approved", mentor, logIn(models.LogStatusApproved, "PMTCT"), true},
		{"admin sees any draft", admin, logIn(models.LogStatusDraft), true},
		{"supervisor sees any log", otherSup, logIn(models.LogStatusDraft), true},
		{"unrelated mentor blocked", otherMentor, logIn(models.LogStatusSubmitted, "PMTCT"), false},
		{"specialist sees submitted overlap", specialist, logIn(models.LogStatusSubmitted, "PMTCT"), true},
		{"specialist sees approved overlap", specialist, logIn(models.LogStatusApproved, "TB/HIV"), true},
		{"specialist blocked on draft", specialist, logIn(models.LogStatusDraft, "PMTCT"), false},
		{"specialist blocked without overlap", specialist, logIn(models.LogStatusSubmitted, "Supply chain"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanViewLog(tt.actor, tt.log))
		})
	}
}

func TestCanEditLog(t *testing.T) {
	assert.True(t, CanEditLog(mentor, logIn(models.LogStatusDraft)))
	assert.False(t, CanEditLog(mentor, logIn(models.LogStatusSubmitted)), "submitted logs are frozen")
	assert.False(t, CanEditLog(mentor, logIn(models.LogStatusApproved)))
	assert.False(t, CanEditLog(admin, logIn(models.LogStatusDraft)), "even admins do not edit another mentor's log")
	assert.False(t, CanEditLog(supervisor, logIn(models.LogStatusDraft)))
}

func TestCanDeleteLog(t *testing.T) {
	assert.True(t, CanDeleteLog(mentor, logIn(models.LogStatusDraft)))
	assert.True(t, CanDeleteLog(admin, logIn(models.LogStatusDraft)))
	assert.True(t, CanDeleteLog(admin, logIn(models.LogStatusSubmitted)), "admins may delete at any status")
	assert.True(t, CanDeleteLog(admin, logIn(models.LogStatusApproved)))
	assert.False(t, CanDeleteLog(supervisor, logIn(models.LogStatusDraft)))
	assert.False(t, CanDeleteLog(mentor, logIn(models.LogStatusSubmitted)))
	assert.False(t, CanDeleteLog(otherMentor, logIn(models.LogStatusDraft)))
}

func TestCanSubmitLog(t *testing.T) {
	assert.True(t, CanSubmitLog(mentor, logIn(models.LogStatusDraft)))
	assert.True(t, CanSubmitLog(supervisor, logIn(models.LogStatusDraft)), "supervisors may submit on a mentor's behalf")
	assert.True(t, CanSubmitLog(otherSup, logIn(models.LogStatusDraft)))
	assert.True(t, CanSubmitLog(admin, logIn(models.LogStatusDraft)))
	assert.False(t, CanSubmitLog(otherMentor, logIn(models.LogStatusDraft)))
	assert.False(t, CanSubmitLog(mentor, logIn(models.LogStatusSubmitted)))
	assert.False(t, CanSubmitLog(admin, logIn(models.LogStatusApproved)))
}

func TestCanApproveLog(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		log   LogFacts
		want  bool
	}{
		{"admin approves anyone", admin, logIn(models.LogStatusSubmitted), true},
		{"own supervisor approves", supervisor, logIn(models.LogStatusSubmitted), true},
		{"other supervisor blocked", otherSup, logIn(models.LogStatusSubmitted), false},
		{"mentor cannot approve own", mentor, logIn(models.LogStatusSubmitted), false},
		{"no supervisor on record blocks supervisors", supervisor, LogFacts{MentorID: "orphan", Status: models.LogStatusSubmitted}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanApproveLog(tt.actor, tt.log))
		})
	}
}

func TestCanReviewLog(t *testing.T) {
	assert.True(t, CanReviewLog(supervisor))
	assert.True(t, CanReviewLog(otherSup), "rejection is open to any supervisor")
	assert.True(t, CanReviewLog(admin))
	assert.False(t, CanReviewLog(mentor))
	assert.False(t, CanReviewLog(otherMentor))
}

func TestCanManageLogChildren(t *testing.T) {
	assert.True(t, CanManageLogChildren(mentor, logIn(models.LogStatusDraft)))
	assert.True(t, CanManageLogChildren(mentor, logIn(models.LogStatusApproved)), "owner manages regardless of status")
	assert.True(t, CanManageLogChildren(supervisor, logIn(models.LogStatusSubmitted)))
	assert.True(t, CanManageLogChildren(otherSup, logIn(models.LogStatusSubmitted)))
	assert.True(t, CanManageLogChildren(admin, logIn(models.LogStatusDraft)))
	assert.False(t, CanManageLogChildren(otherMentor, logIn(models.LogStatusDraft)))
}

func TestCanUpdateFollowUp(t *testing.T) {
	log := logIn(models.LogStatusApproved)
	assert.True(t, CanUpdateFollowUp(mentor, log, nil), "owner updates regardless of status")
	assert.True(t, CanUpdateFollowUp(admin, log, nil))
	assert.True(t, CanUpdateFollowUp(supervisor, log, nil))
	assert.True(t, CanUpdateFollowUp(otherSup, log, nil), "any supervisor may progress items")
	assert.True(t, CanUpdateFollowUp(otherMentor, log, strPtr(otherMentor.ID)), "assignee may progress the item")
	assert.False(t, CanUpdateFollowUp(otherMentor, log, strPtr("someone-else")))
}

func TestCanComment(t *testing.T) {
	tests := []struct {
		name           string
		actor          Actor
		log            LogFacts
		wantAllowed    bool
		wantSpecialist bool
	}{
		{"no comments on drafts", supervisor, logIn(models.LogStatusDraft), false, false},
		{"owner comments plain", mentor, logIn(models.LogStatusSubmitted), true, false},
		{"admin comments plain", admin, logIn(models.LogStatusSubmitted), true, false},
		{"supervisor comments plain", otherSup, logIn(models.LogStatusApproved), true, false},
		{"specialist overlap flagged", specialist, logIn(models.LogStatusSubmitted, "PMTCT"), true, true},
		{"specialist without overlap blocked", specialist, logIn(models.LogStatusSubmitted, "Supply chain"), false, false},
		{"unrelated mentor blocked", otherMentor, logIn(models.LogStatusSubmitted, "PMTCT"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, spec := CanComment(tt.actor, tt.log)
			assert.Equal(t, tt.wantAllowed, allowed)
			assert.Equal(t, tt.wantSpecialist, spec)
		})
	}
}

func TestCanUpdateUser(t *testing.T) {
	mentorUser := &models.User{ID: mentor.ID, Role: models.RoleMentor}
	supUser := &models.User{ID: supervisorID, Role: models.RoleSupervisor}
	adminUser := &models.User{ID: admin.ID, Role: models.RoleAdmin}

	tests := []struct {
		name       string
		actor      Actor
		target     *models.User
		roleChange bool
		want       bool
	}{
		{"admin updates anyone", admin, supUser, false, true},
		{"admin changes roles", admin, mentorUser, true, true},
		{"supervisor updates mentor", supervisor, mentorUser, false, true},
		{"supervisor cannot change roles", supervisor, mentorUser, true, false},
		{"supervisor cannot update supervisor", otherSup, supUser, false, false},
		{"supervisor cannot update admin", supervisor, adminUser, false, false},
		{"self update allowed", mentor, mentorUser, false, true},
		{"self role change blocked", mentor, mentorUser, true, false},
		{"mentor cannot update others", otherMentor, mentorUser, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanUpdateUser(tt.actor, tt.target, tt.roleChange))
		})
	}
}

func TestLogListScope(t *testing.T) {
	adminScope := LogListScope(admin, nil)
	assert.True(t, adminScope.All)

	mentorScope := LogListScope(specialist, nil)
	assert.False(t, mentorScope.All)
	assert.Equal(t, []string{specialist.ID}, mentorScope.MentorIDs)
	assert.Equal(t, []string{"PMTCT", "TB/HIV"}, mentorScope.SpecialistAreas)

	supScope := LogListScope(supervisor, []string{"mentor-1", "mentor-9"})
	assert.ElementsMatch(t, []string{supervisorID, "mentor-1", "mentor-9"}, supScope.MentorIDs)
}

func TestHasSpecialistOverlap(t *testing.T) {
	assert.True(t, specialist.HasSpecialistOverlap(logIn(models.LogStatusSubmitted, "Quality improvement", "PMTCT")))
	assert.False(t, specialist.HasSpecialistOverlap(logIn(models.LogStatusSubmitted)))
	assert.False(t, Actor{ID: "x"}.HasSpecialistOverlap(logIn(models.LogStatusSubmitted, "PMTCT")))
}
