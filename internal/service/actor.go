package service

import (
	"github.com/acehealth-ng/mentorlog-api/internal/access"
	"github.com/acehealth-ng/mentorlog-api/internal/models"
)

// actorFromUser projects a stored user onto the access-control facts.
func actorFromUser(u *models.User) access.Actor {
	return access.Actor{
		ID:              u.ID,
		Role:            u.Role,
		Active:          u.Active,
		SupervisorID:    u.SupervisorID,
		Specializations: u.Specializations,
	}
}

// logFacts projects a mentorship log onto the access-control facts.
func logFacts(l *models.MentorshipLog) access.LogFacts {
	return access.LogFacts{
		ID:                 l.ID,
		MentorID:           l.MentorID,
		MentorSupervisorID: l.MentorSupervisorID,
		Status:             l.Status,
		ThematicAreas:      l.ThematicAreas,
	}
}
