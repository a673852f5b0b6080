// Package access holds the pure permission predicates for mentorship
// logs and their sub-resources. Every rule takes plain fact structs and
// returns a decision without touching the database, so the rules can be
// tested exhaustively and reused by services and repositories alike.
package access

import "github.com/acehealth-ng/mentorlog-api/internal/models"

// Actor describes the user attempting an operation.
type Actor struct {
	ID              string
	Role            models.UserRole
	Active          bool
	SupervisorID    *string
	Specializations []string
}

// LogFacts describes the mentorship log an operation targets. The
// mentor's supervisor is carried alongside so supervisor checks need no
// extra lookup.
type LogFacts struct {
	ID                 string
	MentorID           string
	MentorSupervisorID *string
	Status             models.LogStatus
	ThematicAreas      []string
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// IsSupervisorOf reports whether the actor supervises the log's mentor.
func (a Actor) IsSupervisorOf(log LogFacts) bool {
	return a.Role == models.RoleSupervisor &&
		log.MentorSupervisorID != nil && *log.MentorSupervisorID == a.ID
}

// HasSpecialistOverlap reports whether any of the actor's
// specializations matches the log's thematic areas.
func (a Actor) HasSpecialistOverlap(log LogFacts) bool {
	return models.StringList(a.Specializations).Intersects(log.ThematicAreas)
}

// CanViewLog decides single-log visibility:
//   - admins and supervisors see every log
//   - mentors see their own logs in any status
//   - specialists see logs whose thematic areas overlap their
//     specializations, once the log has left draft
func CanViewLog(actor Actor, log LogFacts) bool {
	if actor.IsAdmin() || actor.Role == models.RoleSupervisor {
		return true
	}
	if log.MentorID == actor.ID {
		return true
	}
	if log.Status == models.LogStatusDraft {
		return false
	}
	return actor.HasSpecialistOverlap(log)
}

// CanEditLog decides whether the actor may modify the log's content.
// Only the owning mentor may edit, and only while the log is a draft.
func CanEditLog(actor Actor, log LogFacts) bool {
	return log.MentorID == actor.ID && log.Status == models.LogStatusDraft
}

// CanDeleteLog decides who may remove a log. Admins may delete a log in
// any status; the owning mentor only while it is still a draft.
func CanDeleteLog(actor Actor, log LogFacts) bool {
	if actor.IsAdmin() {
		return true
	}
	return log.MentorID == actor.ID && log.Status == models.LogStatusDraft
}

// CanSubmitLog decides whether the actor may submit the log for
// approval: the owning mentor, or any supervisor or admin, and only
// from draft.
func CanSubmitLog(actor Actor, log LogFacts) bool {
	if log.Status != models.LogStatusDraft {
		return false
	}
	return log.MentorID == actor.ID || actor.IsAdmin() || actor.Role == models.RoleSupervisor
}

// CanApproveLog decides whether the actor may approve the log: admins
// always, supervisors only for their own mentees. The status gate
// (submitted) is enforced separately by the workflow.
func CanApproveLog(actor Actor, log LogFacts) bool {
	return actor.IsAdmin() || actor.IsSupervisorOf(log)
}

// CanReviewLog covers reject and return-to-draft, which are wider than
// approve: any supervisor or admin may send a submitted log back.
func CanReviewLog(actor Actor) bool {
	return actor.IsAdmin() || actor.Role == models.RoleSupervisor
}

// CanManageLogChildren decides whether the actor may create or remove
// sub-resources (follow ups, attachments): admins and supervisors
// always, mentors only on their own logs.
func CanManageLogChildren(actor Actor, log LogFacts) bool {
	if actor.IsAdmin() || actor.Role == models.RoleSupervisor {
		return true
	}
	return log.MentorID == actor.ID
}

// CanUpdateFollowUp is broader still than child management: the
// assignee, who may not own or supervise the log, can progress the
// item regardless of log status.
func CanUpdateFollowUp(actor Actor, log LogFacts, assignedTo *string) bool {
	if CanManageLogChildren(actor, log) {
		return true
	}
	return assignedTo != nil && *assignedTo == actor.ID
}

// CanComment decides whether the actor may comment on the log, and
// whether the comment counts as specialist feedback. Drafts accept no
// comments. Owners, admins and supervisors may comment on anything
// visible; specialists only where their areas overlap, and those
// comments are flagged.
func CanComment(actor Actor, log LogFacts) (allowed, specialist bool) {
	if log.Status == models.LogStatusDraft {
		return false, false
	}
	if log.MentorID == actor.ID || actor.IsAdmin() || actor.Role == models.RoleSupervisor {
		return true, false
	}
	if actor.HasSpecialistOverlap(log) {
		return true, true
	}
	return false, false
}

// CanUpdateUser decides whether the actor may update the target user.
// Admins update anyone. Supervisors update mentors only. Everyone may
// update themselves. Role changes are reserved to admins.
func CanUpdateUser(actor Actor, target *models.User, roleChange bool) bool {
	if actor.IsAdmin() {
		return true
	}
	if roleChange {
		return false
	}
	if actor.ID == target.ID {
		return true
	}
	return actor.Role == models.RoleSupervisor && target.Role == models.RoleMentor
}

// CanViewUser decides read access to a user profile: self always,
// admins and supervisors for anyone.
func CanViewUser(actor Actor, targetID string) bool {
	return actor.ID == targetID || actor.IsAdmin() || actor.Role == models.RoleSupervisor
}

// ListScope describes the visibility window applied to log listings.
type ListScope struct {
	// All means no restriction.
	All bool
	// MentorIDs restricts to logs owned by these mentors. Empty with
	// All=false means no ownership window.
	MentorIDs []string
	// SpecialistAreas additionally admits submitted or approved logs
	// whose thematic areas overlap these.
	SpecialistAreas []string
}

// LogListScope computes the listing window for the actor:
//   - admins list everything
//   - supervisors list their own logs, their mentees' logs, and
//     specialist-overlap logs
//   - mentors list their own logs plus specialist-overlap logs
//
// menteeIDs is the set of users the actor supervises; callers pass nil
// for non-supervisors.
func LogListScope(actor Actor, menteeIDs []string) ListScope {
	if actor.IsAdmin() {
		return ListScope{All: true}
	}
	scope := ListScope{
		MentorIDs:       []string{actor.ID},
		SpecialistAreas: actor.Specializations,
	}
	if actor.Role == models.RoleSupervisor {
		scope.MentorIDs = append(scope.MentorIDs, menteeIDs...)
	}
	return scope
}
