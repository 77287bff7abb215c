// Package policy is the single authorization decision point. Handlers and
// services describe who is acting, what they want to do and who owns the
// target, and Evaluate answers with nil or an errorz.Forbidden error.
package policy

import (
	"clubsphere/internal/errorz"
	"clubsphere/internal/models"
)

// Action names an operation that needs an authorization decision
type Action string

const (
	ClubReview      Action = "club.review"
	ClubListPending Action = "club.listPending"
	UserList        Action = "user.list"
	UserSetRole     Action = "user.setRole"
	PaymentListAll  Action = "payment.listAll"
	StatsView       Action = "stats.view"
	AuditView       Action = "audit.view"

	ClubUpdate             Action = "club.update"
	ClubViewMembers        Action = "club.viewMembers"
	ClubViewPayments       Action = "club.viewPayments"
	EventCreate            Action = "event.create"
	EventUpdate            Action = "event.update"
	EventDelete            Action = "event.delete"
	EventViewRegistrations Action = "event.viewRegistrations"

	ClubDelete          Action = "club.delete"
	MembershipSetStatus Action = "membership.setStatus"

	RegistrationCancel Action = "registration.cancel"
)

// Actor is the authenticated caller
type Actor struct {
	Email string
	Role  models.Role
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Resource describes the target of an action.
// OwnerEmail is the managing user of the club involved; SubjectEmail is the
// user a record belongs to (a registrant, or the user whose role changes).
type Resource struct {
	OwnerEmail   string
	SubjectEmail string
}

type rule int

const (
	adminOnly rule = iota
	ownerOnly
	ownerOrAdmin
	subjectOnly
)

var rules = map[Action]struct {
	rule    rule
	message string
}{
	ClubReview:      {adminOnly, adminRequired},
	ClubListPending: {adminOnly, adminRequired},
	UserList:        {adminOnly, adminRequired},
	UserSetRole:     {adminOnly, adminRequired},
	PaymentListAll:  {adminOnly, adminRequired},
	StatsView:       {adminOnly, adminRequired},
	AuditView:       {adminOnly, adminRequired},

	ClubUpdate:             {ownerOnly, "You can only update your own clubs"},
	ClubViewMembers:        {ownerOnly, "You can only view members of your own clubs"},
	ClubViewPayments:       {ownerOnly, "You can only view payments for your own clubs"},
	EventCreate:            {ownerOnly, "You can only create events for your own clubs"},
	EventUpdate:            {ownerOnly, "You can only update your own events"},
	EventDelete:            {ownerOnly, "You can only delete your own events"},
	EventViewRegistrations: {ownerOnly, "You can only view registrations for your own events"},

	ClubDelete:          {ownerOrAdmin, "You can only delete your own clubs"},
	MembershipSetStatus: {ownerOrAdmin, "You can only manage memberships of your own clubs"},

	RegistrationCancel: {subjectOnly, "You can only cancel your own registrations"},
}

const adminRequired = "Access denied. Admin role required."

// Evaluate returns nil when actor may perform action on resource
func Evaluate(actor Actor, action Action, resource Resource) error {
	r, ok := rules[action]
	if !ok || actor.Email == "" {
		return errorz.New(errorz.Forbidden, "Access denied")
	}

	var allowed bool
	switch r.rule {
	case adminOnly:
		allowed = actor.IsAdmin()
	case ownerOnly:
		allowed = actor.Email == resource.OwnerEmail
	case ownerOrAdmin:
		allowed = actor.IsAdmin() || actor.Email == resource.OwnerEmail
	case subjectOnly:
		allowed = actor.Email == resource.SubjectEmail
	}
	if !allowed {
		return errorz.New(errorz.Forbidden, r.message)
	}

	if action == UserSetRole && actor.Email == resource.SubjectEmail {
		return errorz.New(errorz.Forbidden, "Cannot change your own role")
	}
	return nil
}
