package service

import "ticketflow/internal/models"

// AllowedTransitions returns the statuses a profile with the given role may
// move a ticket to from the current status. Forward steps come first, then
// close, then reopen.
//
//	open        -> in_progress          any role with access
//	in_progress -> completed            any role with access
//	!closed     -> closed               admin
//	closed      -> open                 admin
//	in_progress,
//	completed   -> open                 admin
func AllowedTransitions(current models.Status, role models.Role) []models.Status {
	var next []models.Status
	switch current {
	case models.StatusOpen:
		next = append(next, models.StatusInProgress)
	case models.StatusInProgress:
		next = append(next, models.StatusCompleted)
	}
	if role != models.RoleAdmin {
		return next
	}
	if current != models.StatusClosed {
		next = append(next, models.StatusClosed)
	}
	switch current {
	case models.StatusClosed, models.StatusInProgress, models.StatusCompleted:
		next = append(next, models.StatusOpen)
	}
	return next
}

// CanTransition reports whether from -> to is offered to role.
func CanTransition(from, to models.Status, role models.Role) bool {
	for _, s := range AllowedTransitions(from, role) {
		if s == to {
			return true
		}
	}
	return false
}

// Transition is one entry of the status action surface.
type Transition struct {
	Status models.Status `json:"status"`
	Label  string        `json:"label"`
	Action string        `json:"action"`
}

var actionNames = map[models.Status]string{
	models.StatusInProgress: "Start Working",
	models.StatusCompleted:  "Mark Completed",
	models.StatusClosed:     "Close Ticket",
	models.StatusOpen:       "Reopen",
}

// TicketActions is what the ticket detail view may offer to a profile.
type TicketActions struct {
	Transitions []Transition `json:"transitions"`
	CanEdit     bool         `json:"canEdit"`
	CanDelete   bool         `json:"canDelete"`
	CanReassign bool         `json:"canReassign"`
	CanComment  bool         `json:"canComment"`
}

// ActionsFor builds the action surface of t for p. A profile without access to
// the ticket gets no actions at all.
func ActionsFor(p models.Profile, t models.Ticket) TicketActions {
	if !CanView(p, t) {
		return TicketActions{Transitions: []Transition{}}
	}
	next := AllowedTransitions(t.Status, p.Role)
	tr := make([]Transition, 0, len(next))
	for _, s := range next {
		tr = append(tr, Transition{Status: s, Label: s.Label(), Action: actionNames[s]})
	}
	admin := p.IsAdmin()
	return TicketActions{
		Transitions: tr,
		CanEdit:     admin,
		CanDelete:   admin,
		CanReassign: admin,
		CanComment:  true,
	}
}

// CanView reports whether p may see t: admins see everything, everyone else
// only what is assigned to them.
func CanView(p models.Profile, t models.Ticket) bool {
	return p.IsAdmin() || t.IsAssignedTo(p.ID)
}
