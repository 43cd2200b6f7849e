package repository

// TicketScope narrows what the store returns before any in-memory filtering.
// Tickets always come back newest first.
type TicketScope struct {
	AssignedTo string // empty = every ticket
}

// AllTickets is the admin scope.
var AllTickets = TicketScope{}

// AssignedTo scopes a listing to one profile's assignments.
func AssignedTo(profileID string) TicketScope {
	return TicketScope{AssignedTo: profileID}
}
