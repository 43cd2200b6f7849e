package service

import (
	"net/url"
	"strings"
	"time"

	"ticketflow/internal/models"
)

// FilterAll disables the status or priority predicate.
const FilterAll = "all"

const dateLayout = "2006-01-02"

// TicketFilter is the criteria set of the ticket list page.
// From and To are calendar days; only their date part is used.
type TicketFilter struct {
	Query    string
	Status   string
	Priority string
	From     *time.Time
	To       *time.Time
}

func (f TicketFilter) statusActive() bool   { return f.Status != "" && f.Status != FilterAll }
func (f TicketFilter) priorityActive() bool { return f.Priority != "" && f.Priority != FilterAll }

// Active reports whether any predicate is set.
func (f TicketFilter) Active() bool {
	return f.Query != "" || f.statusActive() || f.priorityActive() || f.From != nil || f.To != nil
}

// FilterTickets returns the tickets matching every active predicate of f,
// keeping their input order. Day boundaries are computed in loc.
func FilterTickets(tickets []models.Ticket, f TicketFilter, loc *time.Location) []models.Ticket {
	if loc == nil {
		loc = time.UTC
	}
	q := strings.ToLower(f.Query)

	var start, end time.Time
	if f.From != nil {
		start = startOfDay(*f.From, loc)
	}
	if f.To != nil {
		end = endOfDay(*f.To, loc)
	}

	out := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if q != "" && !matchesText(t, q) {
			continue
		}
		if f.statusActive() && string(t.Status) != f.Status {
			continue
		}
		if f.priorityActive() && string(t.Priority) != f.Priority {
			continue
		}
		if f.From != nil && t.CreatedAt.Before(start) {
			continue
		}
		if f.To != nil && t.CreatedAt.After(end) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesText(t models.Ticket, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(t.Title), lowerQuery) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), lowerQuery)
}

func startOfDay(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func endOfDay(d time.Time, loc *time.Location) time.Time {
	return startOfDay(d, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// ParseTicketFilter reads q, status, priority, from and to from a query string.
func ParseTicketFilter(v url.Values) (TicketFilter, error) {
	f := TicketFilter{
		Query:    strings.TrimSpace(v.Get("q")),
		Status:   FilterAll,
		Priority: FilterAll,
	}

	if s := strings.TrimSpace(v.Get("status")); s != "" && s != FilterAll {
		st, err := models.ParseStatus(s)
		if err != nil {
			return f, invalid("invalid status filter %q", s)
		}
		f.Status = string(st)
	}
	if s := strings.TrimSpace(v.Get("priority")); s != "" && s != FilterAll {
		p, err := models.ParsePriority(s)
		if err != nil {
			return f, invalid("invalid priority filter %q", s)
		}
		f.Priority = string(p)
	}

	var err error
	if f.From, err = parseDay(v.Get("from")); err != nil {
		return f, invalid("invalid start date %q", v.Get("from"))
	}
	if f.To, err = parseDay(v.Get("to")); err != nil {
		return f, invalid("invalid end date %q", v.Get("to"))
	}
	return f, nil
}

func parseDay(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
