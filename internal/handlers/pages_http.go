package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ticketflow/internal/models"
	"ticketflow/internal/service"
	"ticketflow/internal/utils"
)

const previewSize = 5

// PagesHTTP serves the view models of the dashboard pages.
type PagesHTTP struct {
	tickets *service.TicketService
	team    *service.TeamService
	loc     *time.Location
	log     zerolog.Logger
}

func NewPagesHTTP(tickets *service.TicketService, team *service.TeamService, loc *time.Location, log zerolog.Logger) *PagesHTTP {
	return &PagesHTTP{tickets: tickets, team: team, loc: loc, log: log}
}

// page answers an unexpected load failure the way every page does.
func (h *PagesHTTP) page(w http.ResponseWriter, err error, what string) {
	status := utils.StatusFromError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg(what)
	}
	utils.Error(w, status, utils.PublicMessage(err, "Failed to load "+what))
}

type formOptions struct {
	Statuses   []option `json:"statuses"`
	Priorities []option `json:"priorities"`
	Categories []option `json:"categories"`
	Assignees  []option `json:"assignees"`
}

func (h *PagesHTTP) formOptions(r *http.Request) (formOptions, error) {
	team, err := h.team.Assignable(r.Context())
	if err != nil {
		return formOptions{}, err
	}
	o := formOptions{Assignees: []option{{Value: service.Unassigned, Label: "Unassigned"}}}
	for _, p := range team {
		o.Assignees = append(o.Assignees, option{Value: p.ID, Label: p.DisplayName()})
	}
	for _, s := range models.Statuses {
		o.Statuses = append(o.Statuses, option{Value: string(s), Label: s.Label()})
	}
	for _, p := range models.Priorities {
		o.Priorities = append(o.Priorities, option{Value: string(p), Label: p.Label()})
	}
	for _, c := range models.Categories {
		o.Categories = append(o.Categories, option{Value: string(c), Label: c.Label()})
	}
	return o, nil
}

// -----------------------------------------------------------------------------
// GET /dashboard
// -----------------------------------------------------------------------------
func (h *PagesHTTP) Dashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me := actor(r)
		tickets, err := h.tickets.List(r.Context(), me)
		if err != nil {
			h.page(w, err, "dashboard")
			return
		}

		title, subtitle := me.Role.Label()+" Dashboard", "Your assigned tickets and activity"
		if me.IsAdmin() {
			title, subtitle = "Admin Dashboard", "Overview of all tickets and team activity"
		}

		n := utils.QueryInt(r.URL.Query(), "recent", previewSize, 1, 20)
		recent := tickets
		if len(recent) > n {
			recent = recent[:n]
		}

		out := map[string]any{
			"page":          "dashboard",
			"profile":       me,
			"title":         title,
			"subtitle":      subtitle,
			"stats":         service.Aggregate(tickets),
			"recentTickets": recent,
			"emptyTickets":  "No tickets yet",
		}
		if me.IsAdmin() {
			members, err := h.team.Recent(r.Context(), previewSize)
			if err != nil {
				h.page(w, err, "dashboard")
				return
			}
			out["teamMembers"] = members
			out["emptyTeam"] = "No team members yet"
		}
		utils.JSON(w, http.StatusOK, out)
	}
}

// filtered loads the actor's tickets and applies the query string criteria.
func (h *PagesHTTP) filtered(r *http.Request) ([]models.Ticket, service.TicketFilter, error) {
	f, err := service.ParseTicketFilter(r.URL.Query())
	if err != nil {
		return nil, f, err
	}
	all, err := h.tickets.List(r.Context(), actor(r))
	if err != nil {
		return nil, f, err
	}
	return service.FilterTickets(all, f, h.loc), f, nil
}

type criteria struct {
	Query    string `json:"q"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Active   bool   `json:"active"`
}

func echo(f service.TicketFilter) criteria {
	c := criteria{Query: f.Query, Status: f.Status, Priority: f.Priority, Active: f.Active()}
	if f.From != nil {
		c.From = f.From.Format(time.DateOnly)
	}
	if f.To != nil {
		c.To = f.To.Format(time.DateOnly)
	}
	return c
}

// -----------------------------------------------------------------------------
// GET /dashboard/tickets?q=&status=&priority=&from=&to=
// -----------------------------------------------------------------------------
func (h *PagesHTTP) Tickets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me := actor(r)
		tickets, f, err := h.filtered(r)
		if err != nil {
			h.page(w, err, "tickets")
			return
		}
		subtitle := "Your assigned tickets"
		if me.IsAdmin() {
			subtitle = "Manage all tickets"
		}
		utils.JSON(w, http.StatusOK, map[string]any{
			"page":      "tickets",
			"title":     "Tickets",
			"subtitle":  subtitle,
			"canCreate": me.IsAdmin(),
			"criteria":  echo(f),
			"tickets":   tickets,
			"count":     len(tickets),
			"empty":     "No tickets found",
		})
	}
}

// -----------------------------------------------------------------------------
// GET /dashboard/tickets/new
// -----------------------------------------------------------------------------
func (h *PagesHTTP) NewTicket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := h.formOptions(r)
		if err != nil {
			h.page(w, err, "ticket form")
			return
		}
		utils.JSON(w, http.StatusOK, map[string]any{
			"page":    "ticket-new",
			"title":   "Create Ticket",
			"options": opts,
			"defaults": map[string]string{
				"priority":   string(models.PriorityMedium),
				"category":   string(models.CategoryGeneral),
				"assignedTo": service.Unassigned,
			},
		})
	}
}

// -----------------------------------------------------------------------------
// GET /dashboard/tickets/{id}
// -----------------------------------------------------------------------------
func (h *PagesHTTP) Ticket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := h.tickets.Detail(r.Context(), actor(r), chi.URLParam(r, "id"))
		if err != nil {
			h.page(w, err, "ticket")
			return
		}
		utils.JSON(w, http.StatusOK, map[string]any{
			"page":   "ticket",
			"detail": d,
		})
	}
}

// -----------------------------------------------------------------------------
// GET /dashboard/tickets/{id}/edit
// -----------------------------------------------------------------------------
func (h *PagesHTTP) EditTicket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.tickets.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
		if err != nil {
			h.page(w, err, "ticket")
			return
		}
		opts, err := h.formOptions(r)
		if err != nil {
			h.page(w, err, "ticket form")
			return
		}
		// only statuses reachable from the current one are offered
		statuses := []option{{Value: string(t.Status), Label: t.Status.Label()}}
		for _, s := range service.AllowedTransitions(t.Status, models.RoleAdmin) {
			statuses = append(statuses, option{Value: string(s), Label: s.Label()})
		}
		opts.Statuses = statuses
		utils.JSON(w, http.StatusOK, map[string]any{
			"page":    "ticket-edit",
			"title":   "Edit Ticket",
			"ticket":  t,
			"options": opts,
		})
	}
}

// -----------------------------------------------------------------------------
// GET /dashboard/team
// -----------------------------------------------------------------------------
func (h *PagesHTTP) Team() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		team, err := h.team.Overview(r.Context(), actor(r))
		if err != nil {
			h.page(w, err, "team")
			return
		}
		roles := make([]option, 0, len(models.Roles))
		for _, role := range models.Roles {
			roles = append(roles, option{Value: string(role), Label: role.Label()})
		}
		utils.JSON(w, http.StatusOK, map[string]any{
			"page":       "team",
			"title":      "Team Management",
			"subtitle":   "Manage team members and their roles",
			"members":    team.Members,
			"roleCounts": team.RoleCounts,
			"roles":      roles,
			"empty":      "No team members yet",
		})
	}
}
