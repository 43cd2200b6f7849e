package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ticketflow/internal/models"
	"ticketflow/internal/repository"
)

// Unassigned is the form value that clears a ticket's assignee.
const Unassigned = "unassigned"

// TicketInput is the create/edit form. Empty priority and category fall back to
// medium and general; an empty income is zero.
type TicketInput struct {
	Title       string
	Description string
	Status      string // edit only
	Priority    string
	Category    string
	AssignedTo  string
	Income      string
}

// TicketPatch is a partial edit. A nil field keeps the ticket's current value;
// an empty Description or AssignedTo clears it.
type TicketPatch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	Category    *string
	AssignedTo  *string
	Income      *string
}

// over lays the patch on t's current values.
func (p TicketPatch) over(t models.Ticket) TicketInput {
	in := TicketInput{
		Title:    t.Title,
		Priority: string(t.Priority),
		Category: string(t.Category),
		Income:   strconv.FormatFloat(t.Income, 'f', -1, 64),
	}
	if t.Description != nil {
		in.Description = *t.Description
	}
	if t.AssignedTo != nil {
		in.AssignedTo = *t.AssignedTo
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&in.Title, p.Title)
	set(&in.Description, p.Description)
	set(&in.Status, p.Status)
	set(&in.Priority, p.Priority)
	set(&in.Category, p.Category)
	set(&in.AssignedTo, p.AssignedTo)
	set(&in.Income, p.Income)
	return in
}

type TicketService struct {
	tickets  repository.TicketRepository
	comments repository.CommentRepository
	profiles repository.ProfileRepository
	log      zerolog.Logger
}

func NewTicketService(tickets repository.TicketRepository, comments repository.CommentRepository, profiles repository.ProfileRepository, log zerolog.Logger) *TicketService {
	return &TicketService{tickets: tickets, comments: comments, profiles: profiles, log: log}
}

// List returns every ticket for admins and the assigned ones for everyone else.
func (s *TicketService) List(ctx context.Context, actor models.Profile) ([]models.Ticket, error) {
	scope := repository.AllTickets
	if !actor.IsAdmin() {
		scope = repository.AssignedTo(actor.ID)
	}
	return s.tickets.List(ctx, scope)
}

// Get hides tickets outside the actor's scope behind ErrNotFound.
func (s *TicketService) Get(ctx context.Context, actor models.Profile, id string) (*models.Ticket, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	t, err := s.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, *t) {
		return nil, ErrNotFound
	}
	return t, nil
}

// TicketDetail backs the ticket detail page.
type TicketDetail struct {
	Ticket   models.Ticket    `json:"ticket"`
	Comments []models.Comment `json:"comments"`
	Actions  TicketActions    `json:"actions"`
	Team     []models.Profile `json:"team,omitempty"` // reassignment candidates, admin only
}

func (s *TicketService) Detail(ctx context.Context, actor models.Profile, id string) (*TicketDetail, error) {
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	d := &TicketDetail{Ticket: *t, Comments: comments, Actions: ActionsFor(actor, *t)}
	if actor.IsAdmin() {
		if d.Team, err = s.profiles.List(ctx, repository.ByName); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// MaxIncome is the largest amount the income column (NUMERIC(12,2)) holds.
const MaxIncome = 9999999999.99

// ParseIncome reads a form amount. Empty means zero; the result is clamped.
func ParseIncome(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, invalid("Income must be a number")
	}
	v = models.ClampIncome(v)
	if v > MaxIncome {
		return 0, invalid("Income must be at most 9999999999.99")
	}
	return v, nil
}

func (s *TicketService) resolveAssignee(ctx context.Context, raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == Unassigned {
		return nil, nil
	}
	if _, err := uuid.Parse(raw); err != nil {
		return nil, invalid("Assignee does not exist")
	}
	p, err := s.profiles.GetByID(ctx, raw)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalid("Assignee does not exist")
		}
		return nil, err
	}
	return &p.ID, nil
}

// apply copies the form fields shared by create and edit onto t.
func (s *TicketService) apply(ctx context.Context, t *models.Ticket, in TicketInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return invalid("Title is required")
	}
	t.Title = title

	t.Description = nil
	if d := strings.TrimSpace(in.Description); d != "" {
		t.Description = &d
	}

	t.Priority = models.PriorityMedium
	if strings.TrimSpace(in.Priority) != "" {
		p, err := models.ParsePriority(in.Priority)
		if err != nil {
			return invalid("Unknown priority %q", in.Priority)
		}
		t.Priority = p
	}

	t.Category = models.CategoryGeneral
	if strings.TrimSpace(in.Category) != "" {
		c, err := models.ParseCategory(in.Category)
		if err != nil {
			return invalid("Unknown category %q", in.Category)
		}
		t.Category = c
	}

	income, err := ParseIncome(in.Income)
	if err != nil {
		return err
	}
	t.Income = income

	t.AssignedTo, err = s.resolveAssignee(ctx, in.AssignedTo)
	return err
}

func (s *TicketService) Create(ctx context.Context, actor models.Profile, in TicketInput) (*models.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	t := &models.Ticket{Status: models.StatusOpen, CreatedBy: actor.ID}
	if err := s.apply(ctx, t, in); err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info().Str("ticket", t.ID).Str("by", actor.ID).Msg("ticket created")
	return s.tickets.Get(ctx, t.ID)
}

// Update applies the fields present in p. A status change must follow the
// transition table.
func (s *TicketService) Update(ctx context.Context, actor models.Profile, id string, p TicketPatch) (*models.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in := p.over(*t)
	if strings.TrimSpace(in.Status) != "" {
		next, err := models.ParseStatus(in.Status)
		if err != nil {
			return nil, invalid("Unknown status %q", in.Status)
		}
		if next != t.Status && !CanTransition(t.Status, next, actor.Role) {
			return nil, invalid("Cannot move a ticket from %s to %s", t.Status.Label(), next.Label())
		}
		t.Status = next
	}
	if err := s.apply(ctx, t, in); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info().Str("ticket", t.ID).Str("by", actor.ID).Msg("ticket updated")
	return s.tickets.Get(ctx, t.ID)
}

func (s *TicketService) Delete(ctx context.Context, actor models.Profile, id string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("ticket", id).Str("by", actor.ID).Msg("ticket deleted")
	return nil
}

// ChangeStatus applies one step of the transition table on behalf of actor.
func (s *TicketService) ChangeStatus(ctx context.Context, actor models.Profile, id, status string) (*models.Ticket, error) {
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	next, err := models.ParseStatus(status)
	if err != nil {
		return nil, invalid("Unknown status %q", status)
	}
	if !CanTransition(t.Status, next, actor.Role) {
		return nil, invalid("Cannot move a ticket from %s to %s", t.Status.Label(), next.Label())
	}
	if err := s.tickets.UpdateStatus(ctx, t.ID, next); err != nil {
		return nil, err
	}
	s.log.Info().Str("ticket", t.ID).Str("from", string(t.Status)).Str("to", string(next)).Msg("ticket status changed")
	return s.tickets.Get(ctx, t.ID)
}

// Reassign sets or clears the assignee. Admin only.
func (s *TicketService) Reassign(ctx context.Context, actor models.Profile, id, assignee string) (*models.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	to, err := s.resolveAssignee(ctx, assignee)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.UpdateAssignee(ctx, t.ID, to); err != nil {
		return nil, err
	}
	return s.tickets.Get(ctx, t.ID)
}

// AddComment posts content as actor. Anyone who can see the ticket may comment.
func (s *TicketService) AddComment(ctx context.Context, actor models.Profile, ticketID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("Comment cannot be empty")
	}
	t, err := s.Get(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	c := &models.Comment{TicketID: t.ID, UserID: actor.ID, Content: content}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	author := actor
	c.User = &author
	return c, nil
}
