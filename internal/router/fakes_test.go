package router_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ticketflow/internal/identity"
	"ticketflow/internal/models"
	"ticketflow/internal/repository"
	"ticketflow/internal/service"
)

// store backs every repository of the test server.
type store struct {
	mu       sync.Mutex
	tickets  map[string]models.Ticket
	comments []models.Comment
	profiles map[string]models.Profile
	clock    time.Time
}

func newStore() *store {
	return &store{
		tickets:  map[string]models.Ticket{},
		profiles: map[string]models.Profile{},
		clock:    time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
	}
}

func (s *store) tick() time.Time {
	s.clock = s.clock.Add(time.Hour)
	return s.clock
}

func (s *store) join(t models.Ticket) models.Ticket {
	if t.AssignedTo != nil {
		if p, ok := s.profiles[*t.AssignedTo]; ok {
			t.Assignee = &p
		}
	}
	if p, ok := s.profiles[t.CreatedBy]; ok {
		t.Creator = &p
	}
	return t
}

type tickets struct{ *store }

func (r tickets) List(_ context.Context, scope repository.TicketScope) ([]models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Ticket
	for _, t := range r.tickets {
		if scope.AssignedTo != "" && !t.IsAssignedTo(scope.AssignedTo) {
			continue
		}
		out = append(out, r.join(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r tickets) Get(_ context.Context, id string) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	t = r.join(t)
	return &t, nil
}

func (r tickets) Create(_ context.Context, t *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = r.tick()
	t.UpdatedAt = t.CreatedAt
	r.tickets[t.ID] = *t
	return nil
}

func (r tickets) Update(_ context.Context, t *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[t.ID]; !ok {
		return service.ErrNotFound
	}
	cp := *t
	cp.Assignee, cp.Creator = nil, nil
	cp.UpdatedAt = r.tick()
	r.tickets[t.ID] = cp
	return nil
}

func (r tickets) UpdateStatus(_ context.Context, id string, status models.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return service.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = r.tick()
	r.tickets[id] = t
	return nil
}

func (r tickets) UpdateAssignee(_ context.Context, id string, assignee *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return service.ErrNotFound
	}
	t.AssignedTo = assignee
	r.tickets[id] = t
	return nil
}

func (r tickets) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return service.ErrNotFound
	}
	delete(r.tickets, id)
	return nil
}

type comments struct{ *store }

func (r comments) ListByTicket(_ context.Context, ticketID string) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Comment
	for _, c := range r.comments {
		if c.TicketID == ticketID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r comments) Create(_ context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = r.tick()
	r.comments = append(r.comments, *c)
	return nil
}

type profiles struct{ *store }

func (r profiles) Create(_ context.Context, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.CreatedAt = r.tick()
	r.profiles[p.ID] = *p
	return nil
}

func (r profiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &p, nil
}

func (r profiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, service.ErrNotFound
}

func (r profiles) List(_ context.Context, order repository.ProfileOrder) ([]models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	if order == repository.ByName {
		sort.Slice(out, func(i, j int) bool { return out[i].DisplayName() < out[j].DisplayName() })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out, nil
}

func (r profiles) UpdateRole(_ context.Context, id string, role models.Role) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	p.Role = role
	r.profiles[id] = p
	return &p, nil
}

// provider accepts "<email>"/"secret" and hands out "tok-<email>" tokens.
type provider struct {
	st *store
}

func (p provider) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	if password != "secret" {
		return nil, identity.NewError(identity.KindInvalidCredentials, "invalid login credentials")
	}
	prof, err := profiles{p.st}.GetByEmail(ctx, email)
	if err != nil {
		return nil, identity.NewError(identity.KindInvalidCredentials, "invalid login credentials")
	}
	return &identity.Session{
		Identity:  identity.Identity{ID: prof.ID, Email: prof.Email},
		Token:     "tok-" + prof.Email,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (p provider) SignUp(ctx context.Context, req identity.SignUpRequest) (*identity.SignUpResult, error) {
	if _, err := (profiles{p.st}).GetByEmail(ctx, req.Email); err == nil {
		return nil, identity.NewError(identity.KindAlreadyRegistered, "user already registered")
	}
	return &identity.SignUpResult{
		Identity:             identity.Identity{ID: uuid.NewString(), Email: req.Email},
		ConfirmationRequired: true,
	}, nil
}

func (p provider) SignOut(context.Context, string) error { return nil }

func (p provider) Identify(ctx context.Context, token string) (*identity.Identity, error) {
	email, ok := strings.CutPrefix(token, "tok-")
	if !ok {
		return nil, identity.NewError(identity.KindInvalidToken, "bad token")
	}
	prof, err := profiles{p.st}.GetByEmail(ctx, email)
	if err != nil {
		return nil, identity.NewError(identity.KindInvalidToken, "bad token")
	}
	return &identity.Identity{ID: prof.ID, Email: prof.Email}, nil
}

func (p provider) Confirm(_ context.Context, token string) (*identity.Identity, error) {
	if token != "good" {
		return nil, identity.NewError(identity.KindInvalidToken, "Token has expired or is invalid")
	}
	return &identity.Identity{ID: uuid.NewString()}, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

var errDown = errors.New("connection refused")
