package service_test

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"ticketflow/internal/identity"
	"ticketflow/internal/models"
	"ticketflow/internal/repository"
	"ticketflow/internal/service"
)

type memStore struct {
	tickets  map[string]*models.Ticket
	comments []models.Comment
	profiles map[string]*models.Profile
	clock    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		tickets:  map[string]*models.Ticket{},
		profiles: map[string]*models.Profile{},
		clock:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memStore) addProfile(email string, role models.Role) models.Profile {
	p := &models.Profile{ID: uuid.NewString(), Email: email, Role: role, CreatedAt: m.tick()}
	m.profiles[p.ID] = p
	return *p
}

func (m *memStore) addTicket(title string, status models.Status, assignee *models.Profile) models.Ticket {
	t := &models.Ticket{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    status,
		Priority:  models.PriorityMedium,
		Category:  models.CategoryGeneral,
		CreatedAt: m.tick(),
	}
	if assignee != nil {
		t.AssignedTo = &assignee.ID
	}
	m.tickets[t.ID] = t
	return *t
}

// tickets

type ticketRepo struct{ *memStore }

func (r ticketRepo) join(t models.Ticket) models.Ticket {
	if t.AssignedTo != nil {
		if p, ok := r.profiles[*t.AssignedTo]; ok {
			cp := *p
			t.Assignee = &cp
		}
	}
	if p, ok := r.profiles[t.CreatedBy]; ok {
		cp := *p
		t.Creator = &cp
	}
	return t
}

func (r ticketRepo) List(_ context.Context, scope repository.TicketScope) ([]models.Ticket, error) {
	var out []models.Ticket
	for _, t := range r.tickets {
		if scope.AssignedTo != "" && !t.IsAssignedTo(scope.AssignedTo) {
			continue
		}
		out = append(out, r.join(*t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r ticketRepo) Get(_ context.Context, id string) (*models.Ticket, error) {
	t, ok := r.tickets[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	j := r.join(*t)
	return &j, nil
}

func (r ticketRepo) Create(_ context.Context, t *models.Ticket) error {
	t.ID = uuid.NewString()
	t.CreatedAt = r.tick()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	r.tickets[t.ID] = &cp
	return nil
}

func (r ticketRepo) Update(_ context.Context, t *models.Ticket) error {
	if _, ok := r.tickets[t.ID]; !ok {
		return service.ErrNotFound
	}
	t.UpdatedAt = r.tick()
	cp := *t
	cp.Assignee, cp.Creator = nil, nil
	r.tickets[t.ID] = &cp
	return nil
}

func (r ticketRepo) UpdateStatus(_ context.Context, id string, status models.Status) error {
	t, ok := r.tickets[id]
	if !ok {
		return service.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = r.tick()
	return nil
}

func (r ticketRepo) UpdateAssignee(_ context.Context, id string, assignee *string) error {
	t, ok := r.tickets[id]
	if !ok {
		return service.ErrNotFound
	}
	t.AssignedTo = assignee
	t.UpdatedAt = r.tick()
	return nil
}

func (r ticketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return service.ErrNotFound
	}
	delete(r.tickets, id)
	return nil
}

// comments

type commentRepo struct{ *memStore }

func (r commentRepo) ListByTicket(_ context.Context, ticketID string) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range r.comments {
		if c.TicketID == ticketID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r commentRepo) Create(_ context.Context, c *models.Comment) error {
	c.ID = uuid.NewString()
	c.CreatedAt = r.tick()
	r.comments = append(r.comments, *c)
	return nil
}

// profiles

type profileRepo struct{ *memStore }

func (r profileRepo) Create(_ context.Context, p *models.Profile) error {
	p.CreatedAt = r.tick()
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r profileRepo) GetByID(_ context.Context, id string) (*models.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r profileRepo) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	for _, p := range r.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, service.ErrNotFound
}

func (r profileRepo) List(_ context.Context, order repository.ProfileOrder) ([]models.Profile, error) {
	out := make([]models.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	switch order {
	case repository.ByName:
		sort.Slice(out, func(i, j int) bool { return out[i].DisplayName() < out[j].DisplayName() })
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out, nil
}

func (r profileRepo) UpdateRole(_ context.Context, id string, role models.Role) (*models.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	p.Role = role
	cp := *p
	return &cp, nil
}

// identity

type fakeProvider struct {
	signInErr error
	signUpErr error
	signedUp  []identity.SignUpRequest
	tokens    map[string]identity.Identity
	signedOut []string
}

func (f *fakeProvider) SignIn(_ context.Context, email, _ string) (*identity.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	for tok, id := range f.tokens {
		if id.Email == email {
			return &identity.Session{Identity: id, Token: tok}, nil
		}
	}
	return nil, identity.NewError(identity.KindInvalidCredentials, "invalid login credentials")
}

func (f *fakeProvider) SignUp(_ context.Context, req identity.SignUpRequest) (*identity.SignUpResult, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	f.signedUp = append(f.signedUp, req)
	return &identity.SignUpResult{
		Identity:             identity.Identity{ID: uuid.NewString(), Email: req.Email},
		ConfirmationRequired: true,
	}, nil
}

func (f *fakeProvider) SignOut(_ context.Context, token string) error {
	f.signedOut = append(f.signedOut, token)
	return nil
}

func (f *fakeProvider) Identify(_ context.Context, token string) (*identity.Identity, error) {
	id, ok := f.tokens[token]
	if !ok {
		return nil, identity.NewError(identity.KindInvalidToken, "bad token")
	}
	return &id, nil
}

func (f *fakeProvider) Confirm(_ context.Context, token string) (*identity.Identity, error) {
	return f.Identify(context.Background(), token)
}
