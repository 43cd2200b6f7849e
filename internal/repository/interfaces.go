package repository

import (
	"context"

	"ticketflow/internal/models"
)

// Lookups that find nothing return service.ErrNotFound.

type TicketRepository interface {
	List(ctx context.Context, scope TicketScope) ([]models.Ticket, error)
	Get(ctx context.Context, id string) (*models.Ticket, error)
	Create(ctx context.Context, t *models.Ticket) error
	Update(ctx context.Context, t *models.Ticket) error
	UpdateStatus(ctx context.Context, id string, status models.Status) error
	UpdateAssignee(ctx context.Context, id string, assignee *string) error
	Delete(ctx context.Context, id string) error
}

type CommentRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]models.Comment, error)
	Create(ctx context.Context, c *models.Comment) error
}

type ProfileRepository interface {
	Create(ctx context.Context, p *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	List(ctx context.Context, order ProfileOrder) ([]models.Profile, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.Profile, error)
}

type CredentialRepository interface {
	Create(ctx context.Context, c *models.Credential) error
	GetByEmail(ctx context.Context, email string) (*models.Credential, error)
	Confirm(ctx context.Context, token string) (*models.Credential, error)
}

type ProfileOrder int

const (
	// NewestFirst orders by creation time, descending.
	NewestFirst ProfileOrder = iota
	// ByName orders by full name, ascending, nameless profiles last.
	ByName
)
