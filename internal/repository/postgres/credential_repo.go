package postgres

import (
	"context"
	"errors"
	"fmt"

	"ticketflow/internal/models"
	"ticketflow/internal/repository"
	"ticketflow/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CredentialRepo backs the self-hosted identity provider.
type CredentialRepo struct{ db *pgxpool.Pool }

func NewCredentialRepo(db *pgxpool.Pool) *CredentialRepo { return &CredentialRepo{db: db} }

var _ repository.CredentialRepository = (*CredentialRepo)(nil)

func (r *CredentialRepo) Create(ctx context.Context, c *models.Credential) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO auth_identities (id, email, password_hash, confirmation_token, confirmed_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		c.ID, c.Email, c.PasswordHash, c.ConfirmationToken, c.ConfirmedAt,
	).Scan(&c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("identity %s already exists: %w", c.Email, service.ErrConflict)
		}
		return fmt.Errorf("CredentialRepo.Create: %w", err)
	}
	return nil
}

func (r *CredentialRepo) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var c models.Credential
	err := r.db.QueryRow(ctx, `
		SELECT id::text, email, password_hash, confirmation_token, confirmed_at, created_at
		FROM auth_identities WHERE lower(email) = lower($1)`, email).
		Scan(&c.ID, &c.Email, &c.PasswordHash, &c.ConfirmationToken, &c.ConfirmedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("CredentialRepo.GetByEmail: %w", err)
	}
	return &c, nil
}

// Confirm consumes a confirmation token.
func (r *CredentialRepo) Confirm(ctx context.Context, token string) (*models.Credential, error) {
	var c models.Credential
	err := r.db.QueryRow(ctx, `
		UPDATE auth_identities
		SET confirmed_at=now(), confirmation_token=NULL
		WHERE confirmation_token=$1
		RETURNING id::text, email, password_hash, confirmation_token, confirmed_at, created_at`, token).
		Scan(&c.ID, &c.Email, &c.PasswordHash, &c.ConfirmationToken, &c.ConfirmedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("CredentialRepo.Confirm: %w", err)
	}
	return &c, nil
}
