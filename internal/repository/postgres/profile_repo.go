package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketflow/internal/models"
	"ticketflow/internal/repository"
	"ticketflow/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileRepo struct{ db *pgxpool.Pool }

func NewProfileRepo(db *pgxpool.Pool) *ProfileRepo { return &ProfileRepo{db: db} }

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

const profileSelect = `SELECT p.id::text, p.email, p.full_name, p.role, p.created_at, p.updated_at FROM profiles p`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	if err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts the profile, or refreshes email/name if the identity signed up again
// before confirming.
func (r *ProfileRepo) Create(ctx context.Context, p *models.Profile) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO profiles (id, email, full_name, role)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET email=EXCLUDED.email, full_name=EXCLUDED.full_name, updated_at=now()
		RETURNING role, created_at, updated_at`,
		p.ID, p.Email, p.FullName, p.Role,
	).Scan(&p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ProfileRepo.Create: %w", err)
	}
	return nil
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, profileSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("ProfileRepo.GetByID: %w", err)
	}
	return p, nil
}

func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, profileSelect+` WHERE lower(p.email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("ProfileRepo.GetByEmail: %w", err)
	}
	return p, nil
}

func (r *ProfileRepo) List(ctx context.Context, order repository.ProfileOrder) ([]models.Profile, error) {
	rows, err := r.db.Query(ctx, profileListQuery(order))
	if err != nil {
		return nil, fmt.Errorf("ProfileRepo.List: %w", err)
	}
	defer rows.Close()

	out := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("ProfileRepo.List: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func profileListQuery(order repository.ProfileOrder) string {
	if order == repository.ByName {
		return profileSelect + ` ORDER BY p.full_name ASC NULLS LAST, p.email ASC`
	}
	return profileSelect + ` ORDER BY p.created_at DESC`
}

func (r *ProfileRepo) UpdateRole(ctx context.Context, id string, role models.Role) (*models.Profile, error) {
	var p models.Profile
	err := r.db.QueryRow(ctx, `
		UPDATE profiles
		SET role=$1, updated_at=now()
		WHERE id=$2
		RETURNING id::text, email, full_name, role, created_at, updated_at
	`, role, id).Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("ProfileRepo.UpdateRole: %w", err)
	}
	return &p, nil
}

// -----------------------------------------------------------------------------
// Joined profile columns (LEFT JOIN, every column may be NULL)
// -----------------------------------------------------------------------------

func profileCols(alias string) string {
	return alias + ".id::text, " + alias + ".email, " + alias + ".full_name, " + alias + ".role, " +
		alias + ".created_at, " + alias + ".updated_at"
}

type nullableProfile struct {
	id, email, fullName, role *string
	createdAt, updatedAt      *time.Time
}

func (n *nullableProfile) dest() []any {
	return []any{&n.id, &n.email, &n.fullName, &n.role, &n.createdAt, &n.updatedAt}
}

func (n *nullableProfile) profile() *models.Profile {
	if n.id == nil {
		return nil
	}
	p := &models.Profile{ID: *n.id, FullName: n.fullName}
	if n.email != nil {
		p.Email = *n.email
	}
	if n.role != nil {
		p.Role = models.Role(*n.role)
	}
	if n.createdAt != nil {
		p.CreatedAt = *n.createdAt
	}
	if n.updatedAt != nil {
		p.UpdatedAt = *n.updatedAt
	}
	return p
}
