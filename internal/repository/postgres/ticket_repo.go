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

type TicketRepo struct{ db *pgxpool.Pool }

func NewTicketRepo(db *pgxpool.Pool) *TicketRepo { return &TicketRepo{db: db} }

var _ repository.TicketRepository = (*TicketRepo)(nil)

// -----------------------------------------------------------------------------
// Reads (assignee + creator profiles joined)
// -----------------------------------------------------------------------------

var ticketSelect = `
	SELECT
		t.id::text, t.title, t.description, t.status, t.priority, t.category,
		t.assigned_to::text, t.created_by::text, t.income::float8, t.created_at, t.updated_at,
		` + profileCols("a") + `,
		` + profileCols("c") + `
	FROM tickets t
	LEFT JOIN profiles a ON a.id = t.assigned_to
	LEFT JOIN profiles c ON c.id = t.created_by`

// listQuery narrows the joined select to the scope, newest first.
func listQuery(scope repository.TicketScope) (string, []any) {
	sql := ticketSelect
	args := []any{}
	if scope.AssignedTo != "" {
		args = append(args, scope.AssignedTo)
		sql += ` WHERE t.assigned_to = $1`
	}
	return sql + ` ORDER BY t.created_at DESC`, args
}

func (r *TicketRepo) List(ctx context.Context, scope repository.TicketScope) ([]models.Ticket, error) {
	sql, args := listQuery(scope)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("TicketRepo.List: %w", err)
	}
	defer rows.Close()

	out := []models.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("TicketRepo.List: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TicketRepo) Get(ctx context.Context, id string) (*models.Ticket, error) {
	t, err := scanTicket(r.db.QueryRow(ctx, ticketSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("TicketRepo.Get: %w", err)
	}
	return t, nil
}

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var (
		t        models.Ticket
		assignee nullableProfile
		creator  nullableProfile
	)
	dest := []any{
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Category,
		&t.AssignedTo, &t.CreatedBy, &t.Income, &t.CreatedAt, &t.UpdatedAt,
	}
	dest = append(dest, assignee.dest()...)
	dest = append(dest, creator.dest()...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	t.Assignee = assignee.profile()
	t.Creator = creator.profile()
	return &t, nil
}

// -----------------------------------------------------------------------------
// Writes
// -----------------------------------------------------------------------------

func (r *TicketRepo) Create(ctx context.Context, t *models.Ticket) error {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO tickets (title, description, status, priority, category, assigned_to, created_by, income, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric,$9,$10)
		RETURNING id::text, created_at, updated_at
	`,
		t.Title, t.Description, t.Status, t.Priority, t.Category, t.AssignedTo, t.CreatedBy, t.Income, now, now,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("TicketRepo.Create: %w", err)
	}
	return nil
}

func (r *TicketRepo) Update(ctx context.Context, t *models.Ticket) error {
	t.UpdatedAt = time.Now()
	ct, err := r.db.Exec(ctx, `
		UPDATE tickets SET
			title=$1, description=$2, status=$3, priority=$4, category=$5, assigned_to=$6, income=$7::numeric, updated_at=$8
		WHERE id=$9
	`,
		t.Title, t.Description, t.Status, t.Priority, t.Category, t.AssignedTo, t.Income, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("TicketRepo.Update: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (r *TicketRepo) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	ct, err := r.db.Exec(ctx, `UPDATE tickets SET status=$1, updated_at=now() WHERE id=$2`, status, id)
	if err != nil {
		return fmt.Errorf("TicketRepo.UpdateStatus: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (r *TicketRepo) UpdateAssignee(ctx context.Context, id string, assignee *string) error {
	ct, err := r.db.Exec(ctx, `UPDATE tickets SET assigned_to=$1, updated_at=now() WHERE id=$2`, assignee, id)
	if err != nil {
		return fmt.Errorf("TicketRepo.UpdateAssignee: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (r *TicketRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("TicketRepo.Delete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}
