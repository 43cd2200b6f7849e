package postgres

import (
	"context"
	"fmt"

	"ticketflow/internal/models"
	"ticketflow/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CommentRepo struct{ db *pgxpool.Pool }

func NewCommentRepo(db *pgxpool.Pool) *CommentRepo { return &CommentRepo{db: db} }

var _ repository.CommentRepository = (*CommentRepo)(nil)

// ListByTicket returns the thread oldest first, with authors joined.
func (r *CommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]models.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id::text, c.ticket_id::text, c.user_id::text, c.content, c.created_at,
			`+profileCols("u")+`
		FROM ticket_comments c
		LEFT JOIN profiles u ON u.id = c.user_id
		WHERE c.ticket_id = $1
		ORDER BY c.created_at ASC
	`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("CommentRepo.ListByTicket: %w", err)
	}
	defer rows.Close()

	out := []models.Comment{}
	for rows.Next() {
		var (
			c      models.Comment
			author nullableProfile
		)
		dest := append([]any{&c.ID, &c.TicketID, &c.UserID, &c.Content, &c.CreatedAt}, author.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("CommentRepo.ListByTicket: %w", err)
		}
		c.User = author.profile()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CommentRepo) Create(ctx context.Context, c *models.Comment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO ticket_comments (ticket_id, user_id, content)
		VALUES ($1,$2,$3)
		RETURNING id::text, created_at
	`, c.TicketID, c.UserID, c.Content).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("CommentRepo.Create: %w", err)
	}
	return nil
}
