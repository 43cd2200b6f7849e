package utils

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"ticketflow/internal/service"
)

// StatusFromError maps service and storage errors to an HTTP status.
func StatusFromError(err error) int {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		return http.StatusConflict
	case errors.As(err, &pgErr) && pgErr.Code == "23503":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is what a client may see for err: validation messages verbatim,
// well-known conditions by name, everything else as fallback.
func PublicMessage(err error, fallback string) string {
	if msg, ok := service.UserMessage(err); ok {
		return msg
	}
	switch StatusFromError(err) {
	case http.StatusNotFound:
		return "Ticket not found"
	case http.StatusForbidden:
		return "You do not have permission to do that"
	}
	return fallback
}
