package utils

import (
	"context"

	"ticketflow/internal/models"
)

type ctxKey string

const (
	ctxProfile ctxKey = "profile"
	ctxToken   ctxKey = "token"
)

func WithProfile(ctx context.Context, p *models.Profile) context.Context {
	return context.WithValue(ctx, ctxProfile, p)
}

// ProfileFrom returns the profile resolved by the guard middleware.
func ProfileFrom(ctx context.Context) (*models.Profile, bool) {
	p, ok := ctx.Value(ctxProfile).(*models.Profile)
	return p, ok && p != nil
}

func WithToken(ctx context.Context, tok string) context.Context {
	return context.WithValue(ctx, ctxToken, tok)
}

func TokenFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxToken).(string)
	return s
}
