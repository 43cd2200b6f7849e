package local

import (
	"context"

	"github.com/rs/zerolog"
)

type Mailer interface {
	SendConfirmation(ctx context.Context, email, link string) error
}

// LogMailer writes the confirmation link to the log instead of sending mail.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer { return &LogMailer{log: log} }

func (m *LogMailer) SendConfirmation(_ context.Context, email, link string) error {
	m.log.Info().Str("email", email).Str("link", link).Msg("confirmation link")
	return nil
}
