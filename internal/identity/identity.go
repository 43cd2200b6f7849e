// Package identity is the authentication boundary. Providers sign people in and
// out and vouch for session tokens; everything about roles lives in profiles.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Identity is an authenticated principal as the provider knows it.
type Identity struct {
	ID    string
	Email string
}

// Session is what a successful sign-in hands back.
type Session struct {
	Identity  Identity
	Token     string
	ExpiresAt time.Time
}

type SignUpRequest struct {
	Email      string
	Password   string
	FullName   string
	Role       string
	RedirectTo string // where the confirmation link should land
}

// SignUpResult reports the created identity and whether it still needs to
// confirm its email before signing in.
type SignUpResult struct {
	Identity             Identity
	ConfirmationRequired bool
}

type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error)
	SignOut(ctx context.Context, token string) error
	Identify(ctx context.Context, token string) (*Identity, error)
	Confirm(ctx context.Context, token string) (*Identity, error)
}

type Kind string

const (
	KindUnknown            Kind = "unknown"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindRateLimited        Kind = "rate_limited"
	KindEmailNotConfirmed  Kind = "email_not_confirmed"
	KindAlreadyRegistered  Kind = "already_registered"
	KindInvalidEmail       Kind = "invalid_email"
	KindWeakPassword       Kind = "weak_password"
	KindInvalidToken       Kind = "invalid_token"
)

// Error is returned by providers for every failure the user can act on.
type Error struct {
	Kind    Kind
	Message string // provider wording, for logs and the unknown case
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("identity: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind of an *Error anywhere in err's chain.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindUnknown
}

// Op tells Classify which form produced the message.
type Op int

const (
	OpSignIn Op = iota
	OpSignUp
)

// Classify maps a provider's free-text error message to a Kind. It is a
// best-effort match on known wordings.
func Classify(op Op, message string) Kind {
	m := strings.ToLower(message)
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(m, s) {
				return true
			}
		}
		return false
	}

	if has("rate limit", "too many") {
		return KindRateLimited
	}
	switch op {
	case OpSignIn:
		switch {
		case has("invalid login credentials", "invalid email or password"):
			return KindInvalidCredentials
		case has("email not confirmed"):
			return KindEmailNotConfirmed
		}
	case OpSignUp:
		switch {
		case has("already registered", "user already exists"):
			return KindAlreadyRegistered
		case has("invalid email"):
			return KindInvalidEmail
		case has("password"):
			return KindWeakPassword
		}
	}
	return KindUnknown
}
