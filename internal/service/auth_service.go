package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"ticketflow/internal/identity"
	"ticketflow/internal/models"
	"ticketflow/internal/repository"
)

const fallbackAuthMessage = "An error occurred"

var signInCopy = map[identity.Kind]string{
	identity.KindInvalidCredentials: "Invalid email or password. Please try again.",
	identity.KindRateLimited:        "Too many login attempts. Please wait a few minutes before trying again.",
	identity.KindEmailNotConfirmed:  "Please confirm your email before signing in.",
}

var signUpCopy = map[identity.Kind]string{
	identity.KindRateLimited:       "Too many sign-up attempts. Please wait a few minutes before trying again.",
	identity.KindAlreadyRegistered: "This email is already registered. Please sign in or use a different email.",
	identity.KindInvalidEmail:      "Please enter a valid email address.",
	identity.KindWeakPassword:      "Password does not meet security requirements.",
}

// AuthError is a provider failure with the copy to show for it.
type AuthError struct {
	Kind    identity.Kind
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

func authError(op identity.Op, err error) error {
	var ie *identity.Error
	if !errors.As(err, &ie) {
		return err
	}
	table := signInCopy
	if op == identity.OpSignUp {
		table = signUpCopy
	}
	msg, ok := table[ie.Kind]
	if !ok {
		msg = ie.Message
		if msg == "" {
			msg = fallbackAuthMessage
		}
	}
	return &AuthError{Kind: ie.Kind, Message: msg, Err: err}
}

type SignUpForm struct {
	Email          string
	Password       string
	RepeatPassword string
	FullName       string
	Role           string
}

type AuthService struct {
	provider        identity.Provider
	profiles        repository.ProfileRepository
	allowAdmin      bool
	confirmRedirect string
	log             zerolog.Logger
}

func NewAuthService(provider identity.Provider, profiles repository.ProfileRepository, allowAdminSignup bool, confirmRedirect string, log zerolog.Logger) *AuthService {
	return &AuthService{
		provider:        provider,
		profiles:        profiles,
		allowAdmin:      allowAdminSignup,
		confirmRedirect: confirmRedirect,
		log:             log,
	}
}

// SignIn returns the session and, when one exists, the caller's profile.
func (a *AuthService) SignIn(ctx context.Context, email, password string) (*identity.Session, *models.Profile, error) {
	sess, err := a.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, nil, authError(identity.OpSignIn, err)
	}
	p, err := a.profiles.GetByID(ctx, sess.Identity.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.log.Warn().Str("identity", sess.Identity.ID).Msg("signed in without a profile")
			return sess, nil, nil
		}
		return nil, nil, err
	}
	return sess, p, nil
}

// SignUp registers an identity and creates its profile. Roles default to
// developer; admin is only selectable when explicitly allowed.
func (a *AuthService) SignUp(ctx context.Context, f SignUpForm) (*identity.SignUpResult, error) {
	if f.Password != f.RepeatPassword {
		return nil, invalid("Passwords do not match")
	}
	role := models.RoleDeveloper
	if strings.TrimSpace(f.Role) != "" {
		r, err := models.ParseRole(f.Role)
		if err != nil {
			return nil, invalid("Please choose a valid role")
		}
		role = r
	}
	if role == models.RoleAdmin && !a.allowAdmin {
		return nil, invalid("Admin accounts cannot be created through sign-up")
	}

	fullName := strings.TrimSpace(f.FullName)
	res, err := a.provider.SignUp(ctx, identity.SignUpRequest{
		Email:      f.Email,
		Password:   f.Password,
		FullName:   fullName,
		Role:       string(role),
		RedirectTo: a.confirmRedirect,
	})
	if err != nil {
		return nil, authError(identity.OpSignUp, err)
	}

	p := &models.Profile{ID: res.Identity.ID, Email: res.Identity.Email, Role: role}
	if fullName != "" {
		p.FullName = &fullName
	}
	if err := a.profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	a.log.Info().Str("profile", p.ID).Str("role", string(role)).Msg("signed up")
	return res, nil
}

func (a *AuthService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return a.provider.SignOut(ctx, token)
}

func (a *AuthService) Confirm(ctx context.Context, token string) (*identity.Identity, error) {
	id, err := a.provider.Confirm(ctx, token)
	if err != nil {
		return nil, authError(identity.OpSignIn, err)
	}
	return id, nil
}

// ConfirmRedirect is where a confirmed sign-up should land.
func (a *AuthService) ConfirmRedirect() string { return a.confirmRedirect }

// Resolve maps a session token to the caller's profile. A missing or invalid
// token or a missing profile is ErrNotFound.
func (a *AuthService) Resolve(ctx context.Context, token string) (*models.Profile, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	id, err := a.provider.Identify(ctx, token)
	if err != nil {
		if identity.KindOf(err) == identity.KindInvalidToken {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a.profiles.GetByID(ctx, id.ID)
}

// Promote sets a role by email, bypassing the admin checks. Used from the CLI
// to bootstrap the first admin.
func (a *AuthService) Promote(ctx context.Context, email, role string) (*models.Profile, error) {
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, invalid("Unknown role %q", role)
	}
	p, err := a.profiles.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	return a.profiles.UpdateRole(ctx, p.ID, r)
}
