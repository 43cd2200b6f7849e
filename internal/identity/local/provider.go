// Package local is the self-hosted identity provider: credentials in Postgres,
// bcrypt hashes, HS256 session tokens, Redis-backed throttling and revocation.
package local

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ticketflow/internal/identity"
	"ticketflow/internal/models"
	"ticketflow/internal/repository"
	"ticketflow/internal/service"
)

const minPasswordLen = 6

// Throttle counts sign-in attempts per key inside a rolling window.
type Throttle interface {
	Hit(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// Revoker remembers signed-out token ids until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	Revoked(ctx context.Context, jti string) (bool, error)
}

type Options struct {
	Secret              string
	TTL                 time.Duration
	RequireConfirmation bool
	MaxAttempts         int    // 0 disables throttling
	ConfirmURL          string // absolute URL of GET /auth/confirm
	BcryptCost          int
}

type Provider struct {
	creds    repository.CredentialRepository
	tokens   *jwtauth.JWTAuth
	throttle Throttle
	revoker  Revoker
	mailer   Mailer
	opts     Options
	now      func() time.Time
}

var _ identity.Provider = (*Provider)(nil)

func New(creds repository.CredentialRepository, throttle Throttle, revoker Revoker, mailer Mailer, opts Options) *Provider {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if throttle == nil {
		throttle = nopThrottle{}
	}
	if revoker == nil {
		revoker = nopRevoker{}
	}
	return &Provider{
		creds:    creds,
		tokens:   jwtauth.New("HS256", []byte(opts.Secret), nil),
		throttle: throttle,
		revoker:  revoker,
		mailer:   mailer,
		opts:     opts,
		now:      time.Now,
	}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	email = normalizeEmail(email)

	if p.opts.MaxAttempts > 0 {
		n, err := p.throttle.Hit(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("throttle: %w", err)
		}
		if n > int64(p.opts.MaxAttempts) {
			return nil, identity.NewError(identity.KindRateLimited, "too many sign-in attempts")
		}
	}

	c, err := p.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return nil, identity.NewError(identity.KindInvalidCredentials, "invalid login credentials")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return nil, identity.NewError(identity.KindInvalidCredentials, "invalid login credentials")
	}
	if p.opts.RequireConfirmation && !c.Confirmed() {
		return nil, identity.NewError(identity.KindEmailNotConfirmed, "email not confirmed")
	}
	if p.opts.MaxAttempts > 0 {
		_ = p.throttle.Reset(ctx, email)
	}

	exp := p.now().Add(p.opts.TTL)
	claims := map[string]any{
		"sub":   c.ID,
		"email": c.Email,
		"jti":   uuid.NewString(),
	}
	jwtauth.SetIssuedAt(claims, p.now())
	jwtauth.SetExpiry(claims, exp)
	_, tok, err := p.tokens.Encode(claims)
	if err != nil {
		return nil, fmt.Errorf("encode session token: %w", err)
	}
	return &identity.Session{
		Identity:  identity.Identity{ID: c.ID, Email: c.Email},
		Token:     tok,
		ExpiresAt: exp,
	}, nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func (p *Provider) SignUp(ctx context.Context, req identity.SignUpRequest) (*identity.SignUpResult, error) {
	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		return nil, identity.NewError(identity.KindInvalidEmail, "invalid email")
	}
	if len(req.Password) < minPasswordLen {
		return nil, identity.NewError(identity.KindWeakPassword,
			fmt.Sprintf("password should be at least %d characters", minPasswordLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), p.opts.BcryptCost)
	if err != nil {
		return nil, identity.NewError(identity.KindWeakPassword, err.Error())
	}

	c := &models.Credential{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if p.opts.RequireConfirmation {
		tok := uuid.NewString()
		c.ConfirmationToken = &tok
	} else {
		now := p.now()
		c.ConfirmedAt = &now
	}

	if err := p.creds.Create(ctx, c); err != nil {
		if errors.Is(err, service.ErrConflict) {
			return nil, identity.NewError(identity.KindAlreadyRegistered, "user already registered")
		}
		return nil, err
	}

	if c.ConfirmationToken != nil && p.mailer != nil {
		if err := p.mailer.SendConfirmation(ctx, email, p.confirmLink(*c.ConfirmationToken, req.RedirectTo)); err != nil {
			return nil, fmt.Errorf("send confirmation: %w", err)
		}
	}

	return &identity.SignUpResult{
		Identity:             identity.Identity{ID: c.ID, Email: c.Email},
		ConfirmationRequired: c.ConfirmationToken != nil,
	}, nil
}

func (p *Provider) confirmLink(token, redirectTo string) string {
	q := url.Values{}
	q.Set("token", token)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return p.opts.ConfirmURL + "?" + q.Encode()
}

func (p *Provider) Confirm(ctx context.Context, token string) (*identity.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, identity.NewError(identity.KindInvalidToken, "missing confirmation token")
	}
	c, err := p.creds.Confirm(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return nil, identity.NewError(identity.KindInvalidToken, "confirmation link is invalid or has expired")
		}
		return nil, err
	}
	return &identity.Identity{ID: c.ID, Email: c.Email}, nil
}

type verified struct {
	identity.Identity
	jti string
	exp time.Time
}

func (p *Provider) verify(ctx context.Context, token string) (*verified, error) {
	tok, err := jwtauth.VerifyToken(p.tokens, token)
	if err != nil {
		return nil, &identity.Error{Kind: identity.KindInvalidToken, Message: "invalid session token", Err: err}
	}
	email, _ := tok.Get("email")
	v := &verified{
		Identity: identity.Identity{ID: tok.Subject()},
		jti:      tok.JwtID(),
		exp:      tok.Expiration(),
	}
	v.Email, _ = email.(string)
	if v.ID == "" || v.jti == "" {
		return nil, identity.NewError(identity.KindInvalidToken, "session token is missing claims")
	}
	revoked, err := p.revoker.Revoked(ctx, v.jti)
	if err != nil {
		return nil, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return nil, identity.NewError(identity.KindInvalidToken, "session token was revoked")
	}
	return v, nil
}

func (p *Provider) Identify(ctx context.Context, token string) (*identity.Identity, error) {
	v, err := p.verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return &v.Identity, nil
}

// SignOut revokes the token. Signing out with a token that no longer verifies
// is not an error.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	v, err := p.verify(ctx, token)
	if err != nil {
		if identity.KindOf(err) == identity.KindInvalidToken {
			return nil
		}
		return err
	}
	ttl := v.exp.Sub(p.now())
	if ttl <= 0 {
		return nil
	}
	return p.revoker.Revoke(ctx, v.jti, ttl)
}

type nopThrottle struct{}

func (nopThrottle) Hit(context.Context, string) (int64, error) { return 0, nil }
func (nopThrottle) Reset(context.Context, string) error        { return nil }

type nopRevoker struct{}

func (nopRevoker) Revoke(context.Context, string, time.Duration) error { return nil }
func (nopRevoker) Revoked(context.Context, string) (bool, error)      { return false, nil }
