package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"ticketflow/internal/models"
	"ticketflow/internal/service"
	"ticketflow/internal/utils"
)

const (
	LoginPath     = "/auth/login"
	DashboardPath = "/dashboard"
)

// ProfileResolver maps a session token to a role-bearing profile. Unknown
// tokens and missing profiles are service.ErrNotFound.
type ProfileResolver interface {
	Resolve(ctx context.Context, token string) (*models.Profile, error)
}

// Predicate decides whether a resolved profile may pass.
type Predicate func(models.Profile) bool

func AnyProfile(models.Profile) bool { return true }

func AdminOnly(p models.Profile) bool { return p.IsAdmin() }

type verdict int

const (
	allowed verdict = iota
	unauthenticated
	forbidden
	failed
)

// Guard is the one session/profile gate in front of every protected route.
// Page and API differ only in how a refusal is answered.
type Guard struct {
	resolver ProfileResolver
	log      zerolog.Logger
}

func NewGuard(resolver ProfileResolver, log zerolog.Logger) *Guard {
	return &Guard{resolver: resolver, log: log}
}

func (g *Guard) check(w http.ResponseWriter, r *http.Request, pred Predicate) (*http.Request, verdict) {
	tok := utils.TokenFrom(r.Context())
	if tok == "" {
		return r, unauthenticated
	}
	p, err := g.resolver.Resolve(r.Context(), tok)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			ClearSessionCookie(w)
			return r, unauthenticated
		}
		g.log.Error().Err(err).Str("path", r.URL.Path).Msg("resolve profile")
		return r, failed
	}
	if !pred(*p) {
		return r, forbidden
	}
	return r.WithContext(utils.WithProfile(r.Context(), p)), allowed
}

// Page guards a navigation route: strangers go to the login page, profiles
// failing pred go back to the dashboard.
func (g *Guard) Page(pred Predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, v := g.check(w, r, pred)
			switch v {
			case allowed:
				next.ServeHTTP(w, r)
			case unauthenticated:
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			case forbidden:
				http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
			default:
				utils.Error(w, http.StatusInternalServerError, "internal error")
			}
		})
	}
}

// API guards a mutation route with status codes instead of redirects.
func (g *Guard) API(pred Predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, v := g.check(w, r, pred)
			switch v {
			case allowed:
				next.ServeHTTP(w, r)
			case unauthenticated:
				utils.Fail(w, http.StatusUnauthorized, "authentication required")
			case forbidden:
				utils.Fail(w, http.StatusForbidden, "forbidden")
			default:
				utils.Fail(w, http.StatusInternalServerError, "internal error")
			}
		})
	}
}
