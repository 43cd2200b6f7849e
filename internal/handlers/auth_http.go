package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"ticketflow/internal/identity"
	"ticketflow/internal/middleware"
	"ticketflow/internal/models"
	"ticketflow/internal/service"
	"ticketflow/internal/utils"
	"ticketflow/internal/validation"
)

type AuthHTTP struct {
	svc           *service.AuthService
	allowAdmin    bool
	secureCookies bool
	log           zerolog.Logger
}

func NewAuthHTTP(s *service.AuthService, allowAdminSignup, secureCookies bool, log zerolog.Logger) *AuthHTTP {
	return &AuthHTTP{svc: s, allowAdmin: allowAdminSignup, secureCookies: secureCookies, log: log}
}

type option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// -----------------------------------------------------------------------------
// Pages
// -----------------------------------------------------------------------------

func (h *AuthHTTP) LoginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.JSON(w, http.StatusOK, map[string]any{
			"page":       "login",
			"title":      "Sign in",
			"signUpPath": "/auth/sign-up",
		})
	}
}

func (h *AuthHTTP) SignUpPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roles := make([]option, 0, len(models.Roles))
		for _, role := range models.Roles {
			if role == models.RoleAdmin && !h.allowAdmin {
				continue
			}
			roles = append(roles, option{Value: string(role), Label: role.Label()})
		}
		utils.JSON(w, http.StatusOK, map[string]any{
			"page":        "sign-up",
			"title":       "Create an account",
			"roles":       roles,
			"defaultRole": models.RoleDeveloper,
			"loginPath":   middleware.LoginPath,
		})
	}
}

func (h *AuthHTTP) SignUpSuccessPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.JSON(w, http.StatusOK, map[string]any{
			"page":      "sign-up-success",
			"title":     "Check your email",
			"message":   "You've successfully signed up. Please check your email to confirm your account before signing in.",
			"loginPath": middleware.LoginPath,
		})
	}
}

func (h *AuthHTTP) ErrorPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg := r.URL.Query().Get("error")
		if msg == "" {
			msg = r.URL.Query().Get("message")
		}
		if msg == "" {
			msg = "An unspecified error occurred."
		}
		utils.JSON(w, http.StatusOK, map[string]any{
			"page":    "error",
			"title":   "Sorry, something went wrong.",
			"message": msg,
		})
	}
}

// -----------------------------------------------------------------------------
// Actions
// -----------------------------------------------------------------------------

func authStatus(k identity.Kind) int {
	switch k {
	case identity.KindInvalidCredentials:
		return http.StatusUnauthorized
	case identity.KindRateLimited:
		return http.StatusTooManyRequests
	case identity.KindEmailNotConfirmed:
		return http.StatusForbidden
	case identity.KindAlreadyRegistered:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// failAuth answers with the copy of an auth error, or a generic failure.
func (h *AuthHTTP) failAuth(w http.ResponseWriter, op string, err error) {
	var ae *service.AuthError
	if errors.As(err, &ae) {
		h.log.Info().Str("op", op).Str("kind", string(ae.Kind)).Msg("auth refused")
		utils.Fail(w, authStatus(ae.Kind), ae.Message)
		return
	}
	if msg, ok := service.UserMessage(err); ok {
		utils.Fail(w, http.StatusBadRequest, msg)
		return
	}
	h.log.Error().Err(err).Str("op", op).Msg("auth failed")
	utils.Fail(w, http.StatusInternalServerError, "An error occurred")
}

// POST /auth/login
func (h *AuthHTTP) Login() http.HandlerFunc {
	type inDTO struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in inDTO
		if err := validation.Decode(r.Body, validation.SignIn, &in); err != nil {
			h.failAuth(w, "sign-in", err)
			return
		}
		sess, profile, err := h.svc.SignIn(r.Context(), in.Email, in.Password)
		if err != nil {
			h.failAuth(w, "sign-in", err)
			return
		}
		middleware.SetSessionCookie(w, sess.Token, sess.ExpiresAt, h.secureCookies)
		utils.Succeed(w, http.StatusOK, map[string]any{
			"profile":   profile,
			"token":     sess.Token,
			"expiresAt": sess.ExpiresAt,
			"next":      middleware.DashboardPath,
		})
	}
}

// POST /auth/sign-up
func (h *AuthHTTP) SignUp() http.HandlerFunc {
	type inDTO struct {
		Email          string `json:"email"`
		Password       string `json:"password"`
		RepeatPassword string `json:"repeatPassword"`
		FullName       string `json:"fullName"`
		Role           string `json:"role"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in inDTO
		if err := validation.Decode(r.Body, validation.SignUp, &in); err != nil {
			h.failAuth(w, "sign-up", err)
			return
		}
		res, err := h.svc.SignUp(r.Context(), service.SignUpForm(in))
		if err != nil {
			h.failAuth(w, "sign-up", err)
			return
		}
		utils.Succeed(w, http.StatusCreated, map[string]any{
			"confirmationRequired": res.ConfirmationRequired,
			"next":                 "/auth/sign-up-success",
		})
	}
}

// POST /auth/logout
func (h *AuthHTTP) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.SignOut(r.Context(), utils.TokenFrom(r.Context())); err != nil {
			h.log.Warn().Err(err).Msg("sign-out")
		}
		middleware.ClearSessionCookie(w)
		utils.Succeed(w, http.StatusOK, map[string]string{"next": middleware.LoginPath})
	}
}

// GET /auth/confirm?token=
func (h *AuthHTTP) Confirm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if _, err := h.svc.Confirm(r.Context(), q.Get("token")); err != nil {
			msg := "An error occurred"
			var ae *service.AuthError
			if errors.As(err, &ae) {
				msg = ae.Message
			} else {
				h.log.Error().Err(err).Msg("confirm sign-up")
			}
			http.Redirect(w, r, "/auth/error?"+url.Values{"error": {msg}}.Encode(), http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, h.svc.ConfirmRedirect(), http.StatusSeeOther)
	}
}
