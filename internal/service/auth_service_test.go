package service_test

import (
	"context"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/rs/zerolog"

	"ticketflow/internal/identity"
	"ticketflow/internal/models"
	"ticketflow/internal/service"
)

func newAuth(allowAdmin bool) (*service.AuthService, *fakeProvider, *memStore) {
	m := newMemStore()
	p := &fakeProvider{tokens: map[string]identity.Identity{}}
	return service.NewAuthService(p, profileRepo{m}, allowAdmin, "http://app.test/dashboard", zerolog.Nop()), p, m
}

func authMessage(c *qt.C, err error) string {
	var ae *service.AuthError
	c.Assert(errors.As(err, &ae), qt.IsTrue, qt.Commentf("%v", err))
	return ae.Message
}

func TestSignUpCreatesProfile(t *testing.T) {
	c := qt.New(t)
	svc, p, m := newAuth(false)

	res, err := svc.SignUp(context.Background(), service.SignUpForm{
		Email: "a@b.co", Password: "secret1", RepeatPassword: "secret1", FullName: " Dana ",
	})
	c.Assert(err, qt.IsNil)
	c.Assert(p.signedUp, qt.HasLen, 1)
	c.Assert(p.signedUp[0].Role, qt.Equals, "developer")
	c.Assert(p.signedUp[0].RedirectTo, qt.Equals, "http://app.test/dashboard")

	prof := m.profiles[res.Identity.ID]
	c.Assert(prof, qt.IsNotNil)
	c.Assert(prof.Role, qt.Equals, models.RoleDeveloper)
	c.Assert(*prof.FullName, qt.Equals, "Dana")
}

func TestSignUpRules(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc, p, _ := newAuth(false)

	_, err := svc.SignUp(ctx, service.SignUpForm{Email: "a@b.co", Password: "secret1", RepeatPassword: "secret2"})
	msg, _ := service.UserMessage(err)
	c.Assert(msg, qt.Equals, "Passwords do not match")

	_, err = svc.SignUp(ctx, service.SignUpForm{Email: "a@b.co", Password: "x", RepeatPassword: "x", Role: "admin"})
	c.Assert(err, qt.ErrorIs, service.ErrValidation)

	_, err = svc.SignUp(ctx, service.SignUpForm{Email: "a@b.co", Password: "x", RepeatPassword: "x", Role: "wizard"})
	c.Assert(err, qt.ErrorIs, service.ErrValidation)
	c.Assert(p.signedUp, qt.HasLen, 0)

	open, p2, _ := newAuth(true)
	_, err = open.SignUp(ctx, service.SignUpForm{Email: "a@b.co", Password: "x", RepeatPassword: "x", Role: "admin"})
	c.Assert(err, qt.IsNil)
	c.Assert(p2.signedUp[0].Role, qt.Equals, "admin")
}

func TestSignUpErrorCopy(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{identity.NewError(identity.KindRateLimited, "x"), "Too many sign-up attempts. Please wait a few minutes before trying again."},
		{identity.NewError(identity.KindAlreadyRegistered, "x"), "This email is already registered. Please sign in or use a different email."},
		{identity.NewError(identity.KindInvalidEmail, "x"), "Please enter a valid email address."},
		{identity.NewError(identity.KindWeakPassword, "x"), "Password does not meet security requirements."},
		{identity.NewError(identity.KindUnknown, "Signups not allowed for this instance"), "Signups not allowed for this instance"},
		{identity.NewError(identity.KindUnknown, ""), "An error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			c := qt.New(t)
			svc, p, _ := newAuth(false)
			p.signUpErr = tt.err
			_, err := svc.SignUp(context.Background(), service.SignUpForm{Email: "a@b.co", Password: "secret1", RepeatPassword: "secret1"})
			c.Assert(authMessage(c, err), qt.Equals, tt.want)
		})
	}
}

func TestSignInErrorCopy(t *testing.T) {
	tests := []struct {
		kind identity.Kind
		want string
	}{
		{identity.KindInvalidCredentials, "Invalid email or password. Please try again."},
		{identity.KindRateLimited, "Too many login attempts. Please wait a few minutes before trying again."},
		{identity.KindEmailNotConfirmed, "Please confirm your email before signing in."},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			c := qt.New(t)
			svc, p, _ := newAuth(false)
			p.signInErr = identity.NewError(tt.kind, "provider text")
			_, _, err := svc.SignIn(context.Background(), "a@b.co", "x")
			c.Assert(authMessage(c, err), qt.Equals, tt.want)
		})
	}
}

func TestSignInLoadsProfile(t *testing.T) {
	c := qt.New(t)
	svc, p, m := newAuth(false)
	prof := m.addProfile("a@b.co", models.RoleClientManager)
	p.tokens["tok"] = identity.Identity{ID: prof.ID, Email: prof.Email}

	sess, got, err := svc.SignIn(context.Background(), "a@b.co", "secret1")
	c.Assert(err, qt.IsNil)
	c.Assert(sess.Token, qt.Equals, "tok")
	c.Assert(got.Role, qt.Equals, models.RoleClientManager)

	p.tokens["orphan"] = identity.Identity{ID: "no-profile", Email: "o@b.co"}
	sess, got, err = svc.SignIn(context.Background(), "o@b.co", "secret1")
	c.Assert(err, qt.IsNil)
	c.Assert(sess, qt.IsNotNil)
	c.Assert(got, qt.IsNil)
}

func TestResolve(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc, p, m := newAuth(false)
	prof := m.addProfile("a@b.co", models.RoleDeveloper)
	p.tokens["tok"] = identity.Identity{ID: prof.ID}
	p.tokens["orphan"] = identity.Identity{ID: "missing"}

	got, err := svc.Resolve(ctx, "tok")
	c.Assert(err, qt.IsNil)
	c.Assert(got.ID, qt.Equals, prof.ID)

	for _, tok := range []string{"", "bogus", "orphan"} {
		_, err := svc.Resolve(ctx, tok)
		c.Assert(err, qt.ErrorIs, service.ErrNotFound)
	}
}

func TestSignOutAndPromote(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc, p, m := newAuth(false)
	m.addProfile("boss@b.co", models.RoleDeveloper)

	c.Assert(svc.SignOut(ctx, ""), qt.IsNil)
	c.Assert(svc.SignOut(ctx, "tok"), qt.IsNil)
	c.Assert(p.signedOut, qt.DeepEquals, []string{"tok"})

	got, err := svc.Promote(ctx, "BOSS@b.co", "admin")
	c.Assert(err, qt.IsNil)
	c.Assert(got.Role, qt.Equals, models.RoleAdmin)

	_, err = svc.Promote(ctx, "nobody@b.co", "admin")
	c.Assert(err, qt.ErrorIs, service.ErrNotFound)
	_, err = svc.Promote(ctx, "boss@b.co", "king")
	c.Assert(err, qt.ErrorIs, service.ErrValidation)
}
