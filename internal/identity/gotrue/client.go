// Package gotrue adapts a hosted GoTrue-compatible auth API to identity.Provider.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ticketflow/internal/identity"
)

type Options struct {
	BaseURL   string // project URL, without the /auth/v1 suffix
	AnonKey   string
	JWTSecret string
	Timeout   time.Duration
}

type Client struct {
	http   *http.Client
	opts   Options
	secret []byte
}

var _ identity.Provider = (*Client)(nil)

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{
		http:   &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		secret: []byte(opts.JWTSecret),
	}
}

type user struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	User        *user  `json:"user"`
}

// apiError covers the error shapes the API is known to emit.
type apiError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) do(ctx context.Context, op identity.Op, method, path string, query url.Values, bearer string, in, out any) error {
	u := c.opts.BaseURL + "/auth/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.opts.AnonKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gotrue %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("gotrue %s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode >= 400 {
		var ae apiError
		_ = json.Unmarshal(raw, &ae)
		msg := ae.text()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		kind := identity.Classify(op, msg)
		if resp.StatusCode == http.StatusTooManyRequests {
			kind = identity.KindRateLimited
		}
		return &identity.Error{Kind: kind, Message: msg}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("gotrue %s %s: decode: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	var out sessionResponse
	q := url.Values{"grant_type": {"password"}}
	in := map[string]string{"email": strings.TrimSpace(email), "password": password}
	if err := c.do(ctx, identity.OpSignIn, http.MethodPost, "/token", q, "", in, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" || out.User == nil {
		return nil, identity.NewError(identity.KindUnknown, "sign-in response carried no session")
	}
	return &identity.Session{
		Identity:  identity.Identity{ID: out.User.ID, Email: out.User.Email},
		Token:     out.AccessToken,
		ExpiresAt: time.Now().Add(time.Duration(out.ExpiresIn) * time.Second),
	}, nil
}

func (c *Client) SignUp(ctx context.Context, req identity.SignUpRequest) (*identity.SignUpResult, error) {
	// Depending on the project's autoconfirm setting the API answers with a
	// bare user or with a session wrapping one.
	var out struct {
		user
		sessionResponse
	}
	var q url.Values
	if req.RedirectTo != "" {
		q = url.Values{"redirect_to": {req.RedirectTo}}
	}
	in := map[string]any{
		"email":    strings.TrimSpace(req.Email),
		"password": req.Password,
		"data": map[string]string{
			"full_name": req.FullName,
			"role":      req.Role,
		},
	}
	if err := c.do(ctx, identity.OpSignUp, http.MethodPost, "/signup", q, "", in, &out); err != nil {
		return nil, err
	}
	if out.sessionResponse.User != nil {
		return &identity.SignUpResult{
			Identity: identity.Identity{ID: out.sessionResponse.User.ID, Email: out.sessionResponse.User.Email},
		}, nil
	}
	if out.user.ID == "" {
		return nil, identity.NewError(identity.KindUnknown, "sign-up response carried no user")
	}
	return &identity.SignUpResult{
		Identity:             identity.Identity{ID: out.user.ID, Email: out.user.Email},
		ConfirmationRequired: true,
	}, nil
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	err := c.do(ctx, identity.OpSignIn, http.MethodPost, "/logout", nil, token, nil, nil)
	var ie *identity.Error
	if errors.As(err, &ie) {
		// the session is gone either way
		return nil
	}
	return err
}

// Confirm exchanges the token hash from a confirmation email.
func (c *Client) Confirm(ctx context.Context, token string) (*identity.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, identity.NewError(identity.KindInvalidToken, "missing confirmation token")
	}
	var out sessionResponse
	in := map[string]string{"type": "signup", "token_hash": token}
	if err := c.do(ctx, identity.OpSignIn, http.MethodPost, "/verify", nil, "", in, &out); err != nil {
		var ie *identity.Error
		if errors.As(err, &ie) && ie.Kind == identity.KindUnknown {
			ie.Kind = identity.KindInvalidToken
		}
		return nil, err
	}
	if out.User == nil {
		return nil, identity.NewError(identity.KindInvalidToken, "verification response carried no user")
	}
	return &identity.Identity{ID: out.User.ID, Email: out.User.Email}, nil
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identify verifies an access token locally against the project JWT secret.
func (c *Client) Identify(_ context.Context, token string) (*identity.Identity, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, &identity.Error{Kind: identity.KindInvalidToken, Message: "invalid access token", Err: err}
	}
	if claims.Subject == "" {
		return nil, identity.NewError(identity.KindInvalidToken, "access token has no subject")
	}
	return &identity.Identity{ID: claims.Subject, Email: claims.Email}, nil
}
