package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"ticketflow/internal/config"
	"ticketflow/internal/handlers"
	"ticketflow/internal/middleware"
	"ticketflow/internal/service"
)

// Deps is everything the HTTP surface needs, built once in main.
type Deps struct {
	Config  config.Config
	DB      handlers.Pinger
	Auth    *service.AuthService
	Tickets *service.TicketService
	Team    *service.TeamService
}

func New(log zerolog.Logger, d Deps) http.Handler {
	cfg := d.Config
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))
	if cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
	}
	r.Use(middleware.WithAuth)

	// Health
	r.Get("/healthz", handlers.Health(d.DB, log))

	guard := middleware.NewGuard(d.Auth, log)
	secure := cfg.Env != "dev"
	ah := handlers.NewAuthHTTP(d.Auth, cfg.SignupAllowAdmin, secure, log)
	loc, err := cfg.Location()
	if err != nil {
		// only reachable with a config that skipped Validate
		log.Warn().Err(err).Msg("display timezone unusable, using UTC")
		loc = time.UTC
	}
	ph := handlers.NewPagesHTTP(d.Tickets, d.Team, loc, log)
	th := handlers.NewTicketHTTP(d.Tickets, log)
	mh := handlers.NewTeamHTTP(d.Team, log)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", ah.LoginPage())
		r.Post("/login", ah.Login())
		r.Get("/sign-up", ah.SignUpPage())
		r.Post("/sign-up", ah.SignUp())
		r.Get("/sign-up-success", ah.SignUpSuccessPage())
		r.Get("/error", ah.ErrorPage())
		r.Get("/confirm", ah.Confirm())
		r.Post("/logout", ah.Logout())
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(guard.Page(middleware.AnyProfile))
			r.Get("/", ph.Dashboard())
			r.Get("/tickets", ph.Tickets())
			r.Get("/tickets/export.xlsx", ph.Export())
			r.Get("/tickets/{id}", ph.Ticket())
		})
		r.Group(func(r chi.Router) {
			r.Use(guard.Page(middleware.AdminOnly))
			r.Get("/tickets/new", ph.NewTicket())
			r.Get("/tickets/{id}/edit", ph.EditTicket())
			r.Get("/team", ph.Team())
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(guard.API(middleware.AnyProfile))
			r.Post("/tickets/{id}/status", th.ChangeStatus())
			r.Post("/tickets/{id}/comments", th.AddComment())
		})
		r.Group(func(r chi.Router) {
			r.Use(guard.API(middleware.AdminOnly))
			r.Post("/tickets", th.Create())
			r.Patch("/tickets/{id}", th.Update())
			r.Delete("/tickets/{id}", th.Delete())
			r.Patch("/tickets/{id}/assignee", th.Reassign())
			r.Patch("/team/{id}/role", mh.ChangeRole())
		})
	})

	return r
}
