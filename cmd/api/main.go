package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-extras/cobraflags"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ticketflow/internal/config"
	"ticketflow/internal/database"
	"ticketflow/internal/identity"
	"ticketflow/internal/identity/gotrue"
	"ticketflow/internal/identity/local"
	"ticketflow/internal/repository/postgres"
	"ticketflow/internal/router"
	"ticketflow/internal/service"
	"ticketflow/pkg/logger"
)

const (
	migrateFlag = "migrate"
	emailFlag   = "email"
	roleFlag    = "role"
)

// cli owns the flag sets of one command tree.
type cli struct {
	serveFlags   map[string]cobraflags.Flag
	promoteFlags map[string]cobraflags.Flag
}

func newCLI() *cli {
	return &cli{
		serveFlags: map[string]cobraflags.Flag{
			migrateFlag: &cobraflags.BoolFlag{
				Name:       migrateFlag,
				Value:      false,
				Usage:      "Apply pending migrations before serving",
				Persistent: true,
			},
		},
		promoteFlags: map[string]cobraflags.Flag{
			emailFlag: &cobraflags.StringFlag{
				Name:  emailFlag,
				Value: "",
				Usage: "Email of the profile to promote (required)",
			},
			roleFlag: &cobraflags.StringFlag{
				Name:  roleFlag,
				Value: "admin",
				Usage: "Role to assign",
			},
		},
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command { return newCLI().rootCommand() }

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "ticketflow",
		Short:        "Role-based ticketing dashboard API",
		SilenceUsage: true,
		RunE:         c.serveCommand,
	}
	// persistent, so both "ticketflow --migrate" and "ticketflow serve --migrate" set it
	cobraflags.RegisterMap(root, c.serveFlags)

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE:  c.serveCommand,
	}

	migrate := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the embedded schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(database.Up), string(database.Down)},
		RunE:      migrateCommand,
	}

	promote := &cobra.Command{
		Use:   "promote",
		Short: "Change the role of an existing profile, e.g. to bootstrap the first admin",
		RunE:  c.promoteCommand,
	}
	cobraflags.RegisterMap(promote, c.promoteFlags)

	root.AddCommand(serve, migrate, promote)
	return root
}

func (c *cli) migrateOnStart() bool { return c.serveFlags[migrateFlag].GetBool() }

// app is the process-wide state shared by every command.
type app struct {
	cfg  config.Config
	log  zerolog.Logger
	pool *pgxpool.Pool
}

func boot(ctx context.Context) (*app, error) {
	cfg := config.Load()
	l := logger.New(cfg.Env)
	if err := cfg.Validate(); err != nil {
		l.Error().Err(err).Msg("invalid config")
		return nil, err
	}
	pool, err := database.Open(ctx, cfg)
	if err != nil {
		l.Error().Err(err).Msg("db connect failed")
		return nil, err
	}
	return &app{cfg: cfg, log: l, pool: pool}, nil
}

func (a *app) provider(rdb redis.Cmdable) (identity.Provider, error) {
	switch a.cfg.AuthProvider {
	case "", "local":
		return local.New(
			postgres.NewCredentialRepo(a.pool),
			local.NewRedisThrottle(rdb, a.cfg.SignInWindow),
			local.NewRedisRevoker(rdb),
			local.NewLogMailer(a.log),
			local.Options{
				Secret:              a.cfg.SessionSecret,
				TTL:                 a.cfg.SessionTTL,
				RequireConfirmation: a.cfg.RequireConfirmation,
				MaxAttempts:         a.cfg.SignInMaxAttempts,
				ConfirmURL:          a.cfg.PublicURL + "/auth/confirm",
			},
		), nil
	case "gotrue":
		if a.cfg.GoTrueURL == "" || a.cfg.GoTrueJWTSecret == "" {
			return nil, errors.New("GOTRUE_URL and GOTRUE_JWT_SECRET are required for the gotrue provider")
		}
		return gotrue.New(gotrue.Options{
			BaseURL:   a.cfg.GoTrueURL,
			AnonKey:   a.cfg.GoTrueAnonKey,
			JWTSecret: a.cfg.GoTrueJWTSecret,
		}), nil
	default:
		return nil, fmt.Errorf("unknown AUTH_PROVIDER %q", a.cfg.AuthProvider)
	}
}

func (a *app) authService(rdb redis.Cmdable) (*service.AuthService, error) {
	p, err := a.provider(rdb)
	if err != nil {
		return nil, err
	}
	profiles := postgres.NewProfileRepo(a.pool)
	return service.NewAuthService(p, profiles, a.cfg.SignupAllowAdmin, a.cfg.ConfirmRedirect(), a.log), nil
}

func (c *cli) serveCommand(cmd *cobra.Command, _ []string) error {
	a, err := boot(cmd.Context())
	if err != nil {
		return err
	}
	defer a.pool.Close()

	if c.migrateOnStart() {
		if err := database.Migrate(cmd.Context(), a.cfg.DBURL, database.Migrations, database.Up, a.log); err != nil {
			a.log.Error().Err(err).Msg("migrate failed")
			return err
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	defer rdb.Close()

	auth, err := a.authService(rdb)
	if err != nil {
		return err
	}
	profiles := postgres.NewProfileRepo(a.pool)
	tickets := service.NewTicketService(postgres.NewTicketRepo(a.pool), postgres.NewCommentRepo(a.pool), profiles, a.log)
	team := service.NewTeamService(profiles, a.log)

	// http
	r := router.New(a.log, router.Deps{
		Config:  a.cfg,
		DB:      a.pool,
		Auth:    auth,
		Tickets: tickets,
		Team:    team,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Str("auth", a.cfg.AuthProvider).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		if err != nil {
			a.log.Error().Err(err).Msg("server error")
			return err
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Msg("shutdown")
	}
	a.log.Info().Msg("shutdown complete")
	return nil
}

func migrateCommand(cmd *cobra.Command, args []string) error {
	a, err := boot(cmd.Context())
	if err != nil {
		return err
	}
	defer a.pool.Close()

	return database.Migrate(cmd.Context(), a.cfg.DBURL, database.Migrations, database.Direction(args[0]), a.log)
}

func (c *cli) promoteCommand(cmd *cobra.Command, _ []string) error {
	email := c.promoteFlags[emailFlag].GetString()
	if email == "" {
		return errors.New("--email is required")
	}
	a, err := boot(cmd.Context())
	if err != nil {
		return err
	}
	defer a.pool.Close()

	svc := service.NewAuthService(nil, postgres.NewProfileRepo(a.pool), false, "", a.log)
	p, err := svc.Promote(cmd.Context(), email, c.promoteFlags[roleFlag].GetString())
	if err != nil {
		return err
	}
	a.log.Info().Str("profile", p.ID).Str("email", p.Email).Str("role", string(p.Role)).Msg("profile promoted")
	return nil
}
