package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lcensies/task-trackers-synchronizer/internal/auth"
	"github.com/lcensies/task-trackers-synchronizer/internal/config"
	"github.com/lcensies/task-trackers-synchronizer/internal/crud"
	"github.com/lcensies/task-trackers-synchronizer/internal/db"
	"github.com/lcensies/task-trackers-synchronizer/internal/docstore"
	httpapi "github.com/lcensies/task-trackers-synchronizer/internal/http"
	"github.com/lcensies/task-trackers-synchronizer/internal/http/handlers"
	jwtutil "github.com/lcensies/task-trackers-synchronizer/internal/jwt"
	"github.com/lcensies/task-trackers-synchronizer/internal/logging"
	"github.com/lcensies/task-trackers-synchronizer/internal/storage"
	"github.com/lcensies/task-trackers-synchronizer/internal/ws"
)

const shutdownTimeout = 10 * time.Second

// app carries what every subcommand needs.
type app struct {
	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "synchronizer",
		Short:         "Task trackers synchronizer API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			a.cfg = cfg
			a.log = logging.New(logging.Config{
				Level:   a.cfg.LogLevel,
				Format:  a.cfg.LogFormat,
				Service: a.cfg.ServiceName,
			})
			if len(cfg.Defaulted) > 0 {
				a.log.Debug().Strs("keys", cfg.Defaulted).Msg("config defaults used")
			}
			for _, w := range cfg.Warnings {
				a.log.Warn().Msg(w)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE:  func(cmd *cobra.Command, _ []string) error { return a.serve(cmd.Context()) },
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE:  func(*cobra.Command, []string) error { return a.migrate() },
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert the fixture issues into an empty database",
			RunE:  func(cmd *cobra.Command, _ []string) error { return a.seed(cmd.Context()) },
		},
		newTokenCmd(a),
	)
	return root
}

func newTokenCmd(a *app) *cobra.Command {
	var (
		sub string
		ttl time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			tok, err := jwtutil.New(a.cfg.JWTSecret, ttl).Create(sub)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "synchronizer", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 7*24*time.Hour, "token lifetime")
	return cmd
}

func (a *app) openStore() (docstore.Database, error) {
	return docstore.Connect(a.cfg.DBURL,
		db.WithMigrationLogger(logging.GooseLogger{Log: a.log.With().Str("component", "migrate").Logger()}))
}

func (a *app) migrate() error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	a.log.Info().Msg("migrations applied")
	return store.Close()
}

func (a *app) seed(ctx context.Context) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := crud.New(store).SeedIssues(ctx)
	if err != nil {
		return err
	}
	a.log.Info().Int("issues", n).Msg("seeded")
	return nil
}

func (a *app) verifier(ctx context.Context) (auth.TokenVerifier, error) {
	switch {
	case a.cfg.AuthDomain != "":
		v, err := auth.NewVerifier(ctx, auth.Config{Domain: a.cfg.AuthDomain, Audience: a.cfg.AuthAudience})
		if err != nil {
			return nil, err
		}
		return v, nil
	case a.cfg.JWTSecret != "":
		return jwtutil.New(a.cfg.JWTSecret, 7*24*time.Hour), nil
	}
	return nil, nil
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	svc := crud.New(store)
	if a.cfg.SeedMockIssues {
		n, err := svc.SeedIssues(ctx)
		if err != nil {
			return err
		}
		a.log.Info().Int("issues", n).Msg("seeded mock issues")
	}

	verifier, err := a.verifier(ctx)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if verifier == nil {
		a.log.Warn().Msg("JWT_SECRET and AUTH_DOMAIN unset, /api is unauthenticated")
	}

	// left as a nil interface when export is disabled
	var uploader handlers.SnapshotUploader
	if a.cfg.S3Enabled() {
		s3deps, err := storage.NewS3Deps(ctx, a.cfg)
		if err != nil {
			return fmt.Errorf("s3: %w", err)
		}
		uploader = s3deps
	}

	if a.log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.Deps{
		Service:          a.cfg.ServiceName,
		Log:              a.log,
		Svc:              svc,
		Hub:              ws.NewHub(),
		Verifier:         verifier,
		Uploader:         uploader,
		CORSAllowOrigins: a.cfg.CORSAllowOrigins,
		WSAllowedOrigins: a.cfg.WSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              a.cfg.BindAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.BindAddr).Str("db", redactDSN(a.cfg.DBURL)).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// redactDSN hides the password of URL-style DSNs before they are logged.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
