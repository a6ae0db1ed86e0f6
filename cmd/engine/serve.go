package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"hackhub-engine/internal/auth"
	"hackhub-engine/internal/config"
	"hackhub-engine/internal/deadline"
	"hackhub-engine/internal/events"
	"hackhub-engine/internal/httpapi"
	"hackhub-engine/internal/instance"
	"hackhub-engine/internal/logging"
	"hackhub-engine/internal/ratelimit"
	"hackhub-engine/internal/scheduler"
	"hackhub-engine/internal/secrets"
	"hackhub-engine/internal/store"
)

const (
	shutdownTimeout  = 5 * time.Second
	limiterSweepIdle = 10 * time.Minute
)

type serveOptions struct {
	configPath string
	dataDir    string
	addr       string
	envFile    string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and event hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "config file (default <data-dir>/config.yml, created if missing)")
	f.StringVar(&opts.dataDir, "data-dir", "", "data directory (default $HACKHUB_DATA_DIR or .)")
	f.StringVar(&opts.addr, "addr", "", "listen address, overrides app.addr")
	f.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	return cmd
}

func loadConfig(opts serveOptions) (config.Config, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return config.Config{}, fmt.Errorf("load %s: %w", opts.envFile, err)
	}

	dataDir := opts.dataDir
	if dataDir == "" {
		dataDir = os.Getenv("HACKHUB_DATA_DIR")
	}
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return config.Config{}, err
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		p, err := config.EnsureUserConfig(dataDir)
		if err != nil {
			return config.Config{}, fmt.Errorf("config bootstrap failed: %w", err)
		}
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("config load failed (%s): %w", cfgPath, err)
	}
	config.OverlayEnv(&cfg, nil)
	cfg.App.DataDir = dataDir
	if opts.addr != "" {
		cfg.App.Addr = opts.addr
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.App.LogLevel, cfg.App.LogFormat, os.Stderr)
	if err := ensureShutdownToken(&cfg, &logger); err != nil {
		return err
	}

	lock, err := instance.Acquire(cfg.App.DataDir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	dbPath := filepath.Join(cfg.App.DataDir, "hackhub.db")
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	authSvc, err := newAuthService(cfg, &logger)
	if err != nil {
		return err
	}

	hub := events.NewHub(events.NewRegistry(), cfg.Stream.QueueSize, &logger)

	var limiter *ratelimit.KeyLimiter
	if cfg.Ingest.RatePerSec > 0 {
		limiter = ratelimit.NewKeyLimiter(cfg.Ingest.RatePerSec, cfg.Ingest.Burst)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	router := httpapi.NewRouter(httpapi.Deps{
		DB:                db.Pool,
		Hub:               hub,
		Auth:              authSvc,
		Logger:            &logger,
		CorsOrigins:       cfg.App.CorsOrigins,
		IngestLimiter:     limiter,
		IngestRequireAuth: cfg.Ingest.RequireAuth,
		MaxBodyBytes:      cfg.Ingest.MaxBodyBytes,
		KeepAlive:         cfg.KeepAlive(),
		ShutdownToken:     cfg.ShutdownToken,
		Shutdown:          cancel,
	})

	ln, err := net.Listen("tcp", cfg.App.Addr)
	if err != nil {
		return err
	}
	logger.Info().Str("addr", "http://"+ln.Addr().String()).Str("db", dbPath).Msg("engine listening")

	// No WriteTimeout: event streams stay open indefinitely.
	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	watcher := deadline.NewWatcher(db.Pool, hub, &logger)
	g.Go(func() error {
		scheduler.Every(gctx, cfg.DeadlineInterval(), "deadline", &logger, watcher.Check)
		return nil
	})

	if limiter != nil {
		g.Go(func() error {
			scheduler.Every(gctx, time.Minute, "ratelimit-sweep", &logger, func(context.Context) error {
				if n := limiter.Sweep(limiterSweepIdle); n > 0 {
					logger.Debug().Int("dropped", n).Msg("ratelimit sweep")
				}
				return nil
			})
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		// End the streams first; Shutdown waits for active handlers.
		hub.Close()
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

// ensureShutdownToken generates a per-run token for POST /shutdown when
// none is configured and logs it for local tooling.
func ensureShutdownToken(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg.ShutdownToken != "" {
		return nil
	}
	tok, err := secrets.RandomToken(16)
	if err != nil {
		return fmt.Errorf("shutdown token: %w", err)
	}
	cfg.ShutdownToken = tok
	logger.Info().Str("shutdown_token", tok).Msg("generated shutdown token (set HACKHUB_SHUTDOWN_TOKEN to pin it)")
	return nil
}

func newAuthService(cfg config.Config, logger *zerolog.Logger) (*auth.Service, error) {
	key, source, err := secrets.ResolveSigningKey(cfg.Auth.KeyringAccount, cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}
	if source == secrets.SourceEphemeral {
		logger.Warn().Msg("no keyring available; admin sessions will not survive a restart")
	}

	admins := make([]auth.Admin, 0, len(cfg.Auth.Admins))
	for _, a := range cfg.Auth.Admins {
		admins = append(admins, auth.Admin{Username: a.Username, PasswordHash: a.PasswordHash})
	}
	svc := auth.NewService(admins, key, cfg.TokenTTL())
	if !svc.HasAdmins() {
		logger.Warn().Msg("no admins configured; run hash-password and add one to auth.admins")
	}
	return svc, nil
}
