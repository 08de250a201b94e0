package main

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/gympal/internal/coach"
	"github.com/myrjola/gympal/internal/envstruct"
	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/flightrecorder"
	"github.com/myrjola/gympal/internal/gym"
	"github.com/myrjola/gympal/internal/logging"
	"github.com/myrjola/gympal/internal/metrics"
	"github.com/myrjola/gympal/internal/sqlite"
	"github.com/myrjola/gympal/internal/webauthnhandler"
)

type application struct {
	logger          *slog.Logger
	webAuthnHandler *webauthnhandler.WebAuthnHandler
	sessionManager  *scs.SessionManager
	templateFS      fs.FS
	db              *sqlite.Database
	gym             *gym.Service
	coach           *coach.Service
	metrics         *metrics.Manager
	flightRecorder  *flightrecorder.Recorder
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "read configuration")
	}
	templates, err := uiDir("templates", cfg.TemplatePath)
	if err != nil {
		return errors.Wrap(err, "locate templates")
	}
	strategy, err := gym.StrategyByName(cfg.Progression)
	if err != nil {
		return errors.Wrap(err, "select progression", slog.String("progression", cfg.Progression))
	}
	rng, err := cfg.rotationRand()
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry()
	metricsManager := metrics.NewDefaultManager(registry)
	if cfg.MetricsAddr != "" {
		metrics.Launch(ctx, cfg.MetricsAddr, registry, logger)
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open database", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(context.WithoutCancel(ctx), slog.LevelWarn, "close database", errors.SlogError(closeErr))
		}
	}()

	sessions := newSessionManager(db, cfg.SessionLifetime)
	passkeys, err := webauthnhandler.New(cfg.Addr, cfg.relyingParty(), logger, sessions, db)
	if err != nil {
		return errors.Wrap(err, "configure passkeys")
	}
	gymService, err := gym.NewService(db, logger, gym.ServiceConfig{
		Strategy: strategy,
		Rand:     rng,
		Now:      time.Now,
		Recorder: metricsManager,
	})
	if err != nil {
		return errors.Wrap(err, "new gym service")
	}

	var recorder *flightrecorder.Recorder
	if cfg.TracesDir != "" {
		recorder, err = flightrecorder.New(flightrecorder.Config{
			Directory: cfg.TracesDir,
			Window:    cfg.TraceWindow,
			MaxBytes:  0,
			Cooldown:  0,
			Now:       time.Now,
		}, logger)
		if err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(context.WithoutCancel(ctx))
	}

	app := application{
		logger:          logger,
		webAuthnHandler: passkeys,
		sessionManager:  sessions,
		templateFS:      os.DirFS(templates),
		db:              db,
		gym:             gymService,
		coach:           coach.NewService(db, coach.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger), logger, metricsManager),
		metrics:         metricsManager,
		flightRecorder:  recorder,
	}
	handler, err := app.routes()
	if err != nil {
		return errors.Wrap(err, "build routes")
	}
	if err = app.configureAndStartServer(ctx, cfg.Addr, metricsManager.RequestMetrics(handler)); err != nil {
		return errors.Wrap(err, "serve")
	}
	return nil
}

// newSessionManager keeps sessions in the sessions table behind a strict, secure cookie.
func newSessionManager(db *sqlite.Database, lifetime time.Duration) *scs.SessionManager {
	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(db.ReadWrite, 24*time.Hour) //nolint:mnd // day
	sessionManager.Lifetime = lifetime
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	return sessionManager
}

func main() {
	ctx := context.Background()
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	})))
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "gympal stopped", errors.SlogError(err))
		os.Exit(1)
	}
}
