package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-secure-access/access"
	"github.com/jrsteele09/go-secure-access/audit"
	"github.com/jrsteele09/go-secure-access/auth"
	"github.com/jrsteele09/go-secure-access/emails"
	"github.com/jrsteele09/go-secure-access/internal/config"
	"github.com/jrsteele09/go-secure-access/internal/metrics"
	"github.com/jrsteele09/go-secure-access/sessions"
	"github.com/jrsteele09/go-secure-access/token"
	"github.com/jrsteele09/go-secure-access/verifiers"
)

// Demo identities registered with the credential verifier at startup.
const (
	demoUser        = "alice"
	demoUserSecret  = "Correct4Horse"
	demoAdmin       = "bob"
	demoAdminSecret = "Stapler9Battery"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running coordinator: %s\n", err)
	}
	log.Printf("Coordinator finished\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname("Secure Access")

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg, err := config.Load(config.GetEnv(config.EnvConfigFile, ""))
	if err != nil {
		return err
	}

	coordinator, err := newCoordinator(cfg, logger)
	if err != nil {
		return err
	}

	return coordinator.runScenario(context.Background())
}

// coordinator bundles the wired engine, its collaborators, and the demo
// configuration. It plays the surrounding application; the pieces the engine
// treats as external, such as the verifiers and the retry-with-code flow,
// live here.
type coordinator struct {
	cfg        *config.Config
	logger     zerolog.Logger
	store      *sessions.Store
	auditLog   *audit.Log
	engine     *auth.Service
	controller *access.Controller
	codes      *verifiers.Codes
	triage     *emails.Triage
	metrics    *metrics.Metrics
}

func newCoordinator(cfg *config.Config, logger zerolog.Logger) (*coordinator, error) {
	generator := token.NewGenerator()

	store, err := sessions.NewStore(generator, sessions.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	auditLog := audit.NewLog(
		audit.WithSessionCounter(store),
		audit.WithConfigSnapshot(cfg.Security.Snapshot()),
		audit.WithLogger(logger),
	)

	engineMetrics := metrics.New(prometheus.DefaultRegisterer, store.Count)

	credentials := verifiers.NewCredentials()
	if err := credentials.Register(demoUser, demoUserSecret, sessions.AccessLevelUser); err != nil {
		return nil, err
	}
	if err := credentials.Register(demoAdmin, demoAdminSecret, sessions.AccessLevelAdmin); err != nil {
		return nil, err
	}

	codes, err := verifiers.NewCodes(generator, verifiers.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	engine, err := auth.New(auth.Deps{
		Store:        store,
		Audit:        auditLog,
		Credentials:  credentials,
		SecondFactor: codes,
	}, cfg.Security, auth.WithLogger(logger), auth.WithMetrics(engineMetrics))
	if err != nil {
		return nil, err
	}

	controller, err := access.New(store, auditLog, cfg.Security,
		access.WithLogger(logger), access.WithMetrics(engineMetrics))
	if err != nil {
		return nil, err
	}

	triage, err := emails.New(controller, cfg.Email, emails.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &coordinator{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		auditLog:   auditLog,
		engine:     engine,
		controller: controller,
		codes:      codes,
		triage:     triage,
		metrics:    engineMetrics,
	}, nil
}

// runScenario walks the full flow once: login with a pending second factor,
// retry with an issued code, secure the resource catalog, run one gated
// email triage batch, then sweep and report.
func (c *coordinator) runScenario(ctx context.Context) error {
	first, err := c.engine.Authenticate(ctx, demoUser, demoUserSecret, "")
	if err != nil {
		return err
	}

	sessionToken := first.SessionToken
	if first.RequiresSecondFactor {
		code, err := c.codes.Issue(demoUser)
		if err != nil {
			return err
		}

		second, err := c.engine.Authenticate(ctx, demoUser, demoUserSecret, code)
		if err != nil {
			return err
		}
		if !second.Authenticated {
			return fmt.Errorf("authentication failed: %s", second.Reason)
		}
		sessionToken = second.SessionToken
	} else if !first.Authenticated {
		return fmt.Errorf("authentication failed: %s", first.Reason)
	}

	secured := c.controller.EnableSecureAccess([]string{
		emails.ResourceEmailSystem, "file_storage", "user_dashboard", "api_gateway", "database",
	})
	c.logger.Info().Int("resources_secured", secured.ResourcesSecured).Msg("secure access enabled")

	report, err := c.triage.Process(sessionToken)
	if err != nil {
		return err
	}
	for _, category := range emails.Categories() {
		c.logger.Info().
			Str("category", string(category)).
			Int("count", report.ByCategory[category]).
			Msg("triage bucket")
	}

	swept := c.store.SweepExpired()
	c.metrics.AddSwept(swept)

	summary := c.auditLog.Summary()
	c.logger.Info().
		Int("active_sessions", summary.ActiveSessions).
		Int("audit_log_entries", summary.TotalEntries).
		Bool("2fa_enabled", summary.Config.Enable2FA).
		Bool("encryption_enabled", summary.Config.EncryptionEnabled).
		Int("session_timeout", summary.Config.SessionTimeoutSeconds).
		Strs("access_levels", summary.Config.AccessLevels).
		Msg("security status")

	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
