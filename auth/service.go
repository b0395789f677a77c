package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-secure-access/audit"
	"github.com/jrsteele09/go-secure-access/internal/config"
	"github.com/jrsteele09/go-secure-access/internal/metrics"
	"github.com/jrsteele09/go-secure-access/sessions"
)

// CredentialVerifier checks a username/secret pair. Rejection is
// (false, "", nil); the error is reserved for infrastructure faults inside the
// collaborator. A verifier may suggest an access level for the principal;
// empty means no suggestion.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, secret string) (bool, sessions.AccessLevel, error)
}

// SecondFactorVerifier checks a one-time code for a username. Rejection is
// (false, nil); the error is reserved for infrastructure faults.
type SecondFactorVerifier interface {
	Verify(ctx context.Context, username, code string) (bool, error)
}

// SessionCreator is the slice of the session store the engine drives on full
// success.
type SessionCreator interface {
	Create(username string, level sessions.AccessLevel, ttl time.Duration) (string, error)
}

// Recorder is the slice of the audit log the engine records outcomes to.
type Recorder interface {
	Record(entry audit.Entry) audit.Entry
}

// Deps holds all collaborator dependencies for the Service
type Deps struct {
	Store        SessionCreator       // Session creation on full success
	Audit        Recorder             // Receives exactly one entry per call
	Credentials  CredentialVerifier   // Primary credential check
	SecondFactor SecondFactorVerifier // One-time code check; may be nil when 2FA is disabled
}

// Service drives the multi-step login state machine. A caller starts
// unauthenticated and passes the credential check into the
// pending-second-factor step; authentication completes only when the code
// check also passes, and any failing step rejects the call. The service is
// stateless between calls; a caller holding the pending state simply retries
// with a code. Sessions live in the store and outcomes in the audit log; the
// service itself holds neither.
type Service struct {
	deps    Deps
	cfg     config.Security
	nowTime func() time.Time // nowTime function (injectable for testing)
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// Option defines a function type to modify the Service instance.
type Option func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithLogger sets the logger for authentication events
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics wires outcome counters; absent, nothing is recorded
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New initializes the authentication service with its required dependencies
// and a validated security configuration. Optional behavior can be provided
// via options (e.g., WithNowTime for testing). A malformed configuration
// aborts construction; the engine never runs with undefined security values.
func New(deps Deps, cfg config.Security, options ...Option) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("[auth.New] session store is required")
	}
	if deps.Audit == nil {
		return nil, errors.New("[auth.New] audit log is required")
	}
	if deps.Credentials == nil {
		return nil, errors.New("[auth.New] credential verifier is required")
	}
	if cfg.Enable2FA && deps.SecondFactor == nil {
		return nil, errors.New("[auth.New] second-factor verifier is required when 2FA is enabled")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "[auth.New] security config")
	}

	service := &Service{
		deps:    deps,
		cfg:     cfg,
		nowTime: time.Now,
		logger:  zerolog.Nop(),
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Authenticate verifies the credential pair and, when 2FA is enabled, the
// one-time code. With 2FA on and no code supplied, the call reports
// RequiresSecondFactor and creates nothing; that is a normal outcome, not an
// error.
// On full success a session is created and its bearer token returned to the
// caller; the service never retains it. Every call, whatever its path,
// records exactly one audit entry.
func (s *Service) Authenticate(ctx context.Context, username, secret, secondFactorCode string) (Result, error) {
	result := Result{Username: username, Timestamp: s.nowTime()}

	ok, suggestedLevel, err := s.deps.Credentials.Verify(ctx, username, secret)
	if err != nil {
		result.Reason = ReasonVerifierFailure
		s.record(result)
		return result, errors.Wrap(err, "Service.Authenticate credentials verify")
	}
	if !ok {
		result.Reason = ReasonInvalidCredentials
		s.record(result)
		return result, nil
	}

	if s.cfg.Enable2FA {
		if secondFactorCode == "" {
			result.RequiresSecondFactor = true
			result.Reason = ReasonSecondFactorRequired
			s.record(result)
			return result, nil
		}

		codeOK, err := s.deps.SecondFactor.Verify(ctx, username, secondFactorCode)
		if err != nil {
			result.Reason = ReasonVerifierFailure
			s.record(result)
			return result, errors.Wrap(err, "Service.Authenticate second factor verify")
		}
		if !codeOK {
			result.Reason = ReasonInvalidCode
			s.record(result)
			return result, nil
		}
	}

	level := s.grantedLevel(username, suggestedLevel)
	sessionToken, err := s.deps.Store.Create(username, level, s.cfg.Timeout())
	if err != nil {
		result.Reason = ReasonInternalError
		s.record(result)
		return result, errors.Wrap(err, "Service.Authenticate create session")
	}

	result.Authenticated = true
	result.SessionToken = sessionToken
	result.AccessLevel = level
	result.Reason = ReasonAuthenticated
	s.record(result)

	return result, nil
}

// grantedLevel applies the default-then-upgrade rule: every login starts at
// user, and a verifier suggestion is honored only when the configured level
// set contains it and it outranks the default.
func (s *Service) grantedLevel(username string, suggested sessions.AccessLevel) sessions.AccessLevel {
	level := sessions.AccessLevelUser
	if suggested == "" || suggested == level {
		return level
	}
	if !s.cfg.HasAccessLevel(suggested.String()) {
		s.logger.Warn().
			Str("username", username).
			Str("suggested_level", suggested.String()).
			Msg("credential verifier suggested an unconfigured access level")
		return level
	}
	if suggested.Rank() > level.Rank() {
		return suggested
	}
	return level
}

func (s *Service) record(result Result) {
	s.deps.Audit.Record(result.Entry())
	if s.metrics != nil {
		s.metrics.ObserveAuthentication(string(result.Reason))
	}

	s.logger.Info().
		Str("username", result.Username).
		Bool("authenticated", result.Authenticated).
		Bool("requires_second_factor", result.RequiresSecondFactor).
		Str("reason", string(result.Reason)).
		Msg("authentication outcome")
}
