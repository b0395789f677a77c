package access

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-secure-access/audit"
	"github.com/jrsteele09/go-secure-access/internal/config"
	"github.com/jrsteele09/go-secure-access/internal/metrics"
	"github.com/jrsteele09/go-secure-access/sessions"
)

// SessionReader is the slice of the session store the controller consults.
// Lookup evicts expired sessions as its own side effect, so the controller
// never sees one.
type SessionReader interface {
	Lookup(token string) (*sessions.Session, error)
}

// Recorder is the slice of the audit log decisions are recorded to.
type Recorder interface {
	Record(entry audit.Entry) audit.Entry
}

// Controller renders access decisions for bearer tokens against named
// resources, and keeps the registry of resources marked as governed by the
// current security configuration.
type Controller struct {
	store    SessionReader
	auditLog Recorder
	cfg      config.Security
	lock     sync.RWMutex
	secured  map[string]ResourceStatus
	nowTime  func() time.Time // nowTime function (injectable for testing)
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// Option defines a function type to modify the Controller instance.
type Option func(*Controller)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Controller) {
		c.nowTime = nowFunc
	}
}

// WithLogger sets the logger for access events
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics wires decision counters; absent, nothing is recorded
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// New initializes the access controller with its required dependencies and a
// validated security configuration.
func New(store SessionReader, auditLog Recorder, cfg config.Security, options ...Option) (*Controller, error) {
	if store == nil {
		return nil, errors.New("[access.New] session store is required")
	}
	if auditLog == nil {
		return nil, errors.New("[access.New] audit log is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "[access.New] security config")
	}

	controller := &Controller{
		store:    store,
		auditLog: auditLog,
		cfg:      cfg,
		secured:  make(map[string]ResourceStatus),
		nowTime:  time.Now,
		logger:   zerolog.Nop(),
	}

	for _, opt := range options {
		opt(controller)
	}

	return controller, nil
}

// SecureAccess renders the decision for a bearer token presented against a
// named resource. A token that resolves to a live session is granted, with
// the session's principal and level attached; any other token is denied.
// Unknown and expired tokens are indistinguishable here because the store
// evicts expired sessions during the lookup itself. Exactly one audit entry
// is recorded per call.
func (c *Controller) SecureAccess(token, resource string) Decision {
	decision := Decision{Resource: resource, Timestamp: c.nowTime()}

	session, err := c.store.Lookup(token)
	if err != nil {
		decision.Reason = ReasonInvalidToken
		c.record(decision)
		return decision
	}

	decision.Granted = true
	decision.Reason = ReasonGranted
	decision.Username = session.Username
	decision.AccessLevel = session.AccessLevel
	c.record(decision)

	return decision
}

// EnableSecureAccess marks each named resource as governed by the current
// security configuration and echoes the advisory flags back, one status per
// requested name. It configures reporting only; access is gated exclusively
// by SecureAccess, so no audit entries are recorded here.
func (c *Controller) EnableSecureAccess(resources []string) SecuredResources {
	statuses := make([]ResourceStatus, 0, len(resources))

	c.lock.Lock()
	for _, resource := range resources {
		status := ResourceStatus{
			Resource:            resource,
			EncryptionEnabled:   c.cfg.EncryptionEnabled,
			SecondFactorEnabled: c.cfg.Enable2FA,
		}
		c.secured[resource] = status
		statuses = append(statuses, status)
	}
	c.lock.Unlock()

	c.logger.Info().
		Int("resources", len(statuses)).
		Bool("encryption_enabled", c.cfg.EncryptionEnabled).
		Bool("second_factor_enabled", c.cfg.Enable2FA).
		Msg("resources secured")

	return SecuredResources{ResourcesSecured: len(statuses), PerResource: statuses}
}

// Secured lists the currently secured resources in name order.
func (c *Controller) Secured() []ResourceStatus {
	c.lock.RLock()
	out := make([]ResourceStatus, 0, len(c.secured))
	for _, status := range c.secured {
		out = append(out, status)
	}
	c.lock.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Resource < out[j].Resource })
	return out
}

func (c *Controller) record(decision Decision) {
	c.auditLog.Record(decision.Entry())
	if c.metrics != nil {
		c.metrics.ObserveDecision(string(decision.Reason))
	}

	c.logger.Info().
		Str("resource", decision.Resource).
		Str("username", decision.Username).
		Bool("granted", decision.Granted).
		Str("reason", string(decision.Reason)).
		Msg("access decision")
}
