// Package audit keeps the append-only record of every authentication attempt
// and access decision. The log is a pure in-memory sink: entries are never
// mutated or removed, growth is unbounded here, and retention is the host's
// concern.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-secure-access/internal/config"
)

// EntryKind distinguishes the two event families in the log.
type EntryKind string

const (
	KindAuthentication EntryKind = "authentication" // Outcome of an authenticate call
	KindAccess         EntryKind = "access"         // Outcome of a secure-access check
)

// Entry is an immutable snapshot of one authentication attempt or one access
// decision, plus the instant it was logged.
type Entry struct {
	ID                   string    `json:"id,omitempty"`                     // Assigned by the log on record
	Kind                 EntryKind `json:"kind"`                             // authentication or access
	Username             string    `json:"username,omitempty"`               // Principal, when known
	Resource             string    `json:"resource,omitempty"`               // Access entries only
	AccessLevel          string    `json:"access_level,omitempty"`           // Level attached to the outcome, when any
	Granted              bool      `json:"granted"`                          // Whether the call succeeded
	RequiresSecondFactor bool      `json:"requires_second_factor,omitempty"` // Authentication entries only
	Reason               string    `json:"reason,omitempty"`                 // Outcome reason code
	OccurredAt           time.Time `json:"occurred_at"`                      // When the component produced the outcome
	LoggedAt             time.Time `json:"logged_at"`                        // Assigned by the log on record
}

// Summary is the operator-facing report of engine state.
type Summary struct {
	ActiveSessions int             `json:"active_sessions"`
	TotalEntries   int             `json:"audit_log_entries"`
	Config         config.Snapshot `json:"config"`
}

// SessionCounter reports the number of live sessions for the summary.
type SessionCounter interface {
	Count() int
}

// Log is the lock-guarded, append-only entry sequence. The zero value is not
// usable; construct with NewLog.
type Log struct {
	lock     sync.RWMutex
	entries  []Entry
	sessions SessionCounter
	snapshot config.Snapshot
	nowTime  func() time.Time
	logger   zerolog.Logger
}

// Option defines a function type to modify the Log instance.
type Option func(*Log)

// WithSessionCounter wires the live-session count into summaries.
func WithSessionCounter(counter SessionCounter) Option {
	return func(l *Log) {
		l.sessions = counter
	}
}

// WithConfigSnapshot embeds the configuration echo into summaries.
func WithConfigSnapshot(snapshot config.Snapshot) Option {
	return func(l *Log) {
		l.snapshot = snapshot
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(l *Log) {
		l.nowTime = nowFunc
	}
}

// WithLogger sets the logger entries are mirrored to at debug level
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

// NewLog initializes an empty audit log.
func NewLog(options ...Option) *Log {
	log := &Log{
		entries: make([]Entry, 0),
		nowTime: time.Now,
		logger:  zerolog.Nop(),
	}

	for _, opt := range options {
		opt(log)
	}

	return log
}

// Record appends an entry, assigning its ID and LoggedAt, and returns the
// stored snapshot. Append is the only mutation the log supports.
func (l *Log) Record(entry Entry) Entry {
	entry.ID = uuid.NewString()
	entry.LoggedAt = l.nowTime()
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = entry.LoggedAt
	}

	l.lock.Lock()
	l.entries = append(l.entries, entry)
	l.lock.Unlock()

	l.logger.Debug().
		Str("id", entry.ID).
		Str("kind", string(entry.Kind)).
		Str("username", entry.Username).
		Str("resource", entry.Resource).
		Bool("granted", entry.Granted).
		Str("reason", entry.Reason).
		Msg("audit entry recorded")

	return entry
}

// Size returns the number of recorded entries.
func (l *Log) Size() int {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return len(l.entries)
}

// Entries returns a copy of the full log in insertion order.
func (l *Log) Entries() []Entry {
	l.lock.RLock()
	defer l.lock.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Summary reports the live session count, the total entry count, and the
// configuration the engine was built with.
func (l *Log) Summary() Summary {
	active := 0
	if l.sessions != nil {
		active = l.sessions.Count()
	}
	return Summary{
		ActiveSessions: active,
		TotalEntries:   l.Size(),
		Config:         l.snapshot,
	}
}
