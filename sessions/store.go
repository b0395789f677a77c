package sessions

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	apperrors "github.com/jrsteele09/go-secure-access/internal/errors"
)

// TokenSource produces the unguessable bearer tokens the store hands out.
type TokenSource interface {
	NewSessionToken() (string, error)
}

// Store is the single owner of the token → session mapping and its expiry.
// Every mutation happens under the lock: sessions are created here, evicted
// lazily when a lookup finds them past their deadline, or removed in bulk by
// an explicit sweep. The zero value is not usable; construct with NewStore.
type Store struct {
	source  TokenSource
	lock    sync.RWMutex
	byToken map[string]*Session
	nowTime func() time.Time
	logger  zerolog.Logger
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// WithLogger sets the logger used for session lifecycle events
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore initializes a session store backed by a lock-guarded map.
// Optional configuration can be provided via options (e.g., WithNowTime for testing).
func NewStore(source TokenSource, options ...StoreOption) (*Store, error) {
	if source == nil {
		return nil, errors.New("[NewStore] token source is required")
	}

	store := &Store{
		source:  source,
		byToken: make(map[string]*Session),
		nowTime: time.Now,
		logger:  zerolog.Nop(),
	}

	for _, opt := range options {
		opt(store)
	}

	return store, nil
}

// Create inserts a new session for username with the given access level and
// TTL and returns the fresh bearer token. The expiry is fixed here and never
// extended by later access.
func (s *Store) Create(username string, level AccessLevel, ttl time.Duration) (string, error) {
	token, err := s.source.NewSessionToken()
	if err != nil {
		return "", errors.Wrap(err, "Store.Create NewSessionToken")
	}

	now := s.nowTime()
	session := &Session{
		Token:       token,
		Username:    username,
		AccessLevel: level,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}

	s.lock.Lock()
	s.byToken[token] = session
	s.lock.Unlock()

	s.logger.Debug().
		Str("username", username).
		Str("access_level", level.String()).
		Time("expires_at", session.ExpiresAt).
		Msg("session created")

	return token, nil
}

// Lookup returns a copy of the session for the given token, or
// ErrSessionNotFound. A session found past its deadline is deleted as part of
// this call and reported as not found: eviction is a side effect of lookup,
// never of background timing.
func (s *Store) Lookup(token string) (*Session, error) {
	s.lock.RLock()
	session, ok := s.byToken[token]
	if ok && !session.Expired(s.nowTime()) {
		snapshot := *session
		s.lock.RUnlock()
		return &snapshot, nil
	}
	s.lock.RUnlock()

	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}

	// Expired: eviction counts as a write, so take the write lock and
	// re-check in case a concurrent sweep got there first.
	s.lock.Lock()
	if session, ok := s.byToken[token]; ok && session.Expired(s.nowTime()) {
		delete(s.byToken, token)
		s.logger.Debug().
			Str("username", session.Username).
			Time("expired_at", session.ExpiresAt).
			Msg("expired session evicted on lookup")
	}
	s.lock.Unlock()

	return nil, apperrors.ErrSessionNotFound
}

// SweepExpired removes every session past its deadline and returns how many
// were removed. Intended for periodic invocation by the host application;
// lookups never depend on it having run.
func (s *Store) SweepExpired() int {
	now := s.nowTime()

	s.lock.Lock()
	removed := 0
	for token, session := range s.byToken {
		if session.Expired(now) {
			delete(s.byToken, token)
			removed++
		}
	}
	s.lock.Unlock()

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("expired sessions swept")
	}
	return removed
}

// Count returns the number of live sessions. Entries past their deadline but
// not yet evicted are neither counted nor touched.
func (s *Store) Count() int {
	now := s.nowTime()

	s.lock.RLock()
	defer s.lock.RUnlock()

	count := 0
	for _, session := range s.byToken {
		if !session.Expired(now) {
			count++
		}
	}
	return count
}
