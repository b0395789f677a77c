package sessions

import "time"

// AccessLevel represents the coarse role attached to a Session and returned
// to resource checks.
type AccessLevel string

const (
	AccessLevelAdmin AccessLevel = "admin" // Full administrative access
	AccessLevelUser  AccessLevel = "user"  // Regular authenticated user, the default on login
	AccessLevelGuest AccessLevel = "guest" // Read-only guest access
)

// IsValid reports whether the level is one of the known access levels.
func (l AccessLevel) IsValid() bool {
	switch l {
	case AccessLevelAdmin, AccessLevelUser, AccessLevelGuest:
		return true
	}
	return false
}

// Rank orders levels for privilege comparison: admin > user > guest.
// Unknown levels rank below everything.
func (l AccessLevel) Rank() int {
	switch l {
	case AccessLevelAdmin:
		return 3
	case AccessLevelUser:
		return 2
	case AccessLevelGuest:
		return 1
	}
	return 0
}

func (l AccessLevel) String() string {
	return string(l)
}

// Session holds the state granted by one fully successful authentication.
// Sessions are owned exclusively by the Store: lookups hand out copies and no
// other component mutates a session after creation.
type Session struct {
	Token       string      // Unique bearer token produced by the token generator
	Username    string      // Authenticated principal
	AccessLevel AccessLevel // Coarse role fixed at creation
	CreatedAt   time.Time   // When the session was created
	ExpiresAt   time.Time   // CreatedAt + TTL, fixed at creation, never extended by access
}

// Expired reports whether the session deadline has passed at the given instant.
// A session is live while now <= ExpiresAt.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
