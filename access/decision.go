package access

import (
	"time"

	"github.com/jrsteele09/go-secure-access/audit"
	"github.com/jrsteele09/go-secure-access/sessions"
)

// Reason explains an access decision.
type Reason string

const (
	ReasonGranted      Reason = "granted"       // Live session found; access allowed
	ReasonInvalidToken Reason = "invalid_token" // Unknown token, or expired and already evicted
	ReasonExpired      Reason = "expired"       // Only produced by stores that report expiry distinctly; the in-memory store evicts on lookup, so callers observe invalid_token instead
)

// Decision reports one secure-access check for a named resource.
type Decision struct {
	Resource    string               // Resource the caller presented the token for
	Granted     bool                 // Whether access is allowed
	Reason      Reason               // Outcome reason code
	Username    string               // Principal behind the token, when granted
	AccessLevel sessions.AccessLevel // Level attached to the session, when granted
	Timestamp   time.Time            // When the decision was rendered
}

// Entry converts the decision into its immutable audit snapshot.
func (d Decision) Entry() audit.Entry {
	return audit.Entry{
		Kind:        audit.KindAccess,
		Username:    d.Username,
		Resource:    d.Resource,
		AccessLevel: d.AccessLevel.String(),
		Granted:     d.Granted,
		Reason:      string(d.Reason),
		OccurredAt:  d.Timestamp,
	}
}

// ResourceStatus echoes the configuration governing one secured resource.
// The flags are advisory: gating happens only in SecureAccess.
type ResourceStatus struct {
	Resource            string `json:"resource"`
	EncryptionEnabled   bool   `json:"encryption_enabled"`
	SecondFactorEnabled bool   `json:"2fa_required"`
}

// SecuredResources reports a bulk EnableSecureAccess call.
type SecuredResources struct {
	ResourcesSecured int              `json:"resources_secured"`
	PerResource      []ResourceStatus `json:"details"`
}
