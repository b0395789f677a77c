package auth

import (
	"time"

	"github.com/jrsteele09/go-secure-access/audit"
	"github.com/jrsteele09/go-secure-access/sessions"
)

// Reason explains an authentication outcome.
type Reason string

const (
	ReasonAuthenticated        Reason = "authenticated"          // Full success; a session was created
	ReasonSecondFactorRequired Reason = "second_factor_required" // Credentials accepted, awaiting a code
	ReasonInvalidCredentials   Reason = "invalid_credentials"    // Credential verifier rejected the pair
	ReasonInvalidCode          Reason = "invalid_code"           // Second-factor verifier rejected the code
	ReasonVerifierFailure      Reason = "verifier_failure"       // A verifier failed to answer at all
	ReasonInternalError        Reason = "internal_error"         // Session creation failed
)

// Result reports one authenticate call. Expected outcomes travel here as
// values, including rejections and a missing second factor; the error return
// of Authenticate is reserved for infrastructure faults.
type Result struct {
	Authenticated        bool                 // True only after every required step passed
	RequiresSecondFactor bool                 // Credentials accepted; caller must retry with a code
	SessionToken         string               // Bearer token for the created session, on success only
	AccessLevel          sessions.AccessLevel // Level attached to the session, on success only
	Username             string               // Principal the call was made for
	Reason               Reason               // Outcome reason code
	Timestamp            time.Time            // When the engine produced this outcome
}

// Entry converts the result into its immutable audit snapshot. The session
// token never enters the audit trail.
func (r Result) Entry() audit.Entry {
	return audit.Entry{
		Kind:                 audit.KindAuthentication,
		Username:             r.Username,
		AccessLevel:          r.AccessLevel.String(),
		Granted:              r.Authenticated,
		RequiresSecondFactor: r.RequiresSecondFactor,
		Reason:               string(r.Reason),
		OccurredAt:           r.Timestamp,
	}
}
