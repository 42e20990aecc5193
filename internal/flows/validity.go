package flows

import (
	"context"
	"time"
)

// Reason classifies why a session had to be torn down.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonInconsistent        Reason = "inconsistent"
	ReasonTokenMissing        Reason = "token_missing"
	ReasonTokenInvalid        Reason = "token_invalid"
	ReasonOrganizationExpired Reason = "organization_expired"
	ReasonUserExpired         Reason = "user_expired"
	ReasonSessionExpired      Reason = "session_expired"
	ReasonBackendUnavailable  Reason = "backend_unavailable"
)

// Expiry reports whether r is a business-rule lapse rather than a token or
// consistency problem.
func (r Reason) Expiry() bool {
	switch r {
	case ReasonOrganizationExpired, ReasonUserExpired, ReasonSessionExpired:
		return true
	}
	return false
}

// Verdict is the outcome class of a validity check.
type Verdict uint8

const (
	// VerdictValid means the session stays as it is.
	VerdictValid Verdict = iota
	// VerdictSignedOut means there is no session and nothing to clear.
	VerdictSignedOut
	// VerdictInvalidate means every session artifact must be cleared.
	VerdictInvalidate
	// VerdictUndecided means the check was cancelled before it reached a verdict.
	VerdictUndecided
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictSignedOut:
		return "signed_out"
	case VerdictInvalidate:
		return "invalidate"
	case VerdictUndecided:
		return "undecided"
	default:
		return "unknown"
	}
}

// ValidityDecision is the result of RunValidity.
type ValidityDecision struct {
	Verdict Verdict
	Reason  Reason
	Err     error
}

// ValidityDeps captures validity-check dependencies and the in-memory state the
// check was started from.
type ValidityDeps struct {
	Token              TokenDeps
	ProviderHasSession func(context.Context) (bool, error)
	Now                func() time.Time

	Authenticated bool
	Expiry        time.Time
}

// RunValidity decides whether the current session is still valid.
//
// Without a stored token, a live provider session is an inconsistent state that
// must be repaired. With a token, the Backend Session Service verdict and its
// subscription flags are consulted first, then the local session expiry. Transient
// failures resolve to invalidation so the subject ends up signed out. A check whose
// ctx ends before a verdict is Undecided and changes nothing.
func RunValidity(ctx context.Context, deps ValidityDeps) ValidityDecision {
	_, reason, err := checkToken(ctx, deps.Token)
	if ctx.Err() != nil {
		return ValidityDecision{Verdict: VerdictUndecided, Err: ctx.Err()}
	}

	if reason == ReasonTokenMissing {
		if deps.ProviderHasSession != nil {
			live, perr := deps.ProviderHasSession(ctx)
			if ctx.Err() != nil {
				return ValidityDecision{Verdict: VerdictUndecided, Err: ctx.Err()}
			}
			if perr == nil && live {
				return ValidityDecision{Verdict: VerdictInvalidate, Reason: ReasonInconsistent}
			}
		}
		if deps.Authenticated {
			return ValidityDecision{Verdict: VerdictInvalidate, Reason: ReasonTokenMissing}
		}
		return ValidityDecision{Verdict: VerdictSignedOut}
	}

	if reason != ReasonNone {
		return ValidityDecision{Verdict: VerdictInvalidate, Reason: reason, Err: err}
	}

	// A valid token with nobody signed in is left over from an earlier process.
	if !deps.Authenticated {
		return ValidityDecision{Verdict: VerdictInvalidate, Reason: ReasonInconsistent}
	}

	if !deps.Expiry.IsZero() && !deps.Now().Before(deps.Expiry) {
		return ValidityDecision{Verdict: VerdictInvalidate, Reason: ReasonSessionExpired}
	}
	return ValidityDecision{Verdict: VerdictValid}
}
