package goSession

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/internal/flows"
)

var (
	// ErrInvalidCredentials is returned by SignIn when the email/password pair is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRoleMismatch is returned by SignIn when the resolved role differs from the role hint.
	ErrRoleMismatch = errors.New("role mismatch")
	// ErrProfileMissing is returned by SignIn when no real profile could be read or created.
	ErrProfileMissing = errors.New("profile missing")
	// ErrBackendUnavailable wraps transient Backend Session Service failures.
	ErrBackendUnavailable = errors.New("session backend unavailable")
	// ErrStorageUnavailable wraps durable token storage failures.
	ErrStorageUnavailable = errors.New("token storage unavailable")
	// ErrSessionSuperseded is returned when a concurrent sign-out or invalidation
	// cleared the session while the operation was in flight.
	ErrSessionSuperseded = errors.New("session superseded")
	// ErrNotAuthenticated is returned by operations that need a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStoreClosed is returned by every operation after Close.
	ErrStoreClosed = errors.New("session store closed")
	// ErrAlreadyInitialized is returned by a second Initialize call.
	ErrAlreadyInitialized = errors.New("session store already initialized")
	// ErrEngineNotReady is returned when a SessionStore was not built through Builder.
	ErrEngineNotReady = errors.New("session store not initialized")
)

// Failure reasons reported by FailureReason. They are stable strings meant for
// form errors.
const (
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonRoleMismatch       = "role_mismatch"
	ReasonProfileMissing     = "profile_missing"
	ReasonUnavailable        = "unavailable"
	ReasonSuperseded         = "superseded"
	ReasonNotAuthenticated   = "not_authenticated"
	ReasonUnknown            = "unknown"
)

// FailureReason maps an error returned by a SessionStore operation to a stable
// reason string. A nil error maps to "".
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return ReasonInvalidCredentials
	case errors.Is(err, ErrRoleMismatch):
		return ReasonRoleMismatch
	case errors.Is(err, ErrProfileMissing):
		return ReasonProfileMissing
	case errors.Is(err, ErrBackendUnavailable), errors.Is(err, ErrStorageUnavailable):
		return ReasonUnavailable
	case errors.Is(err, ErrSessionSuperseded), errors.Is(err, ErrStoreClosed):
		return ReasonSuperseded
	case errors.Is(err, ErrNotAuthenticated):
		return ReasonNotAuthenticated
	default:
		return ReasonUnknown
	}
}

// InvalidationReason explains why a session was torn down.
type InvalidationReason = flows.Reason

const (
	InvalidationInconsistent        = flows.ReasonInconsistent
	InvalidationTokenMissing        = flows.ReasonTokenMissing
	InvalidationTokenInvalid        = flows.ReasonTokenInvalid
	InvalidationOrganizationExpired = flows.ReasonOrganizationExpired
	InvalidationUserExpired         = flows.ReasonUserExpired
	InvalidationSessionExpired      = flows.ReasonSessionExpired
	InvalidationBackendUnavailable  = flows.ReasonBackendUnavailable
)

func signInError(kind flows.SignInFailureKind, cause error) error {
	var base error
	switch kind {
	case flows.SignInFailureNone:
		return nil
	case flows.SignInFailureInvalidCredentials:
		base = ErrInvalidCredentials
	case flows.SignInFailureRoleMismatch:
		base = ErrRoleMismatch
	case flows.SignInFailureProfileMissing:
		base = ErrProfileMissing
	case flows.SignInFailureStorage:
		base = ErrStorageUnavailable
	default:
		base = ErrBackendUnavailable
	}
	if cause == nil {
		return base
	}
	return fmt.Errorf("%w: %w", base, cause)
}
