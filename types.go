package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/profile"
	"github.com/MrEthical07/goSession/roles"
)

// AuthenticatedUser is the current user exposed by a [SessionStore]: the profile
// with its organization attached.
type AuthenticatedUser = profile.User

// Role is an application role.
type Role = roles.Role

// IdentityProvider is the external identity service whose session the store
// mirrors.
type IdentityProvider = identity.Provider

// DataStore reads and provisions profile rows.
type DataStore = profile.DataStore

// LoginResponse is what the Backend Session Service returns for valid credentials.
type LoginResponse struct {
	ApplicationToken string
	UserID           string
}

// SessionValidation is the Backend Session Service verdict on an application token.
type SessionValidation struct {
	Valid               bool
	OrganizationExpired bool
	UserExpired         bool
}

// BackendSessionService issues, revokes and validates application tokens.
//
// Login must return an error matching [ErrInvalidCredentials] (directly or via
// IsInvalidCredentials on the adapter) for rejected credentials. Any other error is
// treated as a transient failure.
type BackendSessionService interface {
	Login(ctx context.Context, email, password string) (LoginResponse, error)
	Logout(ctx context.Context, applicationToken string) error
	ValidateSession(ctx context.Context, applicationToken string) (SessionValidation, error)
}

// SignInRequest carries SignIn arguments. RoleHint, when set, must equal the
// resolved profile role exactly.
type SignInRequest struct {
	Email    string
	Password string
	RoleHint Role
}

// SignInResult describes a successful SignIn.
type SignInResult struct {
	User    AuthenticatedUser
	Outcome profile.Outcome
}

// ValidityResult reports what CheckValidity decided and did.
type ValidityResult struct {
	// Valid is true when the session was kept.
	Valid bool
	// Cleared is true when this call tore the session down.
	Cleared bool
	// Reason is set when Cleared is true.
	Reason InvalidationReason
	// Skipped is true when the check did not run because an Initialize or SignIn
	// was still in flight.
	Skipped bool
}
