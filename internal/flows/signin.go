package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/profile"
	"github.com/MrEthical07/goSession/roles"
)

// SignInFailureKind classifies sign-in failures for root-level error mapping.
type SignInFailureKind int

const (
	SignInFailureNone SignInFailureKind = iota
	SignInFailureInvalidCredentials
	SignInFailureRoleMismatch
	SignInFailureProfileMissing
	SignInFailureUnavailable
	SignInFailureStorage
)

// SignInDeps captures sign-in dependencies.
type SignInDeps struct {
	// Login exchanges credentials with the Backend Session Service and returns the
	// application token with the user id it belongs to.
	Login func(ctx context.Context, email, password string) (token, userID string, err error)
	// IsInvalidCredentials reports whether err from Login or ProviderSignIn is a
	// credential rejection.
	IsInvalidCredentials func(error) bool
	SaveToken            func(context.Context, string) error
	// ProviderSignIn is optional. When set, the identity comes from the provider
	// session instead of the backend's user id.
	ProviderSignIn func(ctx context.Context, email, password string) (*identity.Session, error)
	ResolveProfile func(context.Context, identity.Identity) profile.Result
	// Rollback undoes a partially completed sign-in. providerSignedIn is true when
	// ProviderSignIn succeeded.
	Rollback func(ctx context.Context, token string, providerSignedIn bool)
	Now      func() time.Time
	Lifetime time.Duration
}

// SignInResult is the classified outcome of RunSignIn.
type SignInResult struct {
	Failure  SignInFailureKind
	Err      error
	User     profile.User
	Outcome  profile.Outcome
	Token    string
	Expiry   time.Time
	Identity identity.Identity
	// ProviderSignedIn reports whether a provider session was opened. Callers that
	// discard a successful result must roll it back.
	ProviderSignedIn bool
}

// RunSignIn performs credential exchange, token persistence, profile resolution
// and role-hint verification. Any failure after the token is saved is rolled back
// before returning.
func RunSignIn(ctx context.Context, email, password string, roleHint roles.Role, deps SignInDeps) SignInResult {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return SignInResult{Failure: SignInFailureInvalidCredentials}
	}

	token, userID, err := deps.Login(ctx, email, password)
	if err != nil {
		return SignInResult{Failure: classifyCredentialErr(err, deps), Err: err}
	}

	if err := deps.SaveToken(ctx, token); err != nil {
		return SignInResult{Failure: SignInFailureStorage, Err: err}
	}

	ident := identity.Identity{ID: userID, Email: email}
	providerSignedIn := false
	if deps.ProviderSignIn != nil {
		sess, err := deps.ProviderSignIn(ctx, email, password)
		if err != nil {
			deps.Rollback(ctx, token, false)
			return SignInResult{Failure: classifyCredentialErr(err, deps), Err: err}
		}
		providerSignedIn = true
		if sess != nil && sess.Identity.ID != "" {
			ident = sess.Identity
		}
	}

	res := deps.ResolveProfile(ctx, ident)
	if res.User.Placeholder {
		deps.Rollback(ctx, token, providerSignedIn)
		err := res.Err
		if err == nil {
			err = errors.New("profile unavailable")
		}
		return SignInResult{Failure: SignInFailureProfileMissing, Err: err}
	}
	if roleHint != "" && res.User.Role != roleHint {
		deps.Rollback(ctx, token, providerSignedIn)
		return SignInResult{Failure: SignInFailureRoleMismatch}
	}

	return SignInResult{
		User:             res.User,
		Outcome:          res.Outcome,
		Token:            token,
		Expiry:           deps.Now().Add(deps.Lifetime),
		Identity:         ident,
		ProviderSignedIn: providerSignedIn,
	}
}

func classifyCredentialErr(err error, deps SignInDeps) SignInFailureKind {
	if deps.IsInvalidCredentials != nil && deps.IsInvalidCredentials(err) {
		return SignInFailureInvalidCredentials
	}
	return SignInFailureUnavailable
}
