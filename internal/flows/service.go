package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/roles"
)

// Service is the flow runner built once by the root SessionStore.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	deps.Restore.Token = deps.Token
	deps.Validity.Token = deps.Token
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Token.LoadToken != nil && s.deps.Token.ValidateToken != nil
}

func (s Service) SignIn(ctx context.Context, email, password string, roleHint roles.Role) SignInResult {
	return RunSignIn(ctx, email, password, roleHint, s.deps.SignIn)
}

func (s Service) Teardown(ctx context.Context, withBackendLogout bool) TeardownResult {
	deps := s.deps.Teardown
	if !withBackendLogout {
		deps.BackendLogout = nil
	}
	return RunTeardown(ctx, deps)
}

func (s Service) Restore(ctx context.Context, sess identity.Session, expiry time.Time) RestoreResult {
	deps := s.deps.Restore
	deps.Expiry = expiry
	return RunRestore(ctx, sess, deps)
}

func (s Service) Validity(ctx context.Context, authenticated bool, expiry time.Time) ValidityDecision {
	deps := s.deps.Validity
	deps.Authenticated = authenticated
	deps.Expiry = expiry
	return RunValidity(ctx, deps)
}
