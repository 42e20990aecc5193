package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/internal/flows"
)

// SignIn exchanges credentials for an application token, resolves the profile and
// checks the optional role hint. On success the session expiry is set to now plus
// Session.Lifetime and the recurring validity check is armed.
//
// On failure no token is left behind and the store stays signed out; the error
// matches ErrInvalidCredentials, ErrRoleMismatch, ErrProfileMissing,
// ErrBackendUnavailable or ErrStorageUnavailable. If a sign-out or invalidation
// happened while SignIn was in flight the new session is discarded and
// ErrSessionSuperseded is returned.
//
// Provider notifications received while SignIn is in flight are ignored; the
// sign-in outcome decides the state.
func (s *SessionStore) SignIn(ctx context.Context, req SignInRequest) (SignInResult, error) {
	if s == nil {
		return SignInResult{}, ErrEngineNotReady
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return SignInResult{}, ErrStoreClosed
	}
	s.pendingSignIn++
	gen := s.state.Generation
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pendingSignIn--
		s.mu.Unlock()
	}()

	res := s.flows.SignIn(ctx, req.Email, req.Password, req.RoleHint)
	if res.Failure != flows.SignInFailureNone {
		err := signInError(res.Failure, res.Err)
		s.metricInc(MetricSignInFailure)
		if res.Failure == flows.SignInFailureRoleMismatch {
			s.metricInc(MetricSignInRoleMismatch)
		}
		s.logger.Info().Str("email", req.Email).Str("reason", FailureReason(err)).Msg("sign-in rejected")
		s.emitAudit(ctx, AuditSignIn, false, "", FailureReason(err), res.Err, map[string]string{"email": req.Email})
		return SignInResult{}, err
	}

	s.mu.Lock()
	if s.closed || s.state.Generation != gen {
		s.mu.Unlock()
		s.rollbackSignIn(ctx, res.Token, res.ProviderSignedIn)
		s.metricInc(MetricSignInSuperseded)
		s.logger.Info().Str("user_id", res.User.ID).Msg("sign-in superseded by concurrent sign-out")
		return SignInResult{}, ErrSessionSuperseded
	}
	s.ident = res.Identity
	s.commitLocked(authenticate(s.state, res.User, res.Expiry))
	s.armValidatorLocked()
	s.mu.Unlock()
	s.flush()

	s.metricInc(MetricSignInSuccess)
	s.logger.Info().Str("user_id", res.User.ID).Str("role", res.User.Role.String()).Time("expiry", res.Expiry).Msg("signed in")
	s.emitAudit(ctx, AuditSignIn, true, res.User.ID, "", nil, map[string]string{"role": res.User.Role.String()})

	return SignInResult{User: res.User.Clone(), Outcome: res.Outcome}, nil
}

// rollbackSignIn removes the token saved by a sign-in that did not commit. A token
// written since by another sign-in is left alone.
func (s *SessionStore) rollbackSignIn(ctx context.Context, token string, providerSignedIn bool) {
	tctx, cancel := s.teardownContext(ctx)
	defer cancel()

	if token != "" {
		if _, err := s.tokens.ClearIf(tctx, token); err != nil {
			s.logger.Warn().Err(err).Msg("sign-in rollback could not clear token")
		}
	}
	if providerSignedIn && s.provider != nil {
		if err := s.provider.SignOut(tctx); err != nil {
			s.logger.Warn().Err(err).Msg("sign-in rollback could not sign out provider")
		}
	}
}
