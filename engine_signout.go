package goSession

import (
	"context"
)

// SignOut revokes the application token, signs the identity provider out, purges
// provider tokens from durable storage, clears the profile cache and the session
// expiry, and cancels the recurring validity check.
//
// Cleanup failures are logged, not returned: after SignOut the store is always
// signed out. Any sign-in or restore in flight is superseded.
func (s *SessionStore) SignOut(ctx context.Context) error {
	if s == nil {
		return ErrEngineNotReady
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	userID := ""
	if s.state.User != nil {
		userID = s.state.User.ID
	}
	s.commitLocked(beginInvalidate(s.state))
	s.stopValidatorLocked()
	s.mu.Unlock()
	s.flush()

	tctx, cancel := s.teardownContext(ctx)
	res := s.flows.Teardown(tctx, true)
	cancel()
	if res.Err != nil {
		s.logger.Warn().Err(res.Err).Str("user_id", userID).Msg("sign-out cleanup incomplete")
	}
	s.resolver.Cache().Clear()

	s.mu.Lock()
	s.ident = identityZero
	s.commitLocked(clearState(s.state))
	s.mu.Unlock()
	s.flush()

	s.metricInc(MetricSignOut)
	s.logger.Info().Str("user_id", userID).Int("purged_provider_tokens", res.Purged).Msg("signed out")
	s.emitAudit(ctx, AuditSignOut, res.Err == nil, userID, "", res.Err, nil)
	return nil
}
