package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/roles"
)

var zeroTime time.Time

// CheckValidity re-validates the current session and tears it down if the token
// is missing or rejected, the user or organization subscription lapsed, the
// session expiry elapsed, or the provider and token disagree.
//
// Concurrent and repeated calls are safe: a session already cleared by one call
// is not cleared again by the next. Calls made while Initialize or SignIn is in
// flight are skipped, and so is a check whose ctx ends before it decides.
func (s *SessionStore) CheckValidity(ctx context.Context) (ValidityResult, error) {
	if s == nil {
		return ValidityResult{}, ErrEngineNotReady
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ValidityResult{}, ErrStoreClosed
	}
	if s.state.Loading() || s.pendingSignIn > 0 {
		s.mu.Unlock()
		return ValidityResult{Skipped: true}, nil
	}
	gen := s.state.Generation
	authenticated := s.state.Authenticated()
	expiry := s.state.Expiry
	userID := ""
	if s.state.User != nil {
		userID = s.state.User.ID
	}
	s.mu.Unlock()

	s.metricInc(MetricValidityCheck)
	start := time.Now()
	decision := s.flows.Validity(ctx, authenticated, expiry)
	if s.metrics.LatencyEnabled() {
		s.metrics.Observe(MetricValidityLatency, time.Since(start))
	}

	switch decision.Verdict {
	case flows.VerdictValid:
		return ValidityResult{Valid: true}, nil
	case flows.VerdictSignedOut:
		return ValidityResult{}, nil
	case flows.VerdictUndecided:
		s.logger.Debug().Err(decision.Err).Msg("validity check cancelled before a verdict")
		return ValidityResult{Skipped: true}, nil
	}

	cleared := s.invalidate(ctx, gen, userID, decision.Reason, decision.Err)
	return ValidityResult{Cleared: cleared, Reason: decision.Reason}, nil
}

// invalidate clears every session artifact unless the store is closed, the state
// moved past gen, or another teardown is already running. It reports whether it
// did the clearing. An inconsistent leftover token is also revoked remotely.
func (s *SessionStore) invalidate(ctx context.Context, gen uint64, userID string, reason InvalidationReason, cause error) bool {
	s.mu.Lock()
	if s.closed || s.state.Generation != gen || s.state.Phase == PhaseInvalidating {
		s.mu.Unlock()
		return false
	}
	s.commitLocked(beginInvalidate(s.state))
	s.stopValidatorLocked()
	s.mu.Unlock()
	s.flush()

	tctx, cancel := s.teardownContext(ctx)
	res := s.flows.Teardown(tctx, reason == InvalidationInconsistent)
	cancel()
	if res.Err != nil {
		s.logger.Warn().Err(res.Err).Msg("session cleanup incomplete")
	}
	s.resolver.Cache().Clear()

	s.mu.Lock()
	s.ident = identityZero
	s.commitLocked(clearState(s.state))
	s.mu.Unlock()
	s.flush()

	s.metricInc(MetricSessionInvalidated)
	eventType := AuditInvalidated
	switch {
	case reason == InvalidationInconsistent:
		s.metricInc(MetricInconsistentRepaired)
		eventType = AuditInconsistentRepaired
	case reason.Expiry():
		s.metricInc(MetricExpiryEnforced)
	}
	s.logInvalidation(userID, reason, cause)
	s.emitAudit(ctx, eventType, true, userID, string(reason), cause, map[string]string{
		"purged_provider_tokens": itoa(res.Purged),
	})
	return true
}

// SubscriptionValid reports whether the signed-in user may use subscription-gated
// views. super_admin is always allowed. The Backend Session Service flags decide;
// when it cannot be reached the cached organization's subscription end is used.
func (s *SessionStore) SubscriptionValid(ctx context.Context) bool {
	snap := s.Snapshot()
	if snap.User == nil {
		return false
	}
	if snap.User.Role == roles.SuperAdmin {
		return true
	}

	if token, ok, err := s.tokens.Load(ctx); err == nil && ok {
		v, err := s.backend.ValidateSession(ctx, token)
		if err == nil && v.Valid {
			return !v.OrganizationExpired && !v.UserExpired
		}
		if err != nil {
			s.logger.Debug().Err(err).Msg("subscription check fell back to cached organization")
		}
	}
	return snap.User.Organization.SubscriptionActive(s.now())
}
