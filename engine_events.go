package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/identity"
)

// bridgeSink adapts a SessionStore to identity.Sink without widening the store's
// public API.
type bridgeSink struct {
	s *SessionStore
}

func (b bridgeSink) Ready() bool {
	return b.s.Ready()
}

// Restore re-runs the startup checks for a session reported by the provider after
// startup. The expiry set by an earlier sign-in is kept when the user is unchanged.
func (b bridgeSink) Restore(ctx context.Context, sess identity.Session) {
	s := b.s
	s.mu.Lock()
	if s.closed || s.pendingSignIn > 0 || s.state.Phase == PhaseInvalidating {
		s.mu.Unlock()
		s.logger.Debug().Str("user_id", sess.Identity.ID).Msg("provider session notification superseded")
		return
	}
	gen := s.state.Generation
	expiry := zeroTime
	if s.state.User != nil && s.state.User.ID == sess.Identity.ID {
		expiry = s.state.Expiry
	}
	s.mu.Unlock()

	result := s.flows.Restore(ctx, sess, expiry)
	if result.Aborted {
		s.logger.Debug().Str("user_id", sess.Identity.ID).Msg("provider session notification cancelled")
		return
	}
	if !result.Accepted {
		s.invalidate(ctx, gen, sess.Identity.ID, result.Reason, result.Err)
		return
	}

	s.mu.Lock()
	if s.closed || s.state.Generation != gen || s.pendingSignIn > 0 {
		s.mu.Unlock()
		return
	}
	wasAuthenticated := s.state.Authenticated()
	s.ident = sess.Identity
	s.commitLocked(replaceUser(s.state, result.User))
	if !wasAuthenticated || s.validator == nil {
		s.armValidatorLocked()
	}
	s.mu.Unlock()
	s.flush()

	s.afterProfileResolved(ctx, result.User, result.Outcome, result.Err)
	s.metricInc(MetricSessionRestored)
	s.logger.Debug().Str("user_id", result.User.ID).Msg("provider session adopted")
	s.emitAudit(ctx, AuditRestored, true, result.User.ID, "", nil, nil)
}

// Clear drops in-memory session state after the provider reported its session
// gone. Durable tokens are left for the next validity check to reconcile.
func (b bridgeSink) Clear(ctx context.Context) {
	s := b.s
	s.mu.Lock()
	if s.closed || s.pendingSignIn > 0 || s.state.User == nil {
		s.mu.Unlock()
		return
	}
	userID := s.state.User.ID
	s.stopValidatorLocked()
	s.ident = identityZero
	s.commitLocked(clearState(s.state))
	s.mu.Unlock()
	s.flush()

	s.resolver.Cache().Clear()
	s.logger.Info().Str("user_id", userID).Msg("provider session ended")
}

func (s *SessionStore) onBridgeDrop(ev identity.Event, reason identity.DropReason) {
	s.metricInc(MetricBridgeDropped)
	s.logger.Debug().Str("kind", string(ev.Kind)).Str("reason", string(reason)).Msg("provider notification dropped")
}
