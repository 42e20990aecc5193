package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/internal/flows"
)

var errInitTimeout = errors.New("identity provider read timed out")

// Initialize reads the identity provider's current session once, adopts it if a
// valid application token backs it, and marks the store ready.
//
// The provider read is bounded by Session.InitTimeout; on timeout or a failed read
// the store proceeds signed out, a late provider answer is discarded, and durable
// tokens are left untouched. A provider session without a valid token is signed
// out and provider tokens are purged. Initialize
// never fails for session reasons: it only returns ErrStoreClosed or
// ErrAlreadyInitialized.
func (s *SessionStore) Initialize(ctx context.Context) error {
	if s == nil {
		return ErrEngineNotReady
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	if s.initStarted {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.initStarted = true
	gen := s.state.Generation
	s.commitLocked(beginInitialize(s.state))
	s.mu.Unlock()
	s.flush()

	s.metricInc(MetricInitialize)

	var (
		accepted bool
		result   flows.RestoreResult
	)
	sess, err := s.readProviderSession(ctx)
	settled := err == nil
	switch {
	case errors.Is(err, errInitTimeout):
		s.metricInc(MetricInitTimeout)
		s.logger.Warn().Dur("timeout", s.config.Session.InitTimeout).Msg("identity provider read timed out, continuing signed out")
	case err != nil:
		s.logger.Warn().Err(err).Msg("identity provider read failed, continuing signed out")
	case sess != nil:
		result = s.flows.Restore(ctx, *sess, zeroTime)
		switch {
		case result.Accepted:
			accepted = true
		case result.Aborted:
			settled = false
		default:
			s.invalidate(ctx, gen, sess.Identity.ID, result.Reason, result.Err)
		}
	}

	s.mu.Lock()
	committed := false
	if accepted && s.state.Generation == gen && s.state.Phase == PhaseInitializing && !s.closed {
		s.ident = sess.Identity
		s.commitLocked(markReady(authenticate(s.state, result.User, zeroTime)))
		s.armValidatorLocked()
		committed = true
	} else {
		s.commitLocked(markReady(s.state))
	}
	s.mu.Unlock()
	s.flush()

	userID := ""
	if committed {
		userID = result.User.ID
		s.afterProfileResolved(ctx, result.User, result.Outcome, result.Err)
		s.logger.Info().Str("user_id", userID).Msg("session restored at startup")
	}
	s.emitAudit(ctx, AuditInitialize, committed, userID, "", nil, nil)

	// Without a settled provider answer a leftover token cannot be told apart
	// from a live session, so reconciliation is left to a later CheckValidity.
	if !settled {
		return nil
	}
	if _, err := s.CheckValidity(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("post-initialize validity check skipped")
	}
	return nil
}

type providerRead struct {
	sess *identity.Session
	err  error
}

func (s *SessionStore) readProviderSession(ctx context.Context) (*identity.Session, error) {
	if s.provider == nil {
		return nil, nil
	}

	tctx, cancel := context.WithTimeout(ctx, s.config.Session.InitTimeout)
	defer cancel()

	ch := make(chan providerRead, 1)
	go func() {
		sess, err := s.provider.CurrentSession(tctx)
		ch <- providerRead{sess: sess, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && tctx.Err() != nil && ctx.Err() == nil {
			return nil, errInitTimeout
		}
		return r.sess, r.err
	case <-tctx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errInitTimeout
	}
}
