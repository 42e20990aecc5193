package goSession

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/profile"
)

var identityZero identity.Identity

// RefreshProfile re-reads the current user's profile bypassing the cache. When
// the read falls back to a placeholder the current user is kept and the error is
// returned.
func (s *SessionStore) RefreshProfile(ctx context.Context) error {
	if s == nil {
		return ErrEngineNotReady
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	if !s.state.Authenticated() {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	gen := s.state.Generation
	ident := s.ident
	s.mu.Unlock()

	res := s.resolver.Refresh(ctx, ident)
	if res.Outcome == profile.OutcomeFallback {
		s.afterProfileResolved(ctx, res.User, res.Outcome, res.Err)
		return fmt.Errorf("%w: %w", ErrProfileMissing, res.Err)
	}

	s.mu.Lock()
	if s.state.Generation != gen || !s.state.Authenticated() {
		s.mu.Unlock()
		return ErrSessionSuperseded
	}
	s.commitLocked(replaceUser(s.state, res.User))
	s.mu.Unlock()
	s.flush()
	return nil
}

// RefreshIdentity asks the identity provider to refresh its session. The
// refreshed session reaches the store through the provider's change
// notifications.
func (s *SessionStore) RefreshIdentity(ctx context.Context) error {
	if s == nil {
		return ErrEngineNotReady
	}
	if s.provider == nil {
		return nil
	}
	sess, err := s.provider.RefreshSession(ctx)
	if errors.Is(err, identity.ErrNoSession) {
		return ErrNotAuthenticated
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	if sess == nil {
		return ErrNotAuthenticated
	}
	return nil
}

func (s *SessionStore) afterProfileResolved(ctx context.Context, u profile.User, outcome profile.Outcome, err error) {
	if outcome != profile.OutcomeFallback {
		return
	}
	s.metricInc(MetricProfileFallback)
	s.emitAudit(ctx, AuditProfileFallback, false, u.ID, "", err, map[string]string{"role": u.Role.String()})
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
