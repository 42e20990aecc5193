package goSession

import (
	"context"
)

func (s *SessionStore) emitAudit(ctx context.Context, eventType string, success bool, userID, reason string, err error, metadata map[string]string) {
	if s == nil || s.audit == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	gen := s.state.Generation
	s.mu.Unlock()

	event := AuditEvent{
		Timestamp:  s.now().UTC(),
		EventType:  eventType,
		Generation: gen,
		UserID:     userID,
		Success:    success,
		Reason:     reason,
		Metadata:   metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.audit.Emit(ctx, event)
}

// logInvalidation logs a teardown with an intent matching its cause class:
// inconsistent state, business-rule expiry, or infrastructure failure.
func (s *SessionStore) logInvalidation(userID string, reason InvalidationReason, err error) {
	switch {
	case reason == InvalidationInconsistent:
		s.logger.Warn().Str("user_id", userID).Str("reason", string(reason)).Msg("inconsistent session state repaired")
	case reason.Expiry():
		s.logger.Info().Str("user_id", userID).Str("reason", string(reason)).Msg("session expired")
	case reason == InvalidationBackendUnavailable:
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("session backend unavailable, signing out")
	default:
		s.logger.Info().Str("user_id", userID).Str("reason", string(reason)).Msg("session invalidated")
	}
}
