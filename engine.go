package goSession

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/schedule"
	"github.com/MrEthical07/goSession/profile"
	"github.com/MrEthical07/goSession/tokenstore"
	"github.com/rs/zerolog"
)

// SessionStore owns the session lifecycle of one client: the identity provider
// session, the application token, the resolved profile and the session expiry.
//
// All methods are safe for concurrent use. State changes are committed under one
// mutex and every clear advances [State.Generation]; an operation that started
// under an older generation never commits an authenticated state.
type SessionStore struct {
	config   Config
	logger   zerolog.Logger
	now      func() time.Time
	tokens   *tokenstore.Store
	backend  BackendSessionService
	provider IdentityProvider
	resolver *profile.Resolver
	flows    flows.Service
	audit    *auditQueue
	metrics  *Metrics
	bridge   *identity.Bridge

	rootCtx    context.Context
	rootCancel context.CancelFunc

	mu            sync.Mutex
	state         State
	ident         identity.Identity
	initStarted   bool
	pendingSignIn int
	closed        bool
	validator     *schedule.Task
	listeners     map[int]func(State)
	nextListener  int
	pending       []State

	notifyMu sync.Mutex
}

// Snapshot returns a copy of the current state.
func (s *SessionStore) Snapshot() State {
	if s == nil {
		return State{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// User returns the current user, or nil when signed out.
func (s *SessionStore) User() *AuthenticatedUser {
	return s.Snapshot().User
}

// Ready reports whether Initialize has completed.
func (s *SessionStore) Ready() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Ready
}

// OnStateChange registers fn to receive every committed state in commit order.
// fn runs outside the store lock and may call back into the store.
func (s *SessionStore) OnStateChange(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Close stops the validator, the event bridge and the audit dispatcher. Session
// state is left as it is. Close is idempotent.
func (s *SessionStore) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopValidatorLocked()
	s.mu.Unlock()

	s.rootCancel()
	s.bridge.Close()
	s.audit.Close()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (s *SessionStore) AuditDropped() uint64 {
	if s == nil || s.audit == nil {
		return 0
	}
	return s.audit.Dropped()
}

// AuditDroppedByType breaks AuditDropped down by event type.
func (s *SessionStore) AuditDroppedByType() map[string]uint64 {
	if s == nil {
		return map[string]uint64{}
	}
	return s.audit.DroppedByType()
}

// MetricsSnapshot returns the current counters.
func (s *SessionStore) MetricsSnapshot() MetricsSnapshot {
	if s == nil || s.metrics == nil {
		return MetricsSnapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}
	return s.metrics.Snapshot()
}

func (s *SessionStore) metricInc(id MetricID) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.Inc(id)
}

// commitLocked installs next and queues it for listeners. Callers must hold mu and
// call flush after releasing it.
func (s *SessionStore) commitLocked(next State) {
	s.state = next
	s.pending = append(s.pending, next.clone())
}

// flush delivers queued states. Only one goroutine delivers at a time; a commit
// made while another goroutine is delivering (including from inside a listener)
// is picked up by that goroutine's loop.
func (s *SessionStore) flush() {
	for {
		if !s.notifyMu.TryLock() {
			return
		}
		for {
			s.mu.Lock()
			batch := s.pending
			s.pending = nil
			fns := make([]func(State), 0, len(s.listeners))
			for _, fn := range s.listeners {
				fns = append(fns, fn)
			}
			s.mu.Unlock()

			if len(batch) == 0 {
				break
			}
			for _, st := range batch {
				for _, fn := range fns {
					fn(st)
				}
			}
		}
		s.notifyMu.Unlock()

		s.mu.Lock()
		empty := len(s.pending) == 0
		s.mu.Unlock()
		if empty {
			return
		}
	}
}

func (s *SessionStore) armValidatorLocked() {
	s.stopValidatorLocked()
	if s.closed {
		return
	}
	s.validator = schedule.Start(s.rootCtx, s.config.Session.ValidityInterval, s.validityTick)
}

func (s *SessionStore) stopValidatorLocked() {
	if s.validator != nil {
		s.validator.Stop()
		s.validator = nil
	}
}

// ValidatorArmed reports whether the recurring validity check is scheduled.
func (s *SessionStore) ValidatorArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validator != nil && !s.validator.Stopped()
}

func (s *SessionStore) validityTick(ctx context.Context) {
	if _, err := s.CheckValidity(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("scheduled validity check skipped")
	}
}

// teardownContext detaches cleanup from the caller's cancellation and bounds it.
func (s *SessionStore) teardownContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.config.Session.TeardownTimeout)
}
