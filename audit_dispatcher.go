package goSession

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditQueue feeds audit events to the sink from a single worker.
//
// Teardown records (sign-out, invalidation, inconsistent-state repair) always wait
// for room, bounded by the emitter's context. Every other event is dropped on a
// full queue when DropIfFull is set. Drops are counted per event type.
type auditQueue struct {
	sink       AuditSink
	dropIfFull bool

	// mu guards closed and every send on events, so Close never races a send.
	mu      sync.RWMutex
	closed  bool
	events  chan AuditEvent
	stopped chan struct{}

	dropped atomic.Uint64
	dropMu  sync.Mutex
	byType  map[string]uint64
}

func newAuditQueue(cfg AuditConfig, sink AuditSink) *auditQueue {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	q := &auditQueue{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		events:     make(chan AuditEvent, max(cfg.BufferSize, 1)),
		stopped:    make(chan struct{}),
		byType:     make(map[string]uint64),
	}
	go q.work()
	return q
}

func (q *auditQueue) work() {
	defer close(q.stopped)
	for ev := range q.events {
		q.sink.Emit(context.Background(), ev)
	}
}

// teardownRecord reports whether eventType documents a session being torn down.
func teardownRecord(eventType string) bool {
	switch eventType {
	case AuditSignOut, AuditInvalidated, AuditInconsistentRepaired:
		return true
	}
	return false
}

// Emit enqueues ev. It never blocks after Close.
func (q *auditQueue) Emit(ctx context.Context, ev AuditEvent) {
	if q == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return
	}

	if q.dropIfFull && !teardownRecord(ev.EventType) {
		select {
		case q.events <- ev:
		default:
			q.drop(ev)
		}
		return
	}

	select {
	case q.events <- ev:
	case <-ctx.Done():
		q.drop(ev)
	}
}

func (q *auditQueue) drop(ev AuditEvent) {
	q.dropped.Add(1)
	q.dropMu.Lock()
	q.byType[ev.EventType]++
	q.dropMu.Unlock()
}

// Close stops accepting events and waits until queued ones reached the sink.
func (q *auditQueue) Close() {
	if q == nil {
		return
	}
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()
	<-q.stopped
}

func (q *auditQueue) Dropped() uint64 {
	if q == nil {
		return 0
	}
	return q.dropped.Load()
}

// DroppedByType returns drop counts keyed by event type.
func (q *auditQueue) DroppedByType() map[string]uint64 {
	out := make(map[string]uint64)
	if q == nil {
		return out
	}
	q.dropMu.Lock()
	defer q.dropMu.Unlock()
	for k, v := range q.byType {
		out[k] = v
	}
	return out
}
