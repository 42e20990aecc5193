package identity

import (
	"context"
	"sync"
	"sync/atomic"
)

// Sink receives the normalized intents of a [Bridge].
type Sink interface {
	// Ready reports whether startup initialization has completed.
	Ready() bool
	// Restore asks the sink to re-check and adopt a provider session.
	Restore(ctx context.Context, session Session)
	// Clear asks the sink to drop all in-memory session state.
	Clear(ctx context.Context)
}

// BridgeConfig controls bridge buffering.
type BridgeConfig struct {
	BufferSize int
	// OnDrop, when set, is called for every notification the bridge discards.
	OnDrop func(Event, DropReason)
}

// DropReason explains why a notification never reached the sink.
type DropReason string

const (
	DropNotReady       DropReason = "not_ready"
	DropInitialSession DropReason = "initial_session"
	DropBufferFull     DropReason = "buffer_full"
	DropClosed         DropReason = "closed"
)

// Bridge subscribes once to a [Provider] and forwards filtered notifications to a
// [Sink] from a single worker goroutine, in arrival order.
type Bridge struct {
	cfg         BridgeConfig
	sink        Sink
	unsubscribe func()

	ch        chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBridge subscribes to provider and starts the delivery worker. The returned
// bridge must be closed to release the subscription.
func NewBridge(provider Provider, sink Sink, cfg BridgeConfig) *Bridge {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		cfg:    cfg,
		sink:   sink,
		ch:     make(chan Event, cfg.BufferSize),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}

	b.wg.Add(1)
	go b.run()

	b.unsubscribe = provider.Subscribe(b.enqueue)
	return b
}

func (b *Bridge) enqueue(ev Event) {
	if b.closed.Load() {
		b.drop(ev, DropClosed)
		return
	}

	select {
	case b.ch <- ev:
	case <-b.done:
		b.drop(ev, DropClosed)
	default:
		b.drop(ev, DropBufferFull)
	}
}

func (b *Bridge) run() {
	defer b.wg.Done()

	for {
		select {
		case ev := <-b.ch:
			b.deliver(ev)
		case <-b.done:
			return
		}
	}
}

// deliver applies both filters. The ready gate is evaluated at delivery time, not
// at enqueue time, so a notification queued while initialization is in flight is
// still discarded.
func (b *Bridge) deliver(ev Event) {
	if !b.sink.Ready() {
		b.drop(ev, DropNotReady)
		return
	}
	if ev.Kind == EventInitialSession {
		b.drop(ev, DropInitialSession)
		return
	}

	if ev.Session != nil {
		b.sink.Restore(b.ctx, *ev.Session)
		return
	}
	b.sink.Clear(b.ctx)
}

func (b *Bridge) drop(ev Event, reason DropReason) {
	b.dropped.Add(1)
	if b.cfg.OnDrop != nil {
		b.cfg.OnDrop(ev, reason)
	}
}

// Dropped returns the number of discarded notifications.
func (b *Bridge) Dropped() uint64 {
	if b == nil {
		return 0
	}
	return b.dropped.Load()
}

// Close unsubscribes from the provider and stops the worker. Queued notifications
// that were not delivered yet are discarded. Close is idempotent.
func (b *Bridge) Close() {
	if b == nil {
		return
	}
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		if b.unsubscribe != nil {
			b.unsubscribe()
		}
		b.cancel()
		close(b.done)
		b.wg.Wait()
	})
}
