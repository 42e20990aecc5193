package goSession

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/roles"
	"github.com/MrEthical07/goSession/tokenstore"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{gate: make(chan struct{})}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = false
	sink := &countingSink{}

	store, err := New().
		WithConfig(cfg).
		WithKV(tokenstore.NewMemoryKV()).
		WithBackend(newFakeBackend()).
		WithDataStore(newFakeDataStore()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer store.Close()

	_ = store.Initialize(context.Background())
	_, _ = store.SignIn(context.Background(), SignInRequest{Email: "x@example.com", Password: "bad"})
	time.Sleep(30 * time.Millisecond)

	if got := sink.count.Load(); got != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", got)
	}
}

func TestAuditSignOutEvent(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addAccount("u1", roles.User, nil)
	env.initialize(t)
	env.signIn(t, "u1", "")

	if err := env.store.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	ev := env.audit.next(t, AuditSignOut)
	if !ev.Success || ev.UserID != "u1" {
		t.Fatalf("unexpected sign-out audit event %+v", ev)
	}
	if ev.Timestamp.IsZero() {
		t.Fatal("expected audit timestamp")
	}
}

func TestAuditBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	queue := newAuditQueue(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		queue.Close()
	}()

	queue.Emit(context.Background(), AuditEvent{EventType: "e1"})
	queue.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	queue.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if queue.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestAuditBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	queue := newAuditQueue(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink)
	defer func() {
		close(sink.gate)
		queue.Close()
	}()

	queue.Emit(context.Background(), AuditEvent{EventType: "e1"})
	queue.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		queue.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditSignIn,
		UserID:    "u1",
		Success:   true,
	})

	out := buf.String()
	if !strings.Contains(out, AuditSignIn) {
		t.Fatal("expected JSON log line to contain event type")
	}
	if !strings.Contains(out, "\"user_id\":\"u1\"") {
		t.Fatal("expected JSON log line to contain user id")
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatal("expected newline-terminated JSON line")
	}
}

func TestAuditDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	queue := newAuditQueue(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{})

	queue.Emit(context.Background(), AuditEvent{EventType: "e1"})
	queue.Close()
	queue.Close()
	queue.Emit(context.Background(), AuditEvent{EventType: "e2"})
}

func TestAuditQueueKeepsTeardownRecordsWhenFull(t *testing.T) {
	sink := newGateSink()
	queue := newAuditQueue(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)

	queue.Emit(context.Background(), AuditEvent{EventType: AuditSignIn})
	waitWorkerBusy(t, queue)
	queue.Emit(context.Background(), AuditEvent{EventType: AuditSignIn})
	queue.Emit(context.Background(), AuditEvent{EventType: AuditProfileFallback})

	done := make(chan struct{})
	go func() {
		queue.Emit(context.Background(), AuditEvent{EventType: AuditInvalidated})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected invalidation record to wait for room instead of dropping")
	case <-time.After(100 * time.Millisecond):
	}

	close(sink.gate)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected invalidation record to be queued once the sink drained")
	}
	queue.Close()

	byType := queue.DroppedByType()
	if byType[AuditInvalidated] != 0 {
		t.Fatalf("invalidation record dropped: %v", byType)
	}
	if byType[AuditProfileFallback] != 1 || queue.Dropped() != 1 {
		t.Fatalf("expected only the profile fallback dropped, got %v (total %d)", byType, queue.Dropped())
	}
}

func TestAuditQueueTeardownRecordHonorsContext(t *testing.T) {
	sink := newGateSink()
	queue := newAuditQueue(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		queue.Close()
	}()

	queue.Emit(context.Background(), AuditEvent{EventType: AuditSignOut})
	waitWorkerBusy(t, queue)
	queue.Emit(context.Background(), AuditEvent{EventType: AuditSignOut})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	queue.Emit(ctx, AuditEvent{EventType: AuditSignOut})

	if got := queue.DroppedByType()[AuditSignOut]; got != 1 {
		t.Fatalf("expected one sign-out record dropped on context expiry, got %d", got)
	}
}

func TestAuditEventsCarryGeneration(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addAccount("u1", roles.User, nil)
	env.initialize(t)
	env.signIn(t, "u1", "")

	signIn := env.audit.next(t, AuditSignIn)
	if err := env.store.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	signOut := env.audit.next(t, AuditSignOut)

	if signOut.Generation != env.store.Snapshot().Generation {
		t.Fatalf("expected sign-out record at generation %d, got %d", env.store.Snapshot().Generation, signOut.Generation)
	}
	if signOut.Generation <= signIn.Generation {
		t.Fatalf("expected sign-out generation %d to be past sign-in generation %d", signOut.Generation, signIn.Generation)
	}
}

// waitWorkerBusy waits until the worker has taken every queued event.
func waitWorkerBusy(t *testing.T, q *auditQueue) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(q.events) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("audit worker never picked up the queued event")
		}
		time.Sleep(time.Millisecond)
	}
}
