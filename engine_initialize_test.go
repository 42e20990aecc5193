package goSession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/roles"
)

func TestInitializeRestoresValidSession(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addAccount("u1", roles.Admin, nil)
	env.restorable(t, "u1")

	env.initialize(t)

	snap := env.store.Snapshot()
	if !snap.Ready || snap.Phase != PhaseAuthenticated {
		t.Fatalf("expected ready authenticated state, got %+v", snap)
	}
	if snap.User == nil || snap.User.ID != "u1" || snap.User.Role != roles.Admin {
		t.Fatalf("unexpected user %+v", snap.User)
	}
	if !snap.Expiry.IsZero() {
		t.Fatalf("restored session must not invent an expiry, got %v", snap.Expiry)
	}
	if !env.store.ValidatorArmed() {
		t.Fatal("expected validity check to be armed after restore")
	}
	ev := env.audit.next(t, AuditInitialize)
	if !ev.Success || ev.UserID != "u1" {
		t.Fatalf("unexpected initialize audit event %+v", ev)
	}
}

func TestInitializeWithoutProviderSessionIsSignedOut(t *testing.T) {
	env := newTestEnv(t, nil)

	env.initialize(t)

	snap := env.store.Snapshot()
	if !snap.Ready || snap.Phase != PhaseUnauthenticated || snap.User != nil {
		t.Fatalf("expected ready signed-out state, got %+v", snap)
	}
	if env.store.ValidatorArmed() {
		t.Fatal("validity check armed without a session")
	}
}

func TestInitializeRepairsProviderSessionWithoutToken(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addAccount("u1", roles.User, nil)
	env.provider.SetSession(&identity.Session{
		ID:       "sess-u1",
		Identity: identity.Identity{ID: "u1"},
	})
	ctx := context.Background()
	if err := env.kv.Set(ctx, "kratos.session_token", "stale"); err != nil {
		t.Fatalf("seed provider token: %v", err)
	}

	env.initialize(t)

	snap := env.store.Snapshot()
	if snap.Authenticated() || !snap.Ready {
		t.Fatalf("expected signed-out ready state, got %+v", snap)
	}
	if env.provider.HasSession() {
		t.Fatal("expected provider session to be signed out")
	}
	if _, ok, _ := env.kv.Get(ctx, "kratos.session_token"); ok {
		t.Fatal("expected provider tokens to be purged")
	}
	if got := env.store.MetricsSnapshot().Counters[MetricInconsistentRepaired]; got != 1 {
		t.Fatalf("expected one inconsistent-state repair, got %d", got)
	}
	ev := env.audit.next(t, AuditInconsistentRepaired)
	if ev.Reason != string(InvalidationInconsistent) || ev.Metadata["purged_provider_tokens"] != "1" {
		t.Fatalf("unexpected repair audit event %+v", ev)
	}
}

func TestInitializeTimeoutDiscardsLateAnswer(t *testing.T) {
	env := newTestEnv(t, func(_ *testEnv, cfg *Config) {
		cfg.Session.InitTimeout = 30 * time.Millisecond
	})
	env.addAccount("u1", roles.User, nil)
	env.restorable(t, "u1")
	env.provider.CurrentDelay = 200 * time.Millisecond
	env.provider.IgnoreContext = true

	start := time.Now()
	env.initialize(t)
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Fatalf("Initialize waited %v for a timed-out provider", elapsed)
	}
	if snap := env.store.Snapshot(); snap.Authenticated() || !snap.Ready {
		t.Fatalf("expected signed-out ready state after timeout, got %+v", snap)
	}
	if got := env.store.MetricsSnapshot().Counters[MetricInitTimeout]; got != 1 {
		t.Fatalf("expected init timeout metric, got %d", got)
	}

	time.Sleep(250 * time.Millisecond)
	if snap := env.store.Snapshot(); snap.Authenticated() {
		t.Fatalf("late provider answer resurrected the session: %+v", snap)
	}

	// The timed-out read proves nothing about the provider, so durable state stays.
	if tok, ok := env.storedToken(t); !ok || tok != "app-token-u1" {
		t.Fatalf("timeout tore down the stored token: %q/%t", tok, ok)
	}
	if !env.provider.HasSession() || env.provider.SignOutCalls != 0 {
		t.Fatal("timeout signed the provider out")
	}
}

func TestInitializeTwice(t *testing.T) {
	env := newTestEnv(t, nil)
	env.initialize(t)

	if err := env.store.Initialize(context.Background()); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestInitialSessionNotificationBeforeReadyIsDropped(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addAccount("u1", roles.User, nil)
	env.restorable(t, "u1")
	sess, _ := env.provider.CurrentSession(context.Background())

	env.provider.Emit(identity.Event{Kind: identity.EventInitialSession, Session: sess})
	env.provider.Emit(identity.Event{Kind: identity.EventSignedIn, Session: sess})

	waitFor(t, "dropped notifications", func() bool {
		return env.store.MetricsSnapshot().Counters[MetricBridgeDropped] >= 2
	})
	if snap := env.store.Snapshot(); snap.Authenticated() || snap.Ready {
		t.Fatalf("notification before ready changed state: %+v", snap)
	}
}

func TestInitialSessionNotificationAfterReadyIsIgnored(t *testing.T) {
	env := newTestEnv(t, nil)
	env.initialize(t)

	env.addAccount("u1", roles.User, nil)
	env.restorable(t, "u1")
	sess, _ := env.provider.CurrentSession(context.Background())
	env.provider.Emit(identity.Event{Kind: identity.EventInitialSession, Session: sess})

	waitFor(t, "dropped initial session", func() bool {
		return env.store.MetricsSnapshot().Counters[MetricBridgeDropped] >= 1
	})
	if env.store.Snapshot().Authenticated() {
		t.Fatal("initial_session replay must not authenticate")
	}
}
