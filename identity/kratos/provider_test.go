package kratos

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/tokenstore"
	"github.com/rs/zerolog"
)

const sessionJSON = `{
  "id": "sess-1",
  "active": true,
  "expires_at": "2030-01-01T00:00:00Z",
  "identity": {
    "id": "user-1",
    "schema_id": "default",
    "schema_url": "http://kratos/schemas/default",
    "traits": {"email": "ada@example.com", "username": "ada"},
    "metadata_public": {"role": "admin"}
  }
}`

const loginFlowJSON = `{
  "id": "flow-1",
  "type": "api",
  "expires_at": "2030-01-01T00:00:00Z",
  "issued_at": "2029-12-31T23:00:00Z",
  "request_url": "http://kratos/self-service/login/api",
  "state": "choose_method",
  "ui": {"action": "http://kratos/self-service/login?flow=flow-1", "method": "POST", "nodes": []}
}`

type fakeKratos struct {
	mu         sync.Mutex
	validToken string
	logouts    int
}

func (f *fakeKratos) logoutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logouts
}

func (f *fakeKratos) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions/whoami", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		valid := f.validToken
		f.mu.Unlock()
		if valid == "" || r.Header.Get("X-Session-Token") != valid {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":401,"message":"no session"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sessionJSON))
	})
	mux.HandleFunc("/self-service/logout/api", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logouts++
		f.validToken = ""
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/self-service/login/api", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(loginFlowJSON))
	})
	mux.HandleFunc("/self-service/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		f.mu.Lock()
		f.validToken = "kratos-token-1"
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"session": ` + sessionJSON + `, "session_token": "kratos-token-1"}`))
	})
	return mux
}

func newTestProvider(t *testing.T, f *fakeKratos) (*Provider, *tokenstore.MemoryKV, func()) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	kv := tokenstore.NewMemoryKV()
	p, err := New(Config{PublicURL: srv.URL, Timeout: time.Second, Logger: zerolog.Nop()}, kv)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p, kv, srv.Close
}

func TestCurrentSessionWithoutTokenSkipsNetwork(t *testing.T) {
	p, _, done := newTestProvider(t, &fakeKratos{})
	defer done()

	sess, err := p.CurrentSession(context.Background())
	if err != nil || sess != nil {
		t.Fatalf("expected no session, got %+v err=%v", sess, err)
	}
}

func TestCurrentSessionMapsIdentity(t *testing.T) {
	f := &fakeKratos{validToken: "tok"}
	p, kv, done := newTestProvider(t, f)
	defer done()
	_ = kv.Set(context.Background(), DefaultTokenKey, "tok")

	sess, err := p.CurrentSession(context.Background())
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if sess == nil {
		t.Fatal("expected a session")
	}
	if sess.Identity.ID != "user-1" || sess.Identity.Email != "ada@example.com" {
		t.Fatalf("unexpected identity: %+v", sess.Identity)
	}
	if sess.Identity.Metadata["username"] != "ada" || sess.Identity.Metadata["role"] != "admin" {
		t.Fatalf("unexpected metadata: %+v", sess.Identity.Metadata)
	}
	if sess.Token != "tok" {
		t.Fatalf("expected token to round-trip, got %q", sess.Token)
	}
}

func TestCurrentSessionDropsRejectedToken(t *testing.T) {
	p, kv, done := newTestProvider(t, &fakeKratos{})
	defer done()
	ctx := context.Background()
	_ = kv.Set(ctx, DefaultTokenKey, "expired")

	sess, err := p.CurrentSession(ctx)
	if err != nil || sess != nil {
		t.Fatalf("expected no session, got %+v err=%v", sess, err)
	}
	if _, ok, _ := kv.Get(ctx, DefaultTokenKey); ok {
		t.Fatal("rejected token should be removed")
	}
}

func TestSignInStoresTokenAndEmits(t *testing.T) {
	f := &fakeKratos{}
	p, kv, done := newTestProvider(t, f)
	defer done()
	ctx := context.Background()

	events := make(chan identity.Event, 4)
	unsubscribe := p.Subscribe(func(ev identity.Event) { events <- ev })
	defer unsubscribe()

	select {
	case ev := <-events:
		if ev.Kind != identity.EventInitialSession || ev.Session != nil {
			t.Fatalf("expected empty initial session, got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial session event")
	}

	sess, err := p.SignIn(ctx, "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if sess.Identity.ID != "user-1" {
		t.Fatalf("unexpected identity %+v", sess.Identity)
	}
	token, ok, _ := kv.Get(ctx, DefaultTokenKey)
	if !ok || token != "kratos-token-1" {
		t.Fatalf("expected stored provider token, got %q ok=%v", token, ok)
	}

	select {
	case ev := <-events:
		if ev.Kind != identity.EventSignedIn {
			t.Fatalf("expected signed_in, got %s", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no signed_in event")
	}
}

func TestSignOutRevokesAndRemovesToken(t *testing.T) {
	f := &fakeKratos{validToken: "tok"}
	p, kv, done := newTestProvider(t, f)
	defer done()
	ctx := context.Background()
	_ = kv.Set(ctx, DefaultTokenKey, "tok")

	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if f.logoutCount() != 1 {
		t.Fatalf("expected one logout call, got %d", f.logoutCount())
	}
	if _, ok, _ := kv.Get(ctx, DefaultTokenKey); ok {
		t.Fatal("token still stored after sign out")
	}
	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("second sign out: %v", err)
	}
	if f.logoutCount() != 1 {
		t.Fatalf("second sign out must not call kratos, got %d calls", f.logoutCount())
	}
}

func TestRefreshSessionWithoutSession(t *testing.T) {
	p, _, done := newTestProvider(t, &fakeKratos{})
	defer done()

	if _, err := p.RefreshSession(context.Background()); !errors.Is(err, identity.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestUnavailableProvider(t *testing.T) {
	kv := tokenstore.NewMemoryKV()
	_ = kv.Set(context.Background(), DefaultTokenKey, "tok")
	p, err := New(Config{PublicURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond, Logger: zerolog.Nop()}, kv)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := p.CurrentSession(context.Background()); !errors.Is(err, identity.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
