package goSession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/identity/identitytest"
	"github.com/MrEthical07/goSession/profile"
	"github.com/MrEthical07/goSession/roles"
	"github.com/MrEthical07/goSession/tokenstore"
)

type fakeCredential struct {
	password string
	userID   string
}

type fakeBackend struct {
	mu          sync.Mutex
	credentials map[string]fakeCredential
	valid       map[string]SessionValidation
	loginErr    error
	validateErr error

	// validateHook runs before every validation, outside the lock; a non-nil
	// error is returned as the validation failure.
	validateHook func(context.Context) error

	loginCalls    int
	logoutCalls   int
	validateCalls int
	revoked       []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		credentials: make(map[string]fakeCredential),
		valid:       make(map[string]SessionValidation),
	}
}

func (b *fakeBackend) addUser(email, password, userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credentials[email] = fakeCredential{password: password, userID: userID}
}

// issue marks token as valid without a login round trip.
func (b *fakeBackend) issue(token string, v SessionValidation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v.Valid = true
	b.valid[token] = v
}

func (b *fakeBackend) setFlags(token string, v SessionValidation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.valid[token] = v
}

func (b *fakeBackend) Login(_ context.Context, email, password string) (LoginResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loginCalls++
	if b.loginErr != nil {
		return LoginResponse{}, b.loginErr
	}
	cred, ok := b.credentials[email]
	if !ok || cred.password != password {
		return LoginResponse{}, ErrInvalidCredentials
	}
	token := "app-token-" + cred.userID
	b.valid[token] = SessionValidation{Valid: true}
	return LoginResponse{ApplicationToken: token, UserID: cred.userID}, nil
}

func (b *fakeBackend) Logout(_ context.Context, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutCalls++
	b.revoked = append(b.revoked, token)
	delete(b.valid, token)
	return nil
}

func (b *fakeBackend) ValidateSession(ctx context.Context, token string) (SessionValidation, error) {
	b.mu.Lock()
	hook := b.validateHook
	b.mu.Unlock()
	if hook != nil {
		if err := hook(ctx); err != nil {
			return SessionValidation{}, err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.validateCalls++
	if b.validateErr != nil {
		return SessionValidation{}, b.validateErr
	}
	return b.valid[token], nil
}

type fakeDataStore struct {
	mu       sync.Mutex
	users    map[string]profile.User
	fetchErr error
	insertOK bool
	fetches  int

	// onFetch runs before every fetch, outside the lock.
	onFetch func()
}

func newFakeDataStore() *fakeDataStore {
	return &fakeDataStore{users: make(map[string]profile.User), insertOK: true}
}

func (d *fakeDataStore) add(id string, role roles.Role, org *profile.Organization) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := profile.User{
		Profile: profile.Profile{
			ID:       id,
			Email:    id + "@example.com",
			Username: id,
			Role:     role,
		},
		Organization: org,
	}
	if org != nil {
		u.OrganizationID = org.ID
	}
	d.users[id] = u
}

func (d *fakeDataStore) FetchProfile(_ context.Context, userID string) (profile.User, error) {
	d.mu.Lock()
	hook := d.onFetch
	d.mu.Unlock()
	if hook != nil {
		hook()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.fetches++
	if d.fetchErr != nil {
		return profile.User{}, d.fetchErr
	}
	u, ok := d.users[userID]
	if !ok {
		return profile.User{}, profile.ErrNotFound
	}
	return u.Clone(), nil
}

func (d *fakeDataStore) InsertProfile(_ context.Context, p profile.Profile) (profile.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.insertOK {
		return profile.User{}, errors.New("insert refused")
	}
	u := profile.User{Profile: p}
	d.users[p.ID] = u
	return u.Clone(), nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store    *SessionStore
	provider *identitytest.Provider
	kv       *tokenstore.MemoryKV
	backend  *fakeBackend
	data     *fakeDataStore
	clock    *fakeClock
	audit    *captureSink
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Session.InitTimeout = 200 * time.Millisecond
	cfg.Session.ValidityInterval = time.Hour
	cfg.Session.TeardownTimeout = time.Second
	cfg.Metrics.Enabled = true
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	return cfg
}

func newTestEnv(t *testing.T, mutate func(*testEnv, *Config)) *testEnv {
	t.Helper()

	env := &testEnv{
		provider: identitytest.New(),
		kv:       tokenstore.NewMemoryKV(),
		backend:  newFakeBackend(),
		data:     newFakeDataStore(),
		clock:    newFakeClock(),
		audit:    newCaptureSink(64),
	}
	env.provider.Quiet = true
	cfg := testConfig()
	if mutate != nil {
		mutate(env, &cfg)
	}

	store, err := New().
		WithConfig(cfg).
		WithKV(env.kv).
		WithBackend(env.backend).
		WithIdentityProvider(env.provider).
		WithDataStore(env.data).
		WithAuditSink(env.audit).
		WithClock(env.clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	env.store = store
	t.Cleanup(store.Close)
	return env
}

// addAccount registers the same credentials with the backend, the provider and
// the data store.
func (e *testEnv) addAccount(id string, role roles.Role, org *profile.Organization) {
	email := id + "@example.com"
	e.backend.addUser(email, "pw-"+id, id)
	e.provider.AddAccount(email, identitytest.Account{
		Password: "pw-" + id,
		Identity: identity.Identity{ID: id, Email: email},
	})
	e.data.add(id, role, org)
}

// restorable seeds a provider session backed by a valid stored token, as left
// behind by an earlier process.
func (e *testEnv) restorable(t *testing.T, id string) {
	t.Helper()
	token := "app-token-" + id
	if err := e.kv.Set(context.Background(), tokenstore.DefaultTokenKey, token); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	e.backend.issue(token, SessionValidation{})
	e.provider.SetSession(&identity.Session{
		ID:       "sess-" + id,
		Identity: identity.Identity{ID: id, Email: id + "@example.com"},
		Token:    "provider-token-" + id,
	})
}

func (e *testEnv) signIn(t *testing.T, id string, hint roles.Role) SignInResult {
	t.Helper()
	res, err := e.store.SignIn(context.Background(), SignInRequest{
		Email:    id + "@example.com",
		Password: "pw-" + id,
		RoleHint: hint,
	})
	if err != nil {
		t.Fatalf("SignIn(%s) failed: %v", id, err)
	}
	return res
}

func (e *testEnv) initialize(t *testing.T) {
	t.Helper()
	if err := e.store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
}

func (e *testEnv) storedToken(t *testing.T) (string, bool) {
	t.Helper()
	tok, ok, err := e.kv.Get(context.Background(), tokenstore.DefaultTokenKey)
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	return tok, ok
}

// setValidateHook installs fn as the backend validation hook.
func (e *testEnv) setValidateHook(fn func(context.Context) error) {
	e.backend.mu.Lock()
	e.backend.validateHook = fn
	e.backend.mu.Unlock()
}

// assertSessionKept fails unless the durable token and provider session survived
// and nothing was torn down.
func (e *testEnv) assertSessionKept(t *testing.T, userID string) {
	t.Helper()
	if tok, ok := e.storedToken(t); !ok || tok != "app-token-"+userID {
		t.Fatalf("stored token = %q/%t, want app-token-%s", tok, ok, userID)
	}
	if !e.provider.HasSession() {
		t.Fatal("provider session was signed out")
	}
	if got := e.store.MetricsSnapshot().Counters[MetricSessionInvalidated]; got != 0 {
		t.Fatalf("expected no invalidation, got %d", got)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type captureSink struct {
	events chan AuditEvent
}

func newCaptureSink(buffer int) *captureSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &captureSink{events: make(chan AuditEvent, buffer)}
}

func (s *captureSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// next returns the next event of eventType, skipping others.
func (s *captureSink) next(t *testing.T, eventType string) AuditEvent {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-s.events:
			if ev.EventType == eventType {
				return ev
			}
		case <-timeout:
			t.Fatalf("expected %s audit event", eventType)
			return AuditEvent{}
		}
	}
}
