// Package identitytest provides an in-memory identity.Provider for tests.
package identitytest

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/identity"
)

// Account is a credential the fake provider accepts.
type Account struct {
	Password string
	Identity identity.Identity
}

// Provider is a scriptable identity.Provider. The zero value is not usable; call
// [New].
type Provider struct {
	mu        sync.Mutex
	accounts  map[string]Account
	current   *identity.Session
	listeners map[int]func(identity.Event)
	nextID    int

	// CurrentDelay delays CurrentSession, honoring ctx cancellation only when
	// IgnoreContext is false.
	CurrentDelay  time.Duration
	IgnoreContext bool
	CurrentErr    error
	SignOutErr    error
	// Quiet suppresses the notifications SignIn and SignOut would emit.
	Quiet bool

	SignOutCalls int
	CurrentCalls int
}

// New returns an empty provider.
func New() *Provider {
	return &Provider{
		accounts:  make(map[string]Account),
		listeners: make(map[int]func(identity.Event)),
	}
}

// AddAccount registers credentials for email.
func (p *Provider) AddAccount(email string, acct Account) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[email] = acct
}

// SetSession replaces the current session without emitting an event.
func (p *Provider) SetSession(s *identity.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = s
}

// HasSession reports whether a provider session is live.
func (p *Provider) HasSession() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Emit delivers ev synchronously to every subscriber.
func (p *Provider) Emit(ev identity.Event) {
	p.mu.Lock()
	fns := make([]func(identity.Event), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (p *Provider) CurrentSession(ctx context.Context) (*identity.Session, error) {
	p.mu.Lock()
	p.CurrentCalls++
	delay, ignore, err := p.CurrentDelay, p.IgnoreContext, p.CurrentErr
	p.mu.Unlock()

	if delay > 0 {
		if ignore {
			time.Sleep(delay)
		} else {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, nil
	}
	s := *p.current
	return &s, nil
}

func (p *Provider) Subscribe(fn func(identity.Event)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Subscribers returns the number of live subscriptions.
func (p *Provider) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

func (p *Provider) SignIn(_ context.Context, email, password string) (*identity.Session, error) {
	p.mu.Lock()
	acct, ok := p.accounts[email]
	if !ok || acct.Password != password {
		p.mu.Unlock()
		return nil, identity.ErrInvalidCredentials
	}
	s := &identity.Session{
		ID:        "sess-" + acct.Identity.ID,
		Identity:  acct.Identity,
		Token:     "provider-token-" + acct.Identity.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	p.current = s
	quiet := p.Quiet
	p.mu.Unlock()

	if !quiet {
		cp := *s
		p.Emit(identity.Event{Kind: identity.EventSignedIn, Session: &cp})
	}
	out := *s
	return &out, nil
}

func (p *Provider) SignOut(context.Context) error {
	p.mu.Lock()
	p.SignOutCalls++
	err := p.SignOutErr
	had := p.current != nil
	p.current = nil
	quiet := p.Quiet
	p.mu.Unlock()

	if err != nil {
		return err
	}
	if had && !quiet {
		p.Emit(identity.Event{Kind: identity.EventSignedOut})
	}
	return nil
}

func (p *Provider) RefreshSession(ctx context.Context) (*identity.Session, error) {
	s, err := p.CurrentSession(ctx)
	if err != nil || s == nil {
		return s, err
	}
	cp := *s
	p.Emit(identity.Event{Kind: identity.EventTokenRefreshed, Session: &cp})
	return s, nil
}
