package guard

import (
	"context"
	"sync"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/roles"
)

// Session is the part of a SessionStore a guard reads.
type Session interface {
	Snapshot() goSession.State
	SubscriptionValid(ctx context.Context) bool
}

// Options configures a [Mount].
type Options struct {
	LoginPath string
	Homes     *roles.Table
}

// Mount is one mounted protected view. Its subscription check runs on the first
// decision that needs it and is reused by every later one.
type Mount struct {
	session Session
	allowed []roles.Role
	opts    Options

	once  sync.Once
	valid bool
}

// NewMount returns a guard for a view open to allowed.
func NewMount(session Session, allowed []roles.Role, opts Options) *Mount {
	return &Mount{
		session: session,
		allowed: append([]roles.Role(nil), allowed...),
		opts:    opts,
	}
}

// Decide evaluates the current session snapshot for a visit to attempted.
func (m *Mount) Decide(ctx context.Context, attempted string) Decision {
	d, _ := m.decide(ctx, attempted)
	return d
}

func (m *Mount) decide(ctx context.Context, attempted string) (Decision, goSession.State) {
	snap := m.session.Snapshot()
	in := Input{
		User:      snap.User,
		Loading:   snap.Loading(),
		Attempted: attempted,
		LoginPath: m.opts.LoginPath,
		Homes:     m.opts.Homes,
	}

	if !in.Loading && in.User != nil && in.User.Role != roles.SuperAdmin {
		m.once.Do(func() {
			m.valid = m.session.SubscriptionValid(ctx)
		})
		in.SubscriptionValid = m.valid
	}
	return Decide(in, m.allowed), snap
}

// Check decides one visit with a fresh Mount. The returned user is the one the
// decision was made for, nil when signed out.
func Check(ctx context.Context, session Session, allowed []roles.Role, attempted string, opts Options) (Decision, *goSession.AuthenticatedUser) {
	d, snap := NewMount(session, allowed, opts).decide(ctx, attempted)
	return d, snap.User
}
