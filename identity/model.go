package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoSession is returned by providers when no session is active.
	ErrNoSession = errors.New("identity: no active session")
	// ErrInvalidCredentials is returned by Provider.SignIn for rejected credentials.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrUnavailable wraps transport failures talking to the provider.
	ErrUnavailable = errors.New("identity: provider unavailable")
)

// Identity is the provider-owned account record. It is treated as immutable once
// obtained.
type Identity struct {
	ID       string
	Email    string
	Metadata map[string]string
}

// Session is a live provider session.
type Session struct {
	ID        string
	Identity  Identity
	Token     string
	ExpiresAt time.Time
}

// EventKind names a provider session-change notification.
type EventKind string

const (
	// EventInitialSession is the provider's startup replay of the current session.
	EventInitialSession EventKind = "initial_session"
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
	EventUserUpdated    EventKind = "user_updated"
)

// Event is one provider notification. Session is nil when no session is present.
type Event struct {
	Kind    EventKind
	Session *Session
}

// Provider is the Identity Provider consumed by the session core.
//
// CurrentSession returns (nil, nil) when no session exists. Subscribe registers fn
// for every subsequent notification and returns a function that removes it; fn may
// be invoked from any goroutine.
type Provider interface {
	CurrentSession(ctx context.Context) (*Session, error)
	Subscribe(fn func(Event)) (unsubscribe func())
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	RefreshSession(ctx context.Context) (*Session, error)
}
