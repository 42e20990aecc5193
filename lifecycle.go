package goSession

import "time"

// Phase is the coarse lifecycle position of a [SessionStore].
type Phase uint8

const (
	PhaseUnauthenticated Phase = iota
	PhaseInitializing
	PhaseAuthenticated
	PhaseInvalidating
)

func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseInitializing:
		return "initializing"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseInvalidating:
		return "invalidating"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the session lifecycle.
//
// Expiry is non-zero only while User is set. Ready flips to true once and never
// back. Generation advances on every clear; work started under an older
// generation may not commit.
type State struct {
	Phase      Phase
	User       *AuthenticatedUser
	Expiry     time.Time
	Ready      bool
	Generation uint64
}

// Loading reports whether a decision about the current user is still pending.
func (s State) Loading() bool {
	return s.Phase == PhaseInitializing || s.Phase == PhaseInvalidating
}

// Authenticated reports whether a user is signed in.
func (s State) Authenticated() bool {
	return s.Phase == PhaseAuthenticated && s.User != nil
}

func (s State) clone() State {
	if s.User != nil {
		u := s.User.Clone()
		s.User = &u
	}
	return s
}

// The transitions below are pure: each returns the next state and leaves its
// input untouched.

func beginInitialize(s State) State {
	s.Phase = PhaseInitializing
	return s
}

func authenticate(s State, u AuthenticatedUser, expiry time.Time) State {
	u = u.Clone()
	s.Phase = PhaseAuthenticated
	s.User = &u
	s.Expiry = expiry
	return s
}

// replaceUser swaps the current user, keeping the expiry when the user id is
// unchanged and dropping it otherwise.
func replaceUser(s State, u AuthenticatedUser) State {
	expiry := time.Time{}
	if s.User != nil && s.User.ID == u.ID {
		expiry = s.Expiry
	}
	return authenticate(s, u, expiry)
}

func beginInvalidate(s State) State {
	s.Phase = PhaseInvalidating
	return s
}

func clearState(s State) State {
	s.Phase = PhaseUnauthenticated
	s.User = nil
	s.Expiry = time.Time{}
	s.Generation++
	return s
}

func markReady(s State) State {
	s.Ready = true
	if s.Phase == PhaseInitializing {
		s.Phase = PhaseUnauthenticated
	}
	return s
}
