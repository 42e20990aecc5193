// Package identity models the third-party Identity Provider and bridges its
// session-change notifications into intents for the session store.
//
// # Architecture boundaries
//
// This package owns the [Provider] contract, the [Event] vocabulary and the [Bridge]
// that filters and serializes provider notifications. Concrete providers live in
// sub-packages (see identity/kratos). The bridge never mutates session state itself;
// it forwards [Sink.Restore] and [Sink.Clear] intents.
//
// # What this package must NOT do
//
//   - Import goSession, profile, or tokenstore.
//   - Deliver any notification before the sink reports ready.
//   - Deliver the initial-session notification at all.
package identity
