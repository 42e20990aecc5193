// Package guard decides whether a protected view may render for the current
// session.
//
// [Decide] is pure: it maps the session snapshot, the subscription verdict and
// the view's allowed roles to a [Decision]. [Mount] binds a decision point to a
// SessionStore and runs the subscription check at most once.
//
// # What this package must NOT do
//
//   - Mutate session state. Guards only read snapshots.
//   - Write HTTP responses. The middleware package translates decisions.
package guard
