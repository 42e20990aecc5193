// Package flows contains the orchestration steps behind every SessionStore
// operation.
//
// Each Run* function accepts a typed dependency struct of plain function fields and
// returns a classified result. Flows never mutate session state themselves: the
// root package owns the lifecycle state and decides whether a result may still be
// committed.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency functions.
package flows
