// Package middleware translates guard decisions into HTTP responses for net/http
// ([Guard]) and labstack/echo ([Echo]).
//
// A loading session answers 503 with Retry-After, a signed-out visitor is sent
// to the login path with the attempted location in the redirect query
// parameter, a lapsed subscription renders a terminal 402 page, and a role
// outside the view's allowed set is sent to the role's home. Rendered requests
// carry the user in their context; read it with goSession.UserFromContext.
//
// # What this package must NOT do
//
//   - Decide access itself. All decisions come from guard.
//   - Mutate session state.
package middleware
