// Package goSession owns the client-side session lifecycle of a multi-tenant
// application: the application token issued by the backend, the identity
// provider session, and the authenticated user profile resolved from the data
// store.
//
// A [SessionStore] is built with [Builder.Build] and started with
// [SessionStore.Initialize]. Its methods are safe for concurrent use.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [SessionStore], [Builder],
// [Config], [State] and the value types that cross it. Flow orchestration and
// scheduling live under internal/. Token storage, profile resolution, identity
// provider adaptation and route decisions live in their own packages and never
// import goSession.
//
// # Consistency
//
// Every clear bumps [State.Generation]. Asynchronous work commits only when the
// generation it started under is still current, so an answer that arrives after
// a sign-out or invalidation is discarded. Listener callbacks registered with
// [SessionStore.OnStateChange] observe transitions in commit order.
package goSession
