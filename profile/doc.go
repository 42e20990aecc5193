// Package profile resolves application profiles (and their owning organization)
// for identities, caching them in memory by user id.
//
// # Resolution policy
//
// A cache hit is returned without I/O. On a miss the [DataStore] is queried; a
// missing row triggers creation of a default profile from identity metadata, and any
// failure after that yields a placeholder profile carrying the configured fallback
// role so callers always have something to render. Placeholders are never cached.
//
// # What this package must NOT do
//
//   - Import goSession or tokenstore.
//   - Update a cache entry in place; entries are replaced wholesale.
package profile
