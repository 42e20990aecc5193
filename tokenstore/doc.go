// Package tokenstore persists the application session token in durable key-value
// storage and purges identity-provider tokens left behind by partial logouts.
//
// # Architecture boundaries
//
// This package owns the [KV] contract and its Redis ([RedisKV]) and in-process
// ([MemoryKV]) implementations, plus the [Store] that knows the well-known token key
// and the provider-token naming convention. It does NOT validate tokens or talk to
// the Backend Session Service.
//
// # What this package must NOT do
//
//   - Import goSession, identity, or profile (no upward imports).
//   - Interpret token contents.
package tokenstore
