// Package roles defines the application roles and the role-to-home-route table
// used when a guard redirects a user away from a view their role may not open.
//
// # Architecture boundaries
//
// This package owns [Role] and [Table]. Tables are configured during initialization
// and then frozen; after [Table.Freeze] they are read-only and safe for concurrent
// use.
package roles
