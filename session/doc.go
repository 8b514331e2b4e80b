// Package session houses the in-memory implementation of core.SessionStore:
// per-user conversational memory with TTL-based expiry. Expiry is checked
// lazily on GetOrCreate; an optional background sweeper (StartSweeper) frees
// memory held by users who never come back. Either policy alone satisfies the
// store contract; both are provided and tested.
//
// Synchronization is per user key. The store-level mutex guards only the map
// itself and is held for map lookups, never across turn mutation, so
// operations on distinct user keys do not contend.
package session
