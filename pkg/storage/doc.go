// Package storage defines the persistence contracts for users and notes,
// plus sentinel errors shared across store implementations.
//
// Two adapters implement the contracts: memory (mutex-guarded maps with
// brute-force vector search) and postgres (pgx-backed, with native
// vector search when the pgvector extension is available). Owner scoping
// is an explicit parameter of the contract rather than context-carried
// state, because search and listing are defined in terms of an optional
// owner filter.
package storage
