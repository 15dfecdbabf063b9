// Package api defines the wire types for the Zettel notes service.
//
// This package provides the data types exchanged over the HTTP API:
// users, notes, request/response payloads, structured errors, ID
// generation, and request validation.
//
// The package depends only on github.com/google/uuid (identifier
// generation) and performs no I/O. All types produce the JSON shapes
// served by the transport layer; derived or secret fields (password
// hashes, embedding vectors) are excluded from serialization.
//
// Core types:
//   - [User]: A registered account with a service tier
//   - [Note]: A user-owned text note with an optional cached embedding
//   - [APIError]: Structured error with type, code, param, and message
package api
