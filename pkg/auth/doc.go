// Package auth provides pluggable authentication and authorization for
// zettel.
//
// Authenticators are tried in a chain and vote with three outcomes: Yes
// (identity established), No (credentials present but invalid), or Abstain
// (credential type not handled). The first non-abstaining vote wins; a
// configurable default decides when every authenticator abstains, which is
// how open (development) and token (production) modes differ.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from service
// logic. The middleware injects the caller's identity into the request
// context, where handlers read it for ownership and scope checks, and
// enforces per-tier rate limits once the caller is known.
package auth
