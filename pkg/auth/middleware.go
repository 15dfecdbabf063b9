package auth

import (
	"log/slog"
	"net/http"

	"github.com/rhuss/zettel/pkg/debug"
	"github.com/rhuss/zettel/pkg/observability"
)

// Middleware builds the HTTP auth middleware from a chain and an
// optional rate limiter. Requests to a bypass endpoint skip the chain
// entirely; everything else must come out of it with a Yes vote and a
// usable identity before the limiter runs and the handler is reached.
func Middleware(chain *AuthChain, limiter RateLimiter, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)
			debug.Log("auth", "chain decision", "path", r.URL.Path, "decision", result.Decision)

			if result.Decision != Yes || result.Identity == nil {
				// An explicit No carries the failing authenticator's error;
				// an abstain that fell through to the default does not.
				if result.Decision == No {
					slog.Warn("authentication failed",
						"path", r.URL.Path,
						"remote_addr", r.RemoteAddr,
						"error", result.Err,
					)
				}
				http.Error(w, `{"error":{"type":"unauthorized","message":"authentication required"}}`, http.StatusUnauthorized)
				return
			}

			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject")
				http.Error(w, `{"error":{"type":"server_error","message":"internal authentication error"}}`, http.StatusInternalServerError)
				return
			}

			slog.Debug("authentication succeeded",
				"subject", result.Identity.Subject,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			if limiter != nil {
				if err := limiter.Allow(r.Context(), result.Identity); err != nil {
					slog.Warn("rate limit exceeded",
						"subject", result.Identity.Subject,
						"tier", result.Identity.ServiceTier,
					)
					observability.RateLimitRejectedTotal.WithLabelValues(result.Identity.ServiceTier).Inc()
					http.Error(w, `{"error":{"type":"too_many_requests","message":"rate limit exceeded"}}`, http.StatusTooManyRequests)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), result.Identity)))
		})
	}
}

// DefaultBypassEndpoints lists endpoints that skip authentication. Register
// and login are open so new users can obtain a token.
var DefaultBypassEndpoints = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/users/register",
	"/v1/users/login",
}
