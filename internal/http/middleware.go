package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/application"
	"github.com/example/booking-portal/internal/logging"
	"github.com/example/booking-portal/internal/metrics"
)

// sessionCookieName is the HttpOnly cookie mirroring the bearer token for
// browser clients.
const sessionCookieName = "session_token"

// TokenVerifier resolves a bearer token to the account it belongs to.
// Expired, malformed, and revoked tokens return ErrUnauthorized.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (application.User, error)
}

// extractToken pulls the session token from the Authorization header,
// falling back to the session cookie.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth verifies the request's session token and stores the resulting
// principal in the context. Requests without a valid token never reach the
// wrapped handler.
func RequireAuth(verifier TokenVerifier, rp responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			token := extractToken(r)
			if token == "" {
				rp.writeError(r.Context(), w, http.StatusUnauthorized, codeAuthRequired, "authentication required")
				return
			}

			user, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				rp.handleServiceError(r.Context(), w, err)
				return
			}

			principal := application.Principal{UserID: user.ID, Role: user.Role}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAdmin rejects non-admin principals. It must run inside RequireAuth.
func RequireAdmin(rp responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				rp.writeError(r.Context(), w, http.StatusUnauthorized, codeAuthRequired, "authentication required")
				return
			}
			if !principal.IsAdmin() {
				rp.writeError(r.Context(), w, http.StatusForbidden, codeForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger assigns each request a sequential id, installs a
// request-scoped logger in the context, and records an access log line plus
// the HTTP metrics once the handler finishes.
func RequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With().
				Uint64("request_id", id).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Logger()

			ctx := logging.ContextWithLogger(r.Context(), logger)
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))
			elapsed := time.Since(start)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			metrics.RecordHTTPRequest(r.Method, route, status, elapsed)
			logger.Info().
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", elapsed).
				Str("route", route).
				Msg("request completed")
		})
	}
}

// Recoverer converts handler panics into JSON 500 responses so a single bad
// request cannot take the server down. http.ErrAbortHandler passes through
// untouched.
func Recoverer(rp responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger := logging.FromContext(r.Context())
					logger.Error().
						Interface("panic", rec).
						Bytes("stack", debug.Stack()).
						Msg("handler panicked")
					rp.writeError(r.Context(), w, http.StatusInternalServerError, codeInternal, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
