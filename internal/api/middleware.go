// internal/api/middleware.go
package api

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/CampusCourts/internal/api/apiutil"
	"github.com/codr1/CampusCourts/internal/api/auth"
	"github.com/codr1/CampusCourts/internal/api/authz"
	"github.com/codr1/CampusCourts/internal/booking"
)

const profileSyncTimeout = 2 * time.Second

type Middleware func(http.Handler) http.Handler

type requestIDKey struct{}

func ChainMiddleware(h http.Handler, middleware ...Middleware) http.Handler {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

// RequestIDFromContext returns the id assigned by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create response wrapper to capture status code
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)
		log.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger := log.Ctx(r.Context())
				// Log the full stack trace
				stack := debug.Stack()
				logger.Error().
					Interface("error", err).
					Str("stack", string(stack)).
					Msg("Panic recovered")

				apiutil.WriteKind(w, r, booking.KindInternal, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		// Create a logger with the request ID
		logger := log.With().Str("request_id", requestID).Logger()

		// Add both the request ID and logger to context
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		ctx = logger.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithAuth resolves the bearer token into an authz.AuthUser. Requests without
// a token continue anonymously; requests with a bad token are rejected.
func WithAuth(authenticator *auth.Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.Ctx(r.Context())
			user, err := authenticator.UserFromRequest(r)
			if err != nil {
				if errors.Is(err, auth.ErrMissingToken) {
					next.ServeHTTP(w, r)
					return
				}
				logger.Warn().Err(err).Msg("Rejected bearer token")
				apiutil.WriteKind(w, r, booking.KindUnauthenticated, "invalid or expired token")
				return
			}

			syncCtx, cancel := context.WithTimeout(r.Context(), profileSyncTimeout)
			if err := authenticator.SyncProfile(syncCtx, user); err != nil {
				logger.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to sync user profile")
			}
			cancel()

			ctx := authz.ContextWithUser(r.Context(), user)
			ctx = logger.With().Int64("user_id", user.ID).Logger().WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authz.RequireUser(r.Context()); err != nil {
			apiutil.WriteError(w, r, err)
			return
		}
		next(w, r)
	}
}

// RequirePrivileged admits staff and admins only.
func RequirePrivileged(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.Ctx(r.Context())
		if _, err := authz.RequirePrivileged(r.Context()); err != nil {
			if errors.Is(err, authz.ErrForbidden) {
				logger.Warn().Str("path", r.URL.Path).Msg("Privileged access denied")
			}
			apiutil.WriteError(w, r, err)
			return
		}
		next(w, r)
	}
}

// responseWriter wrapper to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
