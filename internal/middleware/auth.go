// Package middleware provides the HTTP middleware chain: authentication,
// request tracing, metrics, rate limiting and CORS.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/bookly-io/bookly/internal/auth"
	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/httputil"
	"github.com/bookly-io/bookly/internal/logging"
)

type contextKey string

const claimsKey contextKey = "token_claims"

// AuthMiddleware guards routes with bearer-token authentication.
type AuthMiddleware struct {
	issuer *auth.TokenIssuer
	logger *logging.Logger
}

// NewAuthMiddleware creates an authentication middleware around the issuer.
func NewAuthMiddleware(issuer *auth.TokenIssuer, logger *logging.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logging.NewDefault("auth")
	}
	return &AuthMiddleware{issuer: issuer, logger: logger}
}

// RequireAccessToken admits requests bearing a valid access token.
func (m *AuthMiddleware) RequireAccessToken() mux.MiddlewareFunc {
	return m.require(false)
}

// RequireRefreshToken admits requests bearing a valid refresh token. Only
// the token refresh endpoint uses this variant.
func (m *AuthMiddleware) RequireRefreshToken() mux.MiddlewareFunc {
	return m.require(true)
}

func (m *AuthMiddleware) require(refresh bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				m.respondError(w, r, errors.Unauthorized("Missing Authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				m.respondError(w, r, errors.Unauthorized("Invalid Authorization header format"))
				return
			}

			claims, err := m.issuer.Decode(parts[1])
			if err != nil {
				if err == auth.ErrExpiredToken {
					m.respondError(w, r, errors.Unauthorized("Token has expired"))
				} else {
					m.respondError(w, r, errors.Unauthorized("Invalid token"))
				}
				return
			}

			// A refresh token is never a substitute for an access token,
			// and vice versa.
			if claims.Refresh != refresh {
				if refresh {
					m.respondError(w, r, errors.Unauthorized("Refresh token required"))
				} else {
					m.respondError(w, r, errors.Unauthorized("Access token required"))
				}
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = logging.WithUserID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	m.logger.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
	}).Warn("authentication failed")
	httputil.WriteError(w, r, err)
}

// ClaimsFrom returns the verified token claims stored by the auth
// middleware, or nil when the request was not authenticated.
func ClaimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// UserIDFrom returns the authenticated user's uid, or "".
func UserIDFrom(ctx context.Context) string {
	return logging.GetUserID(ctx)
}
