package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/hostledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// principalKey is the context key for the authenticated caller.
const principalKey contextKey = "principal"

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal extracts the caller from the context.
func GetPrincipal(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(auth.Principal)
	return p, ok
}

// GetUserID returns the caller's user ID, or "" before authentication.
func GetUserID(ctx context.Context) string {
	p, _ := GetPrincipal(ctx)
	return p.UserID
}

// GetOrgID returns the caller's organization, or "" before authentication.
func GetOrgID(ctx context.Context) string {
	p, _ := GetPrincipal(ctx)
	return p.OrgID
}

// RequireAuth validates the bearer token and stores the principal in the
// request context. Requests without a valid token are rejected.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			p, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			return next(WithPrincipal(ctx, p), req)
		}
	}
}

// StaticPrincipal attaches a fixed principal to every request. It backs
// single-tenant deployments that run without JWT_SECRET.
func StaticPrincipal(p auth.Principal) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return next(WithPrincipal(ctx, p), req)
		}
	}
}
