package middleware

import (
	"context"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type claimsKey struct{}

// Claims identifies the caller behind a verified service token
type Claims struct {
	Subject   string `json:"sub"`
	Issuer    string `json:"iss,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// RequestID returns the id chi's RequestID middleware assigned, or ""
func RequestID(ctx context.Context) string {
	return chimiddleware.GetReqID(ctx)
}

// WithClaims stores verified claims on the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the caller's claims when the request was authenticated
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// Caller returns the authenticated subject, or "anonymous" when auth is off
func Caller(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Subject
	}
	return "anonymous"
}
