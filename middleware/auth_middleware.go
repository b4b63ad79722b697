package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/upb/triage-pipeline/services"
	"github.com/upb/triage-pipeline/utils"
)

// AuthMiddleware guards routes with bearer service tokens
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. A nil validator disables
// authentication and every request passes through.
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// Enabled reports whether tokens are checked
func (m *AuthMiddleware) Enabled() bool {
	return m.validator != nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token's claims on the request context
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	if !m.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := m.logger.With(
			zap.String("request_id", RequestID(ctx)),
			zap.String("path", r.URL.Path))

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			log.Warn("missing bearer token")
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			log.Warn("token rejected", zap.Error(err))
			message := "Invalid token"
			if errors.Is(err, services.ErrTokenExpired) {
				message = "Token expired"
			}
			_ = utils.WriteUnauthorized(w, message)
			return
		}

		log.Debug("caller authenticated", zap.String("sub", claims.Subject))
		next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
	})
}

// bearerToken parses "Bearer <token>", scheme case-insensitive
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
