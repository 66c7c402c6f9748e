// file: internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"hackspeech/internal/contextutils"
	"hackspeech/internal/response"
	"hackspeech/internal/services"

	"go.uber.org/zap"
)

const (
	msgAuthRequired = "Authentification requise"
	msgInvalidToken = "Token invalide ou expiré"
)

// TokenResolver maps a bearer token to a user id
type TokenResolver interface {
	ResolveUser(token string) (int64, error)
}

// AuthMiddleware guards the authenticated API surface
type AuthMiddleware struct {
	tokens TokenResolver
	logger *zap.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens TokenResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, logger: logger}
}

// RequireAuth rejects requests without a valid token before any handler runs
func (am *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := ExtractToken(r)
		if token == "" {
			response.QuickError(w, r, services.NewUnauthorizedError(msgAuthRequired))
			return
		}

		userID, err := am.tokens.ResolveUser(token)
		if err != nil {
			GetRequestLogger(ctx).Debug("Token rejected", zap.Error(err))
			response.QuickError(w, r, services.NewUnauthorizedError(msgInvalidToken))
			return
		}

		markRequestUser(ctx, userID)
		ctx = contextutils.WithUserID(ctx, userID)
		ctx = contextutils.WithLogger(ctx, GetRequestLogger(ctx).With(zap.Int64("user_id", userID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractToken reads "Authorization: Bearer <token>". Websocket upgrades may
// pass the token as the "token" query parameter since browsers cannot set
// headers on them.
func ExtractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}
