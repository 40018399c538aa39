package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/utilities"
)

// UserLoader loads the auth projection of a user. It must return
// sql.ErrNoRows when the user does not exist.
type UserLoader interface {
	GetAuthView(ctx context.Context, id string) (*entity.AuthView, error)
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *entity.AuthView) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the authenticated user stored by Middleware.
func UserFromContext(ctx context.Context) (*entity.AuthView, bool) {
	u, ok := ctx.Value(ctxKey{}).(*entity.AuthView)
	return u, ok && u != nil
}

// BearerToken extracts the token from an `Authorization: Bearer <token>` header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

// Middleware rejects requests without a valid bearer token for an existing
// user and stores that user in the request context.
func Middleware(issuer *Issuer, users UserLoader, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				utilities.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			claims, err := issuer.Verify(token)
			if err != nil {
				logger.Debugw("token rejected", "err", err)
				utilities.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			u, err := users.GetAuthView(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					logger.Debugw("token for unknown user", "user_id", claims.UserID)
					utilities.WriteError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				logger.Errorw("load token user failed", "user_id", claims.UserID, "err", err)
				utilities.WriteError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
