package session

import (
	"errors"
	"net/http"
	"strings"

	domainauth "github.com/I-Yanis-I/museum-app/internal/domain/auth"
	"github.com/I-Yanis-I/museum-app/internal/domain/user"
	"github.com/I-Yanis-I/museum-app/internal/httpx"
	"github.com/I-Yanis-I/museum-app/internal/obs"
	"go.uber.org/zap"
)

const (
	MsgUnauthorized = "Unauthorized - Please login"
	MsgForbidden    = "Forbidden"
)

// RequireAccess guards JSON endpoints: the access token comes from the accessToken
// cookie, or from an Authorization bearer header when the cookie is absent.
func RequireAccess(v domainauth.AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := read(r, AccessCookie)
			if raw == "" {
				raw = bearer(r)
			}
			if raw == "" {
				httpx.WriteError(w, http.StatusUnauthorized, MsgUnauthorized)
				return
			}
			claims, err := v.VerifyAccessToken(raw)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, MsgUnauthorized)
				return
			}
			httpx.SetUserID(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin must run after RequireAccess. The role is read from the store,
// so a demotion takes effect before the access token expires.
func RequireAdmin(users user.Repo, log *zap.Logger) func(http.Handler) http.Handler {
	log = obs.OrNop(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, MsgUnauthorized)
				return
			}
			u, err := users.GetByID(r.Context(), claims.UserID)
			switch {
			case errors.Is(err, user.ErrUserNotFound):
				httpx.WriteError(w, http.StatusUnauthorized, MsgUnauthorized)
				return
			case err != nil:
				obs.WithTrace(r.Context(), log).Error("admin check", zap.String("user_id", claims.UserID), zap.Error(err))
				httpx.WriteInternal(w)
				return
			case u.Role != user.RoleAdmin:
				httpx.WriteError(w, http.StatusForbidden, MsgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) string {
	v := r.Header.Get("Authorization")
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return ""
}
