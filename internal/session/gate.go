package session

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/I-Yanis-I/museum-app/internal/auth"
	domainauth "github.com/I-Yanis-I/museum-app/internal/domain/auth"
	"github.com/I-Yanis-I/museum-app/internal/domain/user"
	"github.com/I-Yanis-I/museum-app/internal/httpx"
	"github.com/I-Yanis-I/museum-app/internal/obs"
	"go.uber.org/zap"
)

// Refresher mints a new access token from a refresh token.
type Refresher interface {
	RefreshAccess(ctx context.Context, refreshToken string) (string, *user.User, error)
}

type GateConfig struct {
	Routes        Routes
	SilentRefresh bool
	LoginPath     string
	HomePath      string
}

// Gate guards page routes. A request reaches next only with the decision Allow,
// and on auth-required routes only with an access token verified by this gate.
type Gate struct {
	verifier  domainauth.AccessVerifier
	refresher Refresher
	cookies   Cookies
	cfg       GateConfig
	log       *zap.Logger
}

func NewGate(v domainauth.AccessVerifier, rf Refresher, c Cookies, cfg GateConfig, log *zap.Logger) *Gate {
	if cfg.Routes == nil {
		cfg.Routes = DefaultRoutes()
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.HomePath == "" {
		cfg.HomePath = "/"
	}
	return &Gate{verifier: v, refresher: rf, cookies: c, cfg: cfg, log: obs.OrNop(log)}
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := g.cfg.Routes.Classify(r.URL.Path)
		state, claims := g.authenticate(w, r)

		var role user.Role
		if claims != nil {
			role = claims.Role
		}
		d := Decide(class, state, role)
		if d.ClearCookies {
			g.cookies.Clear(w)
		}

		log := obs.WithTrace(r.Context(), g.log)
		switch d.Action {
		case RedirectLogin:
			target := g.cfg.LoginPath
			if d.KeepFrom {
				target += "?" + url.Values{"from": {r.URL.RequestURI()}}.Encode()
			}
			log.Debug("gate redirect", zap.String("path", r.URL.Path), zap.Stringer("class", class), zap.String("to", target))
			http.Redirect(w, r, target, http.StatusTemporaryRedirect)
		case RedirectHome:
			log.Debug("gate redirect", zap.String("path", r.URL.Path), zap.Stringer("class", class), zap.String("to", g.cfg.HomePath))
			http.Redirect(w, r, g.cfg.HomePath, http.StatusTemporaryRedirect)
		default:
			ctx := r.Context()
			if claims != nil {
				ctx = WithClaims(ctx, claims)
				httpx.SetUserID(ctx, claims.UserID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}

// authenticate verifies the access cookie, falling back to a silent refresh when
// it is missing or expired and a refresh cookie is present.
func (g *Gate) authenticate(w http.ResponseWriter, r *http.Request) (TokenState, *domainauth.AccessClaims) {
	raw := read(r, AccessCookie)
	refreshRaw := read(r, RefreshCookie)

	expired := false
	if raw != "" {
		claims, err := g.verifier.VerifyAccessToken(raw)
		if err == nil {
			return TokenValid, claims
		}
		if !errors.Is(err, auth.ErrTokenExpired) {
			return TokenInvalid, nil
		}
		expired = true
	}

	if refreshRaw == "" || !g.cfg.SilentRefresh || g.refresher == nil {
		if expired {
			return TokenInvalid, nil
		}
		return TokenAbsent, nil
	}

	access, _, err := g.refresher.RefreshAccess(r.Context(), refreshRaw)
	if err != nil {
		obs.WithTrace(r.Context(), g.log).Debug("silent refresh failed", zap.Error(err))
		return TokenInvalid, nil
	}
	claims, err := g.verifier.VerifyAccessToken(access)
	if err != nil {
		obs.WithTrace(r.Context(), g.log).Error("freshly minted access token rejected", zap.Error(err))
		return TokenInvalid, nil
	}
	g.cookies.SetAccess(w, access)
	return TokenValid, claims
}
