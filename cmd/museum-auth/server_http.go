package main

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	config "github.com/I-Yanis-I/museum-app/internal/config/museum-auth"
	domainauth "github.com/I-Yanis-I/museum-app/internal/domain/auth"
	"github.com/I-Yanis-I/museum-app/internal/httpx"
	"github.com/I-Yanis-I/museum-app/internal/obs"
	"github.com/I-Yanis-I/museum-app/internal/services/museum-auth/account"
	authsvc "github.com/I-Yanis-I/museum-app/internal/services/museum-auth/auth"
	"github.com/I-Yanis-I/museum-app/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// httpDeps are the already wired collaborators of the HTTP surface.
type httpDeps struct {
	auth    *authsvc.Usecase
	account *account.Usecase
	tokens  domainauth.AccessVerifier
	stores  *stores
	limiter *httpx.RateLimiter
}

func newRouter(cfg *config.Config, logger *zap.Logger, d httpDeps) (http.Handler, error) {
	cookies := cfg.Cookies()

	r := chi.NewRouter()
	r.Use(ambient(cfg, logger)...)

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"status":    "OK",
			"service":   "museum-api",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.Get("/healthz", obs.HealthHandler(d.stores.Health))
	r.Handle("/metrics", obs.MetricsHandler())

	var limit func(http.Handler) http.Handler
	if d.limiter != nil {
		limit = d.limiter.Middleware
	}
	authsvc.NewServer(d.auth, authsvc.Opts{Logger: logger, Cookies: cookies}).Mount(r, limit)
	account.NewServer(d.account, account.Opts{Logger: logger, Cookies: cookies}).Mount(r,
		session.RequireAccess(d.tokens),
		session.RequireAdmin(d.stores.Users, logger),
	)

	pages, err := frontendHandler(cfg.Frontend.URL, logger)
	if err != nil {
		return nil, err
	}
	gate := session.NewGate(d.tokens, d.auth, cookies, session.GateConfig{
		SilentRefresh: cfg.Session.SilentRefresh,
	}, logger)
	r.NotFound(gate.Middleware(pages).ServeHTTP)

	return obs.HTTPHandler(r, "museum-auth"), nil
}

// ambient is the middleware chain in front of every route. Logging sits outside
// Recovery so a request that panics still gets its access line.
func ambient(cfg *config.Config, logger *zap.Logger) []func(http.Handler) http.Handler {
	mws := []func(http.Handler) http.Handler{middleware.RequestID}
	// Forwarding headers are client-controlled unless a proxy in front rewrites them.
	if cfg.Server.TrustProxy {
		mws = append(mws, middleware.RealIP)
	}
	return append(mws,
		httpx.Logging(logger),
		httpx.Recovery(logger),
		obs.HTTPMetrics,
		httpx.CORS(cfg.CORS.AllowedOrigins),
	)
}

// frontendHandler proxies gated page requests to the frontend, or answers 404 without one.
func frontendHandler(raw string, logger *zap.Logger) (http.Handler, error) {
	if raw == "" {
		return http.NotFoundHandler(), nil
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse frontend.url: %w", err)
	}
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = obs.HTTPTransport(nil)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		obs.WithTrace(r.Context(), logger).Warn("frontend proxy", zap.String("path", r.URL.Path), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
	}
	return proxy, nil
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           h,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}
