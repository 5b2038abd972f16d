package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/I-Yanis-I/museum-app/internal/auth"
	config "github.com/I-Yanis-I/museum-app/internal/config/museum-auth"
	"github.com/I-Yanis-I/museum-app/internal/httpx"
	"github.com/I-Yanis-I/museum-app/internal/services/museum-auth/account"
	authsvc "github.com/I-Yanis-I/museum-app/internal/services/museum-auth/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

func testConfig(frontend string) *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.DB.Driver = config.DriverMemory
	cfg.Auth.AccessSecret = "access-secret"
	cfg.Auth.RefreshSecret = "refresh-secret"
	cfg.Auth.AccessTTL = 15 * time.Minute
	cfg.Auth.RefreshTTL = 168 * time.Hour
	cfg.Session.SilentRefresh = true
	cfg.Frontend.URL = frontend
	return cfg
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	return newLimitedRouter(t, cfg, nil)
}

func newLimitedRouter(t *testing.T, cfg *config.Config, limiter *httpx.RateLimiter) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	st, err := initStores(context.Background(), cfg, logger)
	require.NoError(t, err)

	tokens, err := auth.New(cfg.TokensConfig())
	require.NoError(t, err)
	authUC, err := authsvc.NewUseCase(authsvc.Deps{
		Users: st.Users, Tokens: tokens, Tx: st.Tx, Outbox: st.Outbox,
	}, authsvc.Config{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	accountUC := account.NewUseCase(account.Deps{Users: st.Users, Tx: st.Tx, Outbox: st.Outbox})

	h, err := newRouter(cfg, logger, httpDeps{
		auth: authUC, account: accountUC, tokens: tokens, stores: st, limiter: limiter,
	})
	require.NoError(t, err)
	return h
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t, testConfig(""))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "museum-api", body["service"])
	assert.NotEmpty(t, body["timestamp"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_PagesAreGated(t *testing.T) {
	front := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("page " + r.URL.Path))
	}))
	defer front.Close()
	h := newTestRouter(t, testConfig(front.URL))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/profile", loc.Query().Get("from"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exhibitions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "page /exhibitions", rec.Body.String())
}

func TestRouter_NoFrontendIs404(t *testing.T) {
	h := newTestRouter(t, testConfig(""))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exhibitions", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RegisterThenProfile(t *testing.T) {
	h := newTestRouter(t, testConfig(""))

	body := `{"email":"ada@example.com","password":"Password1","firstName":"Ada","lastName":"Lovelace"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"Password1"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"ada@example.com"`)
}

func TestRouter_SpoofedForwardingHeaderStillLimited(t *testing.T) {
	rl := httpx.NewRateLimiter(httpx.RateLimitConfig{Rate: 1, Burst: 1, CleanupInterval: time.Minute}, nil)
	defer rl.Stop()
	h := newLimitedRouter(t, testConfig(""), rl)

	login := func(i int) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			strings.NewReader(`{"email":"nobody@x.com","password":"Passw0rd"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.0.0.7:5000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, login(1))
	assert.Equal(t, http.StatusTooManyRequests, login(2))
	assert.Equal(t, http.StatusTooManyRequests, login(3))
}

func TestAmbient_PanicGetsAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mws := ambient(testConfig(""), zap.New(core))

	var h http.Handler = http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/profile", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, logs.FilterMessage("panic recovered").All(), 1)
	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, http.StatusInternalServerError, entries[0].ContextMap()["status"])
}
