package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/I-Yanis-I/museum-app/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (http.Handler, *fixture) {
	t.Helper()
	f := newFixture(t, nil)
	srv := NewServer(f.uc, Opts{Cookies: session.Cookies{AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour}})
	r := chi.NewRouter()
	srv.Mount(r, nil)
	return r, f
}

func post(h http.Handler, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func cookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestHTTP_RegisterLoginScenario(t *testing.T) {
	h, _ := newRouter(t)
	reg := map[string]string{"email": "a@x.com", "password": "Passw0rd", "firstName": "A", "lastName": "B"}

	rec := post(h, "/auth/register", reg)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Registration successful", body["message"])
	u := body["user"].(map[string]any)
	assert.Equal(t, "VISITOR", u["role"])
	assert.Equal(t, "a@x.com", u["email"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = post(h, "/auth/register", reg)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "This email is already in use", decode(t, rec)["error"])

	rec = post(h, "/auth/login", map[string]string{"email": "a@x.com", "password": "Passw0rd"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Connection successful", body["message"])

	cs := cookies(rec)
	require.Contains(t, cs, session.AccessCookie)
	require.Contains(t, cs, session.RefreshCookie)
	assert.Equal(t, 900, cs[session.AccessCookie].MaxAge)
	assert.Equal(t, 604800, cs[session.RefreshCookie].MaxAge)
	for _, c := range cs {
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
		assert.Equal(t, "/", c.Path)
	}

	rec = post(h, "/auth/login", map[string]string{"email": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decode(t, rec)["error"])
}

func TestHTTP_RegisterValidation(t *testing.T) {
	h, f := newRouter(t)

	rec := post(h, "/auth/register", map[string]string{"email": "nope", "password": "x", "firstName": "  ", "lastName": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Validation failed", body["error"])
	errs := body["errors"].(map[string]any)
	for _, field := range []string{"email", "password", "firstName", "lastName"} {
		assert.Contains(t, errs, field)
	}
	assert.Equal(t, 0, f.users.Len())

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHTTP_Refresh(t *testing.T) {
	h, f := newRouter(t)
	require.Equal(t, http.StatusCreated, post(h, "/auth/register",
		map[string]string{"email": "a@b.co", "password": "Passw0rd", "firstName": "Al", "lastName": "Bo"}).Code)
	login := post(h, "/auth/login", map[string]string{"email": "a@b.co", "password": "Passw0rd"})
	refresh := cookies(login)[session.RefreshCookie]

	rec := post(h, "/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No refresh token provided", decode(t, rec)["error"])

	rec = post(h, "/auth/refresh", nil, &http.Cookie{Name: session.RefreshCookie, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired refresh token", decode(t, rec)["error"])

	f.now = f.now.Add(time.Hour)
	rec = post(h, "/auth/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Token refreshed successfully", decode(t, rec)["message"])
	access := cookies(rec)[session.AccessCookie]
	require.NotNil(t, access)
	_, err := f.tokens.VerifyAccessToken(access.Value)
	assert.NoError(t, err)
}

func TestHTTP_LogoutClearsCookies(t *testing.T) {
	h, _ := newRouter(t)
	rec := post(h, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	cs := cookies(rec)
	assert.Equal(t, -1, cs[session.AccessCookie].MaxAge)
	assert.Equal(t, -1, cs[session.RefreshCookie].MaxAge)
}
