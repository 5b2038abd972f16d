//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountLifecycle(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.BaseURL+"/healthz", 60*time.Second)
	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	b := NewBrowser(t, cfg.BaseURL)
	email := "it-" + RandSuffix() + "@example.com"

	resp, body := b.Do(http.MethodPost, "/auth/register", map[string]string{
		"email": strings.ToUpper(email), "password": "Password1", "firstName": "Ada", "lastName": "Lovelace",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var reg struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &reg))
	assert.Equal(t, email, reg.User.Email)
	assert.Equal(t, "VISITOR", reg.User.Role)
	assert.Equal(t, 1, CountUsers(t, db, email))

	ev, ok := WaitAccountEvent(t, cfg, reg.User.ID, "account.registered", 30*time.Second)
	require.True(t, ok, "account.registered not published")
	assert.Equal(t, email, ev.Email)

	resp, _ = b.Do(http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	resp, body = b.Do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "Password1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = b.Do(http.MethodPatch, "/auth/profile", map[string]string{"firstName": "Augusta"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"firstName":"Augusta"`)

	resp, _ = b.Do(http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, body = b.Do(http.MethodDelete, "/auth/delete", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, 0, CountUsers(t, db, email))

	_, ok = WaitAccountEvent(t, cfg, reg.User.ID, "account.deleted", 30*time.Second)
	assert.True(t, ok, "account.deleted not published")

	resp, _ = b.Do(http.MethodGet, "/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
