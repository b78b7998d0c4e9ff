package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCoinsConvert(t *testing.T) {
	out, err := run(t, "coins", "convert", "10,50")
	require.NoError(t, err)
	assert.Equal(t, "10,50 = 1050 coins\n", out)

	out, err = run(t, "coins", "convert", "19,99")
	require.NoError(t, err)
	assert.Equal(t, "19,99 = 1999 coins\n", out)

	out, err = run(t, "coins", "convert", "0.019")
	require.NoError(t, err)
	assert.Equal(t, "0.019 = 1 coins\n", out)

	out, err = run(t, "coins", "convert", "--from-coins", "123456")
	require.NoError(t, err)
	assert.Equal(t, "123456 coins = R$ 1.234,56\n", out)

	_, err = run(t, "coins", "convert", "abc")
	assert.Error(t, err)
}

func TestAdminCommandsRequireCredentials(t *testing.T) {
	t.Setenv("UTICTL_USERNAME", "")
	t.Setenv("UTICTL_PASSWORD", "")
	_, err := run(t, "force-logout", "some-user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username and password are required")
}

func TestForceLogoutCallsAPI(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: "a"})
			_ = json.NewEncoder(w).Encode(map[string]any{"is_admin": true})
		case "/api/v1/admin/users/u1/force-logout":
			if c, err := r.Cookie("accessToken"); err != nil || c.Value != "a" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"user_id": "u1", "revoked_tokens": 1})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	out, err := run(t, "--base-url", srv.URL, "-u", "admin", "-p", "pw", "force-logout", "u1")
	require.NoError(t, err)
	assert.Equal(t, "user u1 logged out\n", out)
	assert.Equal(t, []string{"POST /api/v1/auth/login", "POST /api/v1/admin/users/u1/force-logout"}, calls)
}

func TestNonAdminIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"is_admin": false})
	}))
	defer srv.Close()

	_, err := run(t, "--base-url", srv.URL, "-u", "alice", "-p", "pw", "admin-link", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an admin")
}
