package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LoginThenAdminCallRefreshesOnExpiry(t *testing.T) {
	refreshed := false
	forceLogoutCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: "old", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "r1", Path: "/"})
		_ = json.NewEncoder(w).Encode(map[string]bool{"is_admin": true})
	})
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("refreshToken"); assert.NoError(t, err) {
			assert.Equal(t, "r1", ck.Value)
		}
		refreshed = true
		http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: "new", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/v1/admin/users/u1/force-logout", func(w http.ResponseWriter, r *http.Request) {
		forceLogoutCalls++
		ck, _ := r.Cookie("accessToken")
		if ck == nil || ck.Value != "new" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid access token"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL)
	c.Retry = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	res, err := c.Login(context.Background(), "admin", "pw")
	require.NoError(t, err)
	assert.True(t, res.IsAdmin)

	require.NoError(t, c.ForceLogout(context.Background(), "u1"))
	assert.True(t, refreshed)
	assert.Equal(t, 2, forceLogoutCalls)
}

func TestClient_APIErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid body"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.Do(context.Background(), http.MethodPost, "/x", map[string]int{"a": 1}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid body", apiErr.Message)
}
