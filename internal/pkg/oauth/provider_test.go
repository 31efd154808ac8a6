package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGithubOAuth_AuthURL(t *testing.T) {
	g := NewGithubOAuth("test-client-id", "test-secret", "http://example.com/callback")

	url := g.AuthURL("test-state")

	assert.Contains(t, url, "github.com")
	assert.Contains(t, url, "client_id=test-client-id")
	assert.Contains(t, url, "state=test-state")
	assert.Contains(t, url, "redirect_uri=")
	assert.Equal(t, ProviderGithub, g.Name())
}

func TestGoogleOAuth_AuthURL(t *testing.T) {
	g := NewGoogleOAuth("gid", "gsecret", "http://example.com/google/callback")

	url := g.AuthURL("s1")

	assert.Contains(t, url, "accounts.google.com")
	assert.Contains(t, url, "client_id=gid")
	assert.Contains(t, url, "state=s1")
	assert.Contains(t, url, "scope=openid+email")
	assert.Equal(t, ProviderGoogle, g.Name())
}

func TestGithubOAuth_IdentityFallsBackToPrimaryEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 98765, "login": "matchafan", "email": ""}`))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "main@example.com", "primary": true, "verified": true}
		]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	g := NewGithubOAuth("id", "secret", "")
	g.apiBase = server.URL

	id, err := g.identity(context.Background(), server.Client())
	require.NoError(t, err)
	assert.Equal(t, "98765", id.ID)
	assert.Equal(t, "main@example.com", id.Email)
	assert.Equal(t, ProviderGithub, id.Provider)
}

func TestGithubOAuth_IdentityAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	g := NewGithubOAuth("id", "secret", "")
	g.apiBase = server.URL

	_, err := g.identity(context.Background(), server.Client())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad credentials")
}

func TestGoogleOAuth_IdentityDropsUnverifiedEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sub": "1122", "email": "x@example.com", "email_verified": false}`))
	}))
	defer server.Close()

	g := NewGoogleOAuth("id", "secret", "")
	g.userinfoURL = server.URL

	id, err := g.identity(context.Background(), server.Client())
	require.NoError(t, err)
	assert.Equal(t, "1122", id.ID)
	assert.Empty(t, id.Email)
}
