package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insa-apps/studygate/internal/domain"
)

type fakeGateway struct {
	mux          *http.ServeMux
	statusCalls  int
	loginCalls   int
	loginEmails  []string
	loginUIDs    []string
	authenticate bool
}

func newFakeGateway() *fakeGateway {
	g := &fakeGateway{mux: http.NewServeMux()}

	g.mux.HandleFunc("GET /auth-status", func(w http.ResponseWriter, r *http.Request) {
		g.statusCalls++
		json.NewEncoder(w).Encode(map[string]any{"authenticated": g.authenticate})
	})
	g.mux.HandleFunc("POST /login-with-headers", func(w http.ResponseWriter, r *http.Request) {
		g.loginCalls++
		email := r.Header.Get(domain.AuthEmailHeader)
		if email == "" {
			http.Error(w, "missing header", http.StatusBadRequest)
			return
		}
		g.loginEmails = append(g.loginEmails, email)
		g.loginUIDs = append(g.loginUIDs, r.Header.Get(domain.AuthUIDHeader))
		g.authenticate = true
		http.SetCookie(w, &http.Cookie{Name: domain.SessionCookie, Value: "tok", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: domain.EmailHintCookie, Value: email, Path: "/"})
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"user":    map[string]any{"email": email, "username": "bob"},
		})
	})
	g.mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		g.authenticate = false
		http.SetCookie(w, &http.Cookie{Name: domain.SessionCookie, Value: "", Path: "/", MaxAge: -1})
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	return g
}

func TestClientLoginStoresCookies(t *testing.T) {
	gateway := newFakeGateway()
	server := httptest.NewServer(gateway.mux)
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	result, err := c.Login(context.Background(), "bob@example.com", "bsmith")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "bob", result.User.Username)
	assert.Equal(t, []string{"bob@example.com"}, gateway.loginEmails)
	assert.Equal(t, []string{"bsmith"}, gateway.loginUIDs)

	assert.Equal(t, "bob@example.com", c.EmailHint(),
		"hint cookie lands in the jar")
}

func TestClientStatusCaching(t *testing.T) {
	gateway := newFakeGateway()
	server := httptest.NewServer(gateway.mux)
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		status, err := c.GetAuthStatus(ctx)
		require.NoError(t, err)
		assert.False(t, status.Authenticated)
	}
	assert.Equal(t, 1, gateway.statusCalls, "burst shares one request")

	// Login invalidates the cached status.
	_, err = c.Login(ctx, "bob@example.com", "")
	require.NoError(t, err)

	status, err := c.GetAuthStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Authenticated)
	assert.Equal(t, 2, gateway.statusCalls)
}

func TestClientEmailHintEmptyBeforeLogin(t *testing.T) {
	server := httptest.NewServer(newFakeGateway().mux)
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)
	assert.Empty(t, c.EmailHint())
}

func TestProbeAdapter(t *testing.T) {
	gateway := newFakeGateway()
	server := httptest.NewServer(gateway.mux)
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)
	probe := Probe{Client: c}

	ctx := context.Background()
	authenticated, err := probe.AuthStatus(ctx)
	require.NoError(t, err)
	assert.False(t, authenticated)

	require.NoError(t, probe.RetryLogin(ctx, "bob@example.com"))
	assert.Equal(t, 1, gateway.loginCalls)

	authenticated, err = probe.AuthStatus(ctx)
	require.NoError(t, err)
	assert.True(t, authenticated, "retry cleared the cached status")
}

func TestProbeRetryWithoutHintFails(t *testing.T) {
	server := httptest.NewServer(newFakeGateway().mux)
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	err = Probe{Client: c}.RetryLogin(context.Background(), "")
	assert.Error(t, err, "the gateway rejects a login without any credential source")
}
