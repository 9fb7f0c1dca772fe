package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedKey(t *testing.T, role string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": role})
	key, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return key
}

func TestInvoke_PassesStatusAndBodyThrough(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"match": false, "reason": "already swiped"}`))
	}))
	defer server.Close()

	anon := signedKey(t, "anon")
	client, err := NewClient(server.URL, anon, "")
	require.NoError(t, err)

	result, err := client.Invoke(context.Background(), "check-match", []byte(`{"sessionId": "s"}`), false)
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, result.StatusCode)
	assert.JSONEq(t, `{"match": false, "reason": "already swiped"}`, string(result.Body))
	assert.Equal(t, "Bearer "+anon, gotAuth)
	assert.Equal(t, "/functions/v1/check-match", gotPath)
}

func TestInvoke_ServiceRoleSelectsServiceKey(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	service := signedKey(t, "service_role")
	client, err := NewClient(server.URL, signedKey(t, "anon"), service)
	require.NoError(t, err)

	_, err = client.Invoke(context.Background(), "check-match", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+service, gotAuth)
}

func TestInvoke_ServiceRoleWithoutKey(t *testing.T) {
	client, err := NewClient("http://localhost:1", signedKey(t, "anon"), "")
	require.NoError(t, err)

	_, err = client.Invoke(context.Background(), "check-match", nil, true)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewClient_RequiresURLAndAnonKey(t *testing.T) {
	_, err := NewClient("", "key", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient("http://localhost", "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
