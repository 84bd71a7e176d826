package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParse(t *testing.T) {
	token, err := Issue("secret", "alice", time.Hour)
	require.NoError(t, err)

	claims, err := Parse("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)

	_, err = Parse("other", token)
	assert.Error(t, err)
}

func TestExpired(t *testing.T) {
	token, err := Issue("secret", "alice", -time.Minute)
	require.NoError(t, err)
	_, err = Parse("secret", token)
	assert.Error(t, err)
}

func TestIssueWithoutSecret(t *testing.T) {
	_, err := Issue("", "alice", time.Hour)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	var subject string
	h := Middleware("secret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = Subject(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/writers", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/writers", nil)
	req.Header.Set("Authorization", "Bearer junk")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := Issue("secret", "bob", time.Hour)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/writers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", subject)
}

func TestMiddlewareDisabled(t *testing.T) {
	called := false
	h := Middleware("", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.True(t, called)
}
