package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkstone/handsynth/auth"
	"github.com/inkstone/handsynth/config"
	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/model"
	"github.com/inkstone/handsynth/model/modeltest"
	"github.com/inkstone/handsynth/shell"
)

const capture = `{"text": "to", "strokes": [
  [[0, 0, 0], [4, 6, 0], [8, 12, 0], [8, 12, 1]],
  [[20, 0, 0], [24, 5, 0], [20, 10, 0], [20, 10, 1]]
]}`

func newServer(t *testing.T, secret string) (*httptest.Server, string) {
	cfg := config.Default()
	cfg.StoreDir = filepath.Join(t.TempDir(), "writers")
	cfg.Server.JWTSecret = secret
	ctx, err := shell.NewShellCtxt(cfg)
	require.NoError(t, err)
	ctx.SetModel(modeltest.New(model.DefaultSpec()))

	srv := httptest.NewServer(NewApiServer(ctx).Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample_0.json"), []byte(capture), 0600))
	return srv, dir
}

func post(t *testing.T, url string, body interface{}) *http.Response {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeData(t *testing.T, resp *http.Response, v interface{}) {
	var out struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NoError(t, json.Unmarshal(out.Data, v))
}

func TestServerFlow(t *testing.T) {
	srv, dir := newServer(t, "")

	resp := post(t, srv.URL+"/api/build", shell.BuildRequest{Writer: "1", Dir: dir})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Get(srv.URL + "/api/writers")
	require.NoError(t, err)
	defer resp.Body.Close()
	var writers []shell.WriterJSON
	decodeData(t, resp, &writers)
	require.Len(t, writers, 1)
	assert.Equal(t, 1, writers[0].Samples)

	resp, err = http.Get(srv.URL + "/api/sample?writer=1&sample=0")
	require.NoError(t, err)
	defer resp.Body.Close()
	var smp shell.SampleJSON
	decodeData(t, resp, &smp)
	assert.Equal(t, "to", smp.Text)
	assert.Equal(t, "to", smp.RecoveredText)

	resp = post(t, srv.URL+"/api/generate?format=svg", shell.GenerateRequest{
		Text:         "hi there",
		StyleRequest: shell.StyleRequest{Writers: []string{"1"}},
		Seed:         7,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, "7", resp.Header.Get("X-Seed"))
}

func TestServerErrors(t *testing.T) {
	srv, _ := newServer(t, "")

	resp, err := http.Get(srv.URL + "/api/samples?writer=ghost")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/samples")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/api/generate", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/api/style", map[string]string{"colour": "red"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/build")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServerAuth(t *testing.T) {
	srv, _ := newServer(t, "secret")

	resp, err := http.Get(srv.URL + "/api/version")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	token, err := auth.Issue("secret", "tester", time.Minute)
	require.NoError(t, err)
	req, err := http.NewRequest("GET", srv.URL+"/api/version", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		kind errs.Kind
		want int
	}{
		{errs.Validation, http.StatusBadRequest},
		{errs.Data, http.StatusNotFound},
		{errs.Generation, http.StatusUnprocessableEntity},
		{errs.Model, http.StatusBadGateway},
		{errs.Configuration, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(errs.Errorf(tt.kind, "op", "boom")), string(tt.kind))
	}
}
