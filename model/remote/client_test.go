package remote

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/hierarchy"
	"github.com/inkstone/handsynth/model"
	"github.com/inkstone/handsynth/model/modeltest"
	"github.com/inkstone/handsynth/sampler"
	"github.com/inkstone/handsynth/segment"
	"github.com/inkstone/handsynth/stroke"
	"github.com/inkstone/handsynth/vocab"
)

func testInput(t *testing.T) *model.Input {
	points := make([]stroke.Point, 8)
	for i := range points {
		points[i] = stroke.Point{X: float64(i * 5), Y: 10, Pen: stroke.PenDown}
	}
	points[7].Pen = stroke.PenUp

	labels := segment.NewLabelMatrix(8, 2)
	labels.Assign(0, 4, 0)
	labels.Assign(4, 8, 1)

	s, err := hierarchy.NewBuilder(vocab.Default(), hierarchy.DefaultOptions()).Build("ok", points, labels)
	require.NoError(t, err)
	in, err := model.NewInput(s)
	require.NoError(t, err)
	return in
}

func newServer(t *testing.T, opts ...func(*Handler, *modeltest.Stub)) (*httptest.Server, *Handler, *modeltest.Stub) {
	stub := modeltest.New(model.Spec{StyleDim: 4, CharWindow: 5, Mixtures: 2})
	h := NewHandler(stub, "app", "secret")
	for _, o := range opts {
		o(h, stub)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, h, stub
}

func TestClientRoundTrip(t *testing.T) {
	srv, h, stub := newServer(t)
	ctx := context.Background()

	c, err := Dial(ctx, Config{URL: srv.URL + "/", Key: "app", Secret: "secret"})
	require.NoError(t, err)
	assert.Equal(t, 4, c.Spec().StyleDim)

	style, err := c.Style(ctx, testInput(t))
	require.NoError(t, err)
	require.Len(t, style, 4)
	// every sentence offset moves 5 units right, i.e. 1 after the divider
	assert.InDelta(t, 1.0, style[0], 1e-9)

	dec, err := c.Begin(ctx, style, []int{67, 68, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, h.Sessions())
	assert.Equal(t, []int{67, 68, 0, 0, 0}, stub.LastChars())

	mix, err := dec.Step(ctx, stroke.Offset{})
	require.NoError(t, err)
	require.NoError(t, mix.Check())
	assert.Equal(t, 2, mix.Components())

	require.NoError(t, dec.Close())
	assert.Equal(t, 0, h.Sessions())
	_, _, closed := stub.Calls()
	assert.Equal(t, 1, closed)

	_, err = dec.Step(ctx, stroke.Offset{})
	assert.True(t, errors.Is(err, errs.Model))
}

func TestClientBadCredentials(t *testing.T) {
	srv, _, _ := newServer(t)

	_, err := Dial(context.Background(), Config{URL: srv.URL, Key: "app", Secret: "wrong"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.Model))
	assert.Contains(t, err.Error(), "401")
}

func TestDialConfiguration(t *testing.T) {
	tests := []Config{
		{},
		{URL: "http://localhost:1"},
		{URL: "not a url", Key: "k", Secret: "s"},
	}
	for _, cfg := range tests {
		_, err := Dial(context.Background(), cfg)
		assert.True(t, errors.Is(err, errs.Configuration), "%+v: %v", cfg, err)
	}
}

func TestClientHonoursContext(t *testing.T) {
	srv, _, _ := newServer(t)
	c, err := Dial(context.Background(), Config{URL: srv.URL, Key: "app", Secret: "secret"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Style(ctx, testInput(t))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSignVerify(t *testing.T) {
	sig := Sign("k", "s", []byte("body"))
	assert.Len(t, sig, 128)
	assert.True(t, Verify("k", "s", []byte("body"), sig))
	assert.False(t, Verify("k", "s", []byte("other"), sig))
	assert.False(t, Verify("k", "s", []byte("body"), "zz"))
}

func TestHandlerRejectsUnsigned(t *testing.T) {
	srv, _, _ := newServer(t)

	res, err := http.Get(srv.URL + "/v1/spec")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestClientNonFiniteStep(t *testing.T) {
	srv, h, _ := newServer(t, func(_ *Handler, s *modeltest.Stub) { s.NaNAt = 2 })
	ctx := context.Background()

	c, err := Dial(ctx, Config{URL: srv.URL, Key: "app", Secret: "secret"})
	require.NoError(t, err)
	dec, err := c.Begin(ctx, []float64{0, 0, 0, 0}, []int{67, 0, 0, 0, 0})
	require.NoError(t, err)

	_, err = dec.Step(ctx, stroke.Offset{})
	require.NoError(t, err)
	_, err = dec.Step(ctx, stroke.Offset{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.Generation), "%v", err)
	assert.Contains(t, err.Error(), "422")

	require.NoError(t, dec.Close())
	assert.Equal(t, 0, h.Sessions())
}

func TestGenerateOverRemoteNonFinite(t *testing.T) {
	srv, _, _ := newServer(t, func(_ *Handler, s *modeltest.Stub) { s.NaNAt = 3 })
	ctx := context.Background()

	c, err := Dial(ctx, Config{URL: srv.URL, Key: "app", Secret: "secret"})
	require.NoError(t, err)

	g := sampler.New(c, vocab.Default(), sampler.DefaultConfig(), rand.New(rand.NewSource(1)))
	_, err = g.Generate(ctx, "hi", []float64{0, 0, 0, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.Generation), "%v", err)
}

func TestHandlerExpiresIdleSessions(t *testing.T) {
	var elapsed int64
	start := time.Now()
	srv, h, stub := newServer(t, func(h *Handler, _ *modeltest.Stub) {
		h.now = func() time.Time { return start.Add(time.Duration(atomic.LoadInt64(&elapsed))) }
		h.IdleTimeout = time.Minute
	})
	ctx := context.Background()

	c, err := Dial(ctx, Config{URL: srv.URL, Key: "app", Secret: "secret"})
	require.NoError(t, err)
	dec, err := c.Begin(ctx, []float64{0, 0, 0, 0}, []int{67, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, h.Sessions())

	atomic.StoreInt64(&elapsed, int64(30*time.Second))
	_, err = dec.Step(ctx, stroke.Offset{})
	require.NoError(t, err)

	// the step above refreshed the session
	atomic.StoreInt64(&elapsed, int64(80*time.Second))
	_, err = dec.Step(ctx, stroke.Offset{})
	require.NoError(t, err)

	atomic.StoreInt64(&elapsed, int64(200*time.Second))
	_, err = dec.Step(ctx, stroke.Offset{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, 0, h.Sessions())
	_, _, closed := stub.Calls()
	assert.Equal(t, 1, closed)
}

func TestClientNonFiniteLiteral(t *testing.T) {
	h := NewHandler(modeltest.New(model.Spec{StyleDim: 4, CharWindow: 5, Mixtures: 2}), "app", "secret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/step") {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"mixture": {"pi": [NaN, 1]}}`))
			return
		}
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	ctx := context.Background()

	c, err := Dial(ctx, Config{URL: srv.URL, Key: "app", Secret: "secret"})
	require.NoError(t, err)
	dec, err := c.Begin(ctx, []float64{0, 0, 0, 0}, []int{67, 0, 0, 0, 0})
	require.NoError(t, err)

	_, err = dec.Step(ctx, stroke.Offset{})
	assert.True(t, errors.Is(err, errs.Generation), "%v", err)
}
