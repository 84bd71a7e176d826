// Package remote talks to a synthesis model served over HTTP.
//
// Every request carries the application key and an HMAC-SHA512 of its body
// keyed by key+secret in the applicationKey and hmac headers.
package remote

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/model"
	"github.com/inkstone/handsynth/stroke"
)

// Config holds the server location and credentials.
type Config struct {
	URL     string
	Key     string
	Secret  string
	Timeout time.Duration
}

// Client is a model.Model backed by a model server.
type Client struct {
	base   *url.URL
	key    string
	secret string
	http   *http.Client
	spec   model.Spec
}

// Sign returns the hex HMAC-SHA512 of data keyed by key+secret.
func Sign(key, secret string, data []byte) string {
	mac := hmac.New(sha512.New, []byte(key+secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches data.
func Verify(key, secret string, data []byte, signature string) bool {
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, []byte(key+secret))
	mac.Write(data)
	return hmac.Equal(mac.Sum(nil), want)
}

// Dial creates a client and fetches the model spec.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	const op = "remote.Dial"

	if cfg.URL == "" {
		return nil, errs.Errorf(errs.Configuration, op, "model url is required")
	}
	if cfg.Key == "" || cfg.Secret == "" {
		return nil, errs.Errorf(errs.Configuration, op, "model key and secret are required")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.URL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errs.Errorf(errs.Configuration, op, "invalid model url %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		base:   base,
		key:    cfg.Key,
		secret: cfg.Secret,
		http:   &http.Client{Timeout: cfg.Timeout},
	}

	if err := c.do(ctx, http.MethodGet, "/v1/spec", nil, &c.spec); err != nil {
		return nil, err
	}
	if err := c.spec.Validate(); err != nil {
		return nil, errs.E(errs.Model, op, err)
	}
	log.Info.Printf("model %s: style_dim=%d char_window=%d mixtures=%d",
		base, c.spec.StyleDim, c.spec.CharWindow, c.spec.Mixtures)
	return c, nil
}

func (c *Client) Spec() model.Spec {
	return c.spec
}

func (c *Client) Style(ctx context.Context, in *model.Input) ([]float64, error) {
	var res StyleResponse
	if err := c.do(ctx, http.MethodPost, "/v1/style", StyleRequest{Input: in}, &res); err != nil {
		return nil, err
	}
	return res.Style, nil
}

func (c *Client) Begin(ctx context.Context, style []float64, chars []int) (model.Decoder, error) {
	req := SessionRequest{ID: uuid.New().String(), Style: style, Chars: chars}
	var res SessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", req, &res); err != nil {
		return nil, err
	}
	if res.ID == "" {
		res.ID = req.ID
	}
	log.Trace.Printf("session %s started", res.ID)
	return &session{client: c, id: res.ID}, nil
}

type session struct {
	client *Client
	id     string
}

func (s *session) Step(ctx context.Context, prev stroke.Offset) (*model.Mixture, error) {
	var res StepResponse
	path := "/v1/sessions/" + url.PathEscape(s.id) + "/step"
	if err := s.client.do(ctx, http.MethodPost, path, StepRequest{Prev: prev}, &res); err != nil {
		return nil, err
	}
	return &res.Mixture, nil
}

func (s *session) Close() error {
	// sessions left open by a failed close expire on the server
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.client.do(ctx, http.MethodDelete, "/v1/sessions/"+url.PathEscape(s.id), nil, nil)
	if err != nil {
		log.Trace.Printf("session %s: close: %v", s.id, err)
	}
	return err
}

// do sends a signed request and decodes the JSON reply into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	op := "remote " + method + " " + path

	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return errs.E(errs.Model, op, fmt.Errorf("failed to encode request: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, bytes.NewReader(data))
	if err != nil {
		return errs.E(errs.Model, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("applicationKey", c.key)
	req.Header.Set("hmac", Sign(c.key, c.secret, data))

	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.E(errs.Model, op, fmt.Errorf("failed to send request: %w", err))
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return errs.E(errs.Model, op, fmt.Errorf("failed to read response: %w", err))
	}

	if res.StatusCode != http.StatusOK {
		kind := errs.Model
		var e ErrorResponse
		decoded := json.Unmarshal(payload, &e) == nil && e.Error != ""
		if res.StatusCode == http.StatusUnprocessableEntity || e.Kind == KindGeneration {
			kind = errs.Generation
		}
		if decoded {
			return errs.Errorf(kind, op, "status %d: %s", res.StatusCode, e.Error)
		}
		return errs.Errorf(kind, op, "status %d, response: %s", res.StatusCode, string(payload))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		if nonFinite(payload) {
			return errs.E(errs.Generation, op, fmt.Errorf("response holds non-finite numbers: %w", err))
		}
		return errs.E(errs.Model, op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// nonFinite reports whether payload carries the NaN or Infinity literals
// that some JSON encoders emit for non-finite floats.
func nonFinite(payload []byte) bool {
	for _, lit := range [][]byte{[]byte("NaN"), []byte("Infinity")} {
		if bytes.Contains(payload, lit) {
			return true
		}
	}
	return false
}
