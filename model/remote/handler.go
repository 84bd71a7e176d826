package remote

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/model"
)

// DefaultIdleTimeout is how long a decode session may go without a step
// before the handler closes it.
const DefaultIdleTimeout = 5 * time.Minute

// Handler serves a model.Model over the remote protocol. It is used to
// expose in-process models to remote clients.
type Handler struct {
	model  model.Model
	key    string
	secret string

	// IdleTimeout closes sessions that saw no request for this long.
	IdleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*openSession
}

type openSession struct {
	dec  model.Decoder
	last time.Time
}

// NewHandler returns a handler for m that accepts requests signed with key
// and secret.
func NewHandler(m model.Model, key, secret string) *Handler {
	return &Handler{
		model:       m,
		key:         key,
		secret:      secret,
		IdleTimeout: DefaultIdleTimeout,
		now:         time.Now,
		sessions:    map[string]*openSession{},
	}
}

// Sessions returns the number of open decode sessions.
func (h *Handler) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// expire closes the sessions idle for longer than IdleTimeout.
func (h *Handler) expire() {
	if h.IdleTimeout <= 0 {
		return
	}
	now := h.now()

	var stale []model.Decoder
	h.mu.Lock()
	for id, s := range h.sessions {
		if now.Sub(s.last) > h.IdleTimeout {
			log.Trace.Printf("session %s expired", id)
			stale = append(stale, s.dec)
			delete(h.sessions, id)
		}
	}
	h.mu.Unlock()

	for _, dec := range stale {
		dec.Close()
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	if status == http.StatusUnprocessableEntity {
		resp.Kind = KindGeneration
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Error.Printf("can't encode reply: %v", err)
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if r.Header.Get("applicationKey") != h.key || !Verify(h.key, h.secret, body, r.Header.Get("hmac")) {
		h.writeError(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	h.expire()

	path := strings.TrimPrefix(r.URL.Path, "/v1/")
	switch {
	case r.Method == http.MethodGet && path == "spec":
		h.writeJSON(w, h.model.Spec())
	case r.Method == http.MethodPost && path == "style":
		h.handleStyle(w, r, body)
	case r.Method == http.MethodPost && path == "sessions":
		h.handleBegin(w, r, body)
	case r.Method == http.MethodPost && strings.HasPrefix(path, "sessions/") && strings.HasSuffix(path, "/step"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "sessions/"), "/step")
		h.handleStep(w, r, id, body)
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "sessions/"):
		h.handleClose(w, strings.TrimPrefix(path, "sessions/"))
	default:
		h.writeError(w, http.StatusNotFound, errNotFound)
	}
}

func (h *Handler) handleStyle(w http.ResponseWriter, r *http.Request, body []byte) {
	var req StyleRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Input == nil {
		h.writeError(w, http.StatusBadRequest, errBadRequest)
		return
	}
	style, err := h.model.Style(r.Context(), req.Input)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, StyleResponse{Style: style})
}

func (h *Handler) handleBegin(w http.ResponseWriter, r *http.Request, body []byte) {
	var req SessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	dec, err := h.model.Begin(r.Context(), req.Style, req.Chars)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.mu.Lock()
	h.sessions[req.ID] = &openSession{dec: dec, last: h.now()}
	h.mu.Unlock()

	log.Trace.Printf("session %s opened", req.ID)
	h.writeJSON(w, SessionResponse{ID: req.ID})
}

func (h *Handler) session(id string) model.Decoder {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.sessions[id]
	if s == nil {
		return nil
	}
	s.last = h.now()
	return s.dec
}

func (h *Handler) handleStep(w http.ResponseWriter, r *http.Request, id string, body []byte) {
	dec := h.session(id)
	if dec == nil {
		h.writeError(w, http.StatusNotFound, errNoSession)
		return
	}
	var req StepRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	mix, err := dec.Step(r.Context(), req.Prev)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := mix.Check(); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	h.writeJSON(w, StepResponse{Mixture: *mix})
}

func (h *Handler) handleClose(w http.ResponseWriter, id string) {
	h.mu.Lock()
	s := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if s == nil {
		h.writeError(w, http.StatusNotFound, errNoSession)
		return
	}
	s.dec.Close()
	h.writeJSON(w, struct{}{})
}
