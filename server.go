package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/inkstone/handsynth/auth"
	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/render"
	"github.com/inkstone/handsynth/shell"
	"github.com/inkstone/handsynth/stroke"
	"github.com/inkstone/handsynth/version"
)

const maxBody = 1 << 20

type ApiServer struct {
	shellCtx *shell.ShellCtxt
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewApiServer(shellCtx *shell.ShellCtxt) *ApiServer {
	return &ApiServer{shellCtx: shellCtx}
}

// statusOf maps an error category to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errs.Validation):
		return http.StatusBadRequest
	case errors.Is(err, errs.Data):
		return http.StatusNotFound
	case errors.Is(err, errs.Generation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.Model):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *ApiServer) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := ErrorResponse{Error: err.Error()}
	if kind := errs.KindOf(err); kind != "" {
		resp.Kind = string(kind)
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *ApiServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		log.Trace.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	s.writeError(w, status, err)
}

func (s *ApiServer) writeSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Data: data})
}

func (s *ApiServer) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %v", err))
		return false
	}
	return true
}

// GET /api/writers
func (s *ApiServer) handleWriters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writers, err := s.shellCtx.Writers()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSuccess(w, writers)
}

// GET /api/samples?writer=<id>
func (s *ApiServer) handleSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writer := r.URL.Query().Get("writer")
	if writer == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("writer parameter is required"))
		return
	}

	entries, err := s.shellCtx.Samples(writer)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSuccess(w, entries)
}

// GET /api/sample?writer=<id>&sample=<id>&format=<json|svg|png|pdf|txt>
// DELETE /api/sample?writer=<id>&sample=<id>
func (s *ApiServer) handleSample(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	writer, id := query.Get("writer"), query.Get("sample")
	if writer == "" || id == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("writer and sample parameters are required"))
		return
	}

	switch r.Method {
	case http.MethodGet:
	case http.MethodDelete:
		if err := s.shellCtx.Store.Delete(writer, id); err != nil {
			s.fail(w, r, err)
			return
		}
		s.writeSuccess(w, map[string]string{"message": "Sample deleted"})
		return
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	smp, err := s.shellCtx.Store.Load(writer, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	format := query.Get("format")
	if format == "" || format == "json" {
		s.writeSuccess(w, s.shellCtx.SampleToJSON(smp))
		return
	}
	s.writeRendering(w, r, format, fmt.Sprintf("%s_%s", writer, id), smp.Sentence.Raw)
}

// POST /api/build
func (s *ApiServer) handleBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req shell.BuildRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Writer == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("writer is required"))
		return
	}

	report, err := s.shellCtx.Build(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSuccess(w, report)
}

// POST /api/style
func (s *ApiServer) handleStyle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req shell.StyleRequest
	if !s.decode(w, r, &req) {
		return
	}

	emb, divider, err := s.shellCtx.Style(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSuccess(w, map[string]interface{}{
		"writers": req.Writers,
		"divider": divider,
		"style":   emb,
	})
}

// POST /api/generate?format=<json|svg|png|pdf|txt>
func (s *ApiServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req shell.GenerateRequest
	if !s.decode(w, r, &req) {
		return
	}

	requestID := uuid.New().String()
	start := time.Now()
	res, seed, err := s.shellCtx.Generate(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	log.Info.Printf("generate %s: %q in %v, %d points", requestID, req.Text, time.Since(start), len(res.Points))

	w.Header().Set("X-Request-Id", requestID)
	w.Header().Set("X-Seed", fmt.Sprint(seed))

	format := r.URL.Query().Get("format")
	if format == "" || format == "json" {
		s.writeSuccess(w, map[string]interface{}{
			"request_id": requestID,
			"seed":       seed,
			"result":     res,
		})
		return
	}
	s.writeRendering(w, r, format, "handwriting", res.Points)
}

func (s *ApiServer) writeRendering(w http.ResponseWriter, r *http.Request, format, name string, points []stroke.Point) {
	var buf bytes.Buffer
	if err := render.Write(&buf, format, points, render.DefaultOptions()); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", render.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s.%s\"", name, format))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GET /api/version
func (s *ApiServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeSuccess(w, map[string]string{"version": version.Version})
}

// Handler returns the API routes. When a jwt secret is configured every
// /api route requires a bearer token.
func (s *ApiServer) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/api/writers", s.handleWriters)
	api.HandleFunc("/api/samples", s.handleSamples)
	api.HandleFunc("/api/sample", s.handleSample)
	api.HandleFunc("/api/build", s.handleBuild)
	api.HandleFunc("/api/style", s.handleStyle)
	api.HandleFunc("/api/generate", s.handleGenerate)
	api.HandleFunc("/api/version", s.handleVersion)

	mux := http.NewServeMux()
	mux.Handle("/api/", auth.Middleware(s.shellCtx.Config.Server.JWTSecret, api))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Root endpoint with API documentation
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `
<!DOCTYPE html>
<html>
<head>
	<title>handsynth REST API</title>
</head>
<body>
	<h1>handsynth REST API</h1>
	<h2>Endpoints:</h2>
	<ul>
		<li>GET /api/writers - List writers</li>
		<li>GET /api/samples?writer= - List the samples of a writer</li>
		<li>GET /api/sample?writer=&amp;sample=&amp;format= - Show or render a sample</li>
		<li>DELETE /api/sample?writer=&amp;sample= - Delete a sample</li>
		<li>POST /api/build - Build samples from captures</li>
		<li>POST /api/style - Extract a writer style</li>
		<li>POST /api/generate?format= - Generate handwriting (json, svg, png, pdf, txt)</li>
		<li>GET /api/version - Get version</li>
	</ul>
</body>
</html>
		`)
	})
	return mux
}

func runServerMode(shellCtx *shell.ShellCtxt, port string) {
	server := NewApiServer(shellCtx)

	log.Info.Printf("Starting HTTP server on port %s", port)
	if shellCtx.Config.Server.JWTSecret == "" {
		log.Warning.Println("no jwt_secret configured, the API is open")
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Error.Fatalf("Server failed: %v", err)
	}
}
