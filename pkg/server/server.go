// Package server exposes report analysis over HTTP.
//
// Routes:
//
//	POST /v1/reports       analyze an uploaded .tgz (request body), 201 + report
//	GET  /v1/reports       list stored report summaries, newest first
//	GET  /v1/reports/{id}  fetch one stored report
//	GET  /healthz          liveness and build info
//
// Failures are JSON objects {"code": ..., "error": ...} with a status
// derived from the error code.
package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nodehealth/pkg/buildinfo"
	"github.com/matzehuels/nodehealth/pkg/deps"
	"github.com/matzehuels/nodehealth/pkg/errors"
	"github.com/matzehuels/nodehealth/pkg/filestore"
	"github.com/matzehuels/nodehealth/pkg/history"
	"github.com/matzehuels/nodehealth/pkg/observability"
	"github.com/matzehuels/nodehealth/pkg/report"
)

// DefaultMaxUploadBytes bounds request bodies of POST /v1/reports.
const DefaultMaxUploadBytes = 64 << 20

// Config configures a Server.
type Config struct {
	Runner         *report.Runner
	History        history.Store
	Logger         *log.Logger
	Options        report.Options // base options; dev_deps and max_depth query parameters override
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// Server serves the HTTP API.
type Server struct {
	runner  *report.Runner
	history history.Store
	logger  *log.Logger
	opts    report.Options
	maxBody int64
	timeout time.Duration
}

// New creates a server. Nil dependencies get in-memory defaults.
func New(cfg Config) *Server {
	s := &Server{
		runner:  cfg.Runner,
		history: cfg.History,
		logger:  cfg.Logger,
		opts:    cfg.Options,
		maxBody: cfg.MaxUploadBytes,
		timeout: cfg.RequestTimeout,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.runner == nil {
		s.runner = report.NewRunner(nil, nil, s.logger)
	}
	if s.history == nil {
		s.history = history.NewMemoryStore(0)
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxUploadBytes
	}
	if s.timeout <= 0 {
		s.timeout = 2 * time.Minute
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/reports", func(r chi.Router) {
		r.With(middleware.Timeout(s.timeout)).Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Get()})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tarball, err := filestore.FromTarball(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	store, err := filestore.NewCached(tarball, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rep, err := s.runner.Run(r.Context(), store, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.history.Save(r.Context(), rep); err != nil {
		s.logger.Warn("saving report failed", "id", rep.ID, "error", err)
	}

	w.Header().Set("Location", "/v1/reports/"+rep.ID)
	writeJSON(w, http.StatusCreated, rep)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	list, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": list})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rep, err := s.history.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// requestOptions applies the dev_deps and max_depth query parameters.
func (s *Server) requestOptions(r *http.Request) (report.Options, error) {
	opts := s.opts
	q := r.URL.Query()
	if v := q.Get("dev_deps"); v != "" {
		scope, err := deps.ParseDevScope(v)
		if err != nil {
			return opts, err
		}
		opts.Deps.DevDependencies = scope
	}
	if v := q.Get("max_depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "max_depth must be a positive integer")
		}
		opts.Deps.MaxDepth = n
	}
	opts.Refresh = q.Get("refresh") == "true"
	return opts, nil
}

// StatusFor maps an error to an HTTP status.
func StatusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidManifest, errors.ErrCodeInvalidTarball,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath, errors.ErrCodeInvalidPackage,
		errors.ErrCodeManifestNotFound:
		return http.StatusBadRequest
	}
	if errors.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	if status == http.StatusRequestEntityTooLarge {
		msg = "upload too large"
	}
	writeJSON(w, status, map[string]any{"code": code, "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// observe reports requests to the HTTP hooks. Responses carry the matched
// route pattern, so IDs do not explode metric cardinality.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("http request", "method", r.Method, "route", route, "status", status, "duration", time.Since(start))
	})
}
