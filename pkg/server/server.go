// Package server exposes loaded mixin forms over HTTP: a negotiated preview
// (HTML, JSON, text outline), an edit API driving render sessions, and save
// through the configured persister.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-mixinsform/pkg/editable"
	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/render"
)

// ErrUnknownForm reports a schema id that was not loaded.
var ErrUnknownForm = errors.New("server: form not loaded")

// FormLoader loads the forms a Server edits. *mixins.Loader and
// *orchestrator.Orchestrator satisfy it.
type FormLoader interface {
	LoadForms(ctx context.Context, req mixins.Request) (mixins.Result, error)
}

// Option configures a Server.
type Option func(*Server)

// WithPersister enables the save endpoints.
func WithPersister(p mixins.Persister) Option {
	return func(s *Server) {
		s.persister = p
	}
}

// WithLogger routes request and session diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRequest sets the refs, persisted values and display names used by Load.
func WithRequest(req mixins.Request) Option {
	return func(s *Server) {
		s.request = req
	}
}

// WithLanguage sets the default display language. Requests override it with
// ?lang=.
func WithLanguage(lang string) Option {
	return func(s *Server) {
		if lang = strings.TrimSpace(lang); lang != "" {
			s.language = lang
		}
	}
}

// WithDefaultRenderer names the renderer used when content negotiation finds
// no match. Defaults to "html".
func WithDefaultRenderer(name string) Option {
	return func(s *Server) {
		if name = strings.TrimSpace(name); name != "" {
			s.fallback = name
		}
	}
}

// WithAdapterFactory overrides how each session's id adapter is built.
func WithAdapterFactory(fn func() *editable.Adapter) Option {
	return func(s *Server) {
		if fn != nil {
			s.newAdapter = fn
		}
	}
}

// WithRequestTimeout bounds every request. Zero disables the timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// Server holds one render.Session per loaded form.
type Server struct {
	loader     FormLoader
	registry   *render.Registry
	persister  mixins.Persister
	logger     *slog.Logger
	request    mixins.Request
	language   string
	fallback   string
	timeout    time.Duration
	newAdapter func() *editable.Adapter

	mu       sync.RWMutex
	forms    map[string]*formState
	order    []string
	failures []mixins.Failure

	router chi.Router
}

type formState struct {
	session *render.Session
	mu      sync.Mutex
	errors  render.ErrorMapping
}

// New constructs a Server. Call Load before serving to populate the forms.
func New(loader FormLoader, registry *render.Registry, options ...Option) (*Server, error) {
	if loader == nil {
		return nil, errors.New("server: loader is required")
	}
	if registry == nil {
		return nil, errors.New("server: renderer registry is required")
	}
	s := &Server{
		loader:     loader,
		registry:   registry,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		language:   "en",
		fallback:   "html",
		timeout:    30 * time.Second,
		newAdapter: func() *editable.Adapter { return editable.New() },
		forms:      make(map[string]*formState),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Load (re)loads every form and starts a fresh session per form seeded with
// its persisted value. Unsaved edits are discarded.
func (s *Server) Load(ctx context.Context) (mixins.Result, error) {
	result, err := s.loader.LoadForms(ctx, s.request)
	if err != nil {
		return mixins.Result{}, err
	}

	forms := make(map[string]*formState, len(result.Forms))
	order := make([]string, 0, len(result.Forms))
	for _, form := range result.Forms {
		var value map[string]any
		if entry, ok := s.request.Values[form.SchemaID]; ok {
			value = entry.Value
		}
		forms[form.SchemaID] = &formState{
			session: render.NewSession(form, value,
				render.WithAdapter(s.newAdapter()),
				render.WithLogger(s.logger),
			),
		}
		order = append(order, form.SchemaID)
	}

	s.mu.Lock()
	s.forms = forms
	s.order = order
	s.failures = result.Failures
	s.mu.Unlock()

	s.logger.Info("server: forms loaded", "forms", len(forms), "failures", len(result.Failures))
	return result, nil
}

// Session returns the session of a loaded form.
func (s *Server) Session(schemaID string) (*render.Session, error) {
	state, err := s.form(schemaID)
	if err != nil {
		return nil, err
	}
	return state.session, nil
}

func (s *Server) form(schemaID string) (*formState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.forms[schemaID]
	if !ok {
		return nil, ErrUnknownForm
	}
	return state, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/renderers", s.handleRenderers)
	r.Post("/reload", s.handleReload)

	r.Route("/forms", func(r chi.Router) {
		r.Get("/", s.handleListForms)
		r.Get("/{schemaID}", s.handleRenderForm)
		r.Post("/{schemaID}", s.handleSubmitForm)
		r.Get("/{schemaID}/items", s.handleFormItems)
		r.Get("/{schemaID}/value", s.handleFormValue)
		r.Post("/{schemaID}/input", s.handleInput)
		r.Post("/{schemaID}/append", s.handleAppend)
		r.Post("/{schemaID}/remove", s.handleRemove)
		r.Post("/{schemaID}/save", s.handleSave)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("server: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) formIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := append([]string(nil), s.order...)
	return ids
}

func (s *Server) failureList() []failureJSON {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]failureJSON, 0, len(s.failures))
	for _, failure := range s.failures {
		out = append(out, failureJSON{Ref: failure.Ref, Error: failure.Err.Error()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ref.ID < out[j].Ref.ID })
	return out
}
