package http

import (
	"log/slog"
	"net/http"

	"github.com/aretw0/dispatch/pkg/domain"
	"github.com/aretw0/dispatch/pkg/observability"
	"github.com/aretw0/dispatch/pkg/registry"
	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TargetView describes one configured target.
type TargetView struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Parent   string   `json:"parent,omitempty"`
	Events   []string `json:"events"`
	Behavior string   `json:"behavior"`
	Handlers int      `json:"handlers"`
	Methods  []string `json:"methods,omitempty"`
}

// Server exposes the registry for inspection.
type Server struct {
	registry *registry.Registry
	recorder *observability.Recorder
	metrics  http.Handler
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithRecorder serves the recorded events on GET /events.
func WithRecorder(rec *observability.Recorder) Option {
	return func(s *Server) {
		s.recorder = rec
	}
}

// WithMetrics serves h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger used for encoding failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the introspection API for reg.
func NewHandler(reg *registry.Registry, opts ...Option) http.Handler {
	s := &Server{registry: reg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/targets", s.listTargets)
	r.Get("/targets/{name}", s.getTarget)
	if s.recorder != nil {
		r.Get("/events", s.listEvents)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func (s *Server) listTargets(w http.ResponseWriter, r *http.Request) {
	targets := s.registry.Targets()
	views := make([]TargetView, 0, len(targets))
	for _, t := range targets {
		views = append(views, s.view(t))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) getTarget(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	t, ok := s.registry.Lookup(name)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "target not found: " + name})
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(t))
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.recorder.Records())
}

func (s *Server) view(t domain.Target) TargetView {
	cfg, _ := s.registry.Config(t)
	v := TargetView{
		Name:     t.TargetName(),
		Events:   []string{},
		Behavior: cfg.Behavior.String(),
		Handlers: len(cfg.Handlers),
	}
	for _, k := range cfg.Events.Split() {
		v.Events = append(v.Events, k.String())
	}
	switch x := t.(type) {
	case *domain.Class:
		v.Type = "class"
		v.Methods = x.MethodNames()
		if p := x.Parent(); p != nil {
			v.Parent = p.Name()
		}
	case *domain.Function:
		v.Type = "function"
	}
	return v
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		s.logger.Error("encode response failed", "error", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}
